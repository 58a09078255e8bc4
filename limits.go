package ptb

import (
	"math"

	"github.com/moznion/go-optional"
)

// LimitKey names a numeric limit. Keys shared with the chain match its
// protocol config attribute names.
type LimitKey string

const (
	// LimitMaxTxGas is the gas budget used for the budget-sizing dry run.
	LimitMaxTxGas LimitKey = "max_tx_gas"

	// LimitMaxGasObjects is the maximum number of gas payment coins.
	LimitMaxGasObjects LimitKey = "max_gas_payment_objects"

	// LimitMaxTxSizeBytes is the maximum serialized transaction size.
	LimitMaxTxSizeBytes LimitKey = "max_tx_size_bytes"

	// LimitMaxPureArgumentSize is the maximum size of one pure input.
	LimitMaxPureArgumentSize LimitKey = "max_pure_argument_size"

	// LimitMaxObjectsPerFetch is the chunk size of batched object lookups.
	LimitMaxObjectsPerFetch LimitKey = "max_objects_per_fetch"

	// LimitGasSafeOverhead is multiplied by the gas price and added to the budget.
	LimitGasSafeOverhead LimitKey = "gas_safe_overhead"
)

// Offline defaults, used when no protocol config is available.
const (
	DefaultMaxTxGas            = 50_000_000_000
	DefaultMaxGasObjects       = 256
	DefaultMaxTxSizeBytes      = 128 * 1024
	DefaultMaxPureArgumentSize = 16 * 1024
	DefaultMaxObjectsPerFetch  = 50
	DefaultGasSafeOverhead     = 1000
)

var offlineLimits = map[LimitKey]uint64{
	LimitMaxTxGas:            DefaultMaxTxGas,
	LimitMaxGasObjects:       DefaultMaxGasObjects,
	LimitMaxTxSizeBytes:      DefaultMaxTxSizeBytes,
	LimitMaxPureArgumentSize: DefaultMaxPureArgumentSize,
	LimitMaxObjectsPerFetch:  DefaultMaxObjectsPerFetch,
	LimitGasSafeOverhead:     DefaultGasSafeOverhead,
}

// clientLimits have no protocol config attribute.
var clientLimits = map[LimitKey]bool{
	LimitMaxObjectsPerFetch: true,
	LimitGasSafeOverhead:    true,
}

// DefaultLimit returns the offline default of key. It reports false for
// keys the builder does not know.
func DefaultLimit(key LimitKey) (uint64, bool) {
	v, ok := offlineLimits[key]
	return v, ok
}

// ProtocolAttribute is a numeric protocol config value. At most one field is set.
type ProtocolAttribute struct {
	U32 *uint32
	U64 *uint64
	F64 *float64
}

// Uint64 returns the attribute as an integer.
func (a ProtocolAttribute) Uint64() (uint64, bool) {
	switch {
	case a.U64 != nil:
		return *a.U64, true
	case a.U32 != nil:
		return uint64(*a.U32), true
	case a.F64 != nil:
		if *a.F64 < 0 || *a.F64 > math.MaxUint64 || math.IsNaN(*a.F64) {
			return 0, false
		}
		return uint64(*a.F64), true
	}
	return 0, false
}

// ProtocolConfig is the chain-reported set of limits and features.
type ProtocolConfig struct {
	ProtocolVersion uint64
	// Attributes maps attribute names to values. A nil value means the
	// attribute exists at this protocol version but is unset.
	Attributes   map[string]*ProtocolAttribute
	FeatureFlags map[string]bool
}

// limitSource resolves limits through overrides, offline defaults and protocol config.
type limitSource struct {
	overrides map[LimitKey]optional.Option[uint64]
	protocol  *ProtocolConfig
}

// get resolves key. A present override holding None falls through to the next tier.
func (s limitSource) get(key LimitKey) (uint64, error) {
	if v, ok := s.overrides[key]; ok && v.IsSome() {
		return v.Unwrap(), nil
	}

	if s.protocol == nil || clientLimits[key] {
		if v, ok := offlineLimits[key]; ok {
			return v, nil
		}
		return 0, &ConfigKeyError{Key: key}
	}

	if attr := s.protocol.Attributes[string(key)]; attr != nil {
		if v, ok := attr.Uint64(); ok {
			return v, nil
		}
	}
	return 0, &ConfigKeyError{Key: key}
}
