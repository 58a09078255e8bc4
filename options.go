package ptb

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/moznion/go-optional"
)

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// BuildOption configures Prepare, Build and Digest.
type BuildOption func(*buildConfig)

// buildConfig holds configuration for the prepare pipeline.
type buildConfig struct {
	provider            Provider
	onlyTransactionKind bool
	limits              map[LimitKey]optional.Option[uint64]
	protocolConfig      *ProtocolConfig
}

// defaultBuildConfig returns the default build configuration.
func defaultBuildConfig() *buildConfig {
	return &buildConfig{}
}

func (c *buildConfig) limitSource() limitSource {
	return limitSource{overrides: c.limits, protocol: c.protocolConfig}
}

// WithLogger sets the logger used by the builder. Default is log.Root().
func WithLogger(logger log.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSender sets the transaction sender at construction time.
func WithSender(sender Address) BuilderOption {
	return func(b *Builder) {
		b.sender = optional.Some(sender)
	}
}

// WithProvider sets the network handle used for resolution and gas estimation.
func WithProvider(p Provider) BuildOption {
	return func(c *buildConfig) {
		c.provider = p
	}
}

// OnlyTransactionKind prepares and builds only the transaction kind,
// without sender or gas data.
func OnlyTransactionKind() BuildOption {
	return func(c *buildConfig) {
		c.onlyTransactionKind = true
	}
}

// WithLimits overrides numeric limits. Supplying any limits disables the
// automatic protocol config fetch.
func WithLimits(limits map[LimitKey]uint64) BuildOption {
	return func(c *buildConfig) {
		if c.limits == nil {
			c.limits = make(map[LimitKey]optional.Option[uint64], len(limits))
		}
		for k, v := range limits {
			c.limits[k] = optional.Some(v)
		}
	}
}

// WithLimit sets one override. A None value is recorded but resolves
// through the remaining tiers.
func WithLimit(key LimitKey, value optional.Option[uint64]) BuildOption {
	return func(c *buildConfig) {
		if c.limits == nil {
			c.limits = make(map[LimitKey]optional.Option[uint64])
		}
		c.limits[key] = value
	}
}

// WithProtocolConfig supplies the protocol config instead of fetching it.
func WithProtocolConfig(pc *ProtocolConfig) BuildOption {
	return func(c *buildConfig) {
		c.protocolConfig = pc
	}
}

// CallOption configures a Move call added with Builder.MoveCall.
type CallOption func(*callConfig)

type callConfig struct {
	results uint16
}

// WithResults sets how many values the call returns. With more than one,
// MoveCall returns one NestedResult per value.
func WithResults(n uint16) CallOption {
	return func(c *callConfig) {
		c.results = n
	}
}
