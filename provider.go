package ptb

import (
	"context"

	"github.com/moznion/go-optional"
)

// Provider is the network collaborator the prepare pipeline reads chain state from.
// Every call is made sequentially from a single goroutine.
type Provider interface {
	// ReferenceGasPrice returns the network's current reference gas price.
	ReferenceGasPrice(ctx context.Context) (uint64, error)

	// NormalizedMoveFunction returns the signature of pkg::module::function.
	NormalizedMoveFunction(ctx context.Context, pkg, module, function string) (*MoveFunction, error)

	// MultiGetObjects looks up objects by id. The result has one entry per id, in order.
	MultiGetObjects(ctx context.Context, ids []string) ([]ObjectInfo, error)

	// CoinsOwnedBy lists coins of coinType owned by owner.
	CoinsOwnedBy(ctx context.Context, owner Address, coinType string) ([]Coin, error)

	// DryRun simulates serialized transaction data.
	DryRun(ctx context.Context, txBytes []byte) (*DryRunResult, error)

	// ProtocolConfig returns the chain's current protocol config.
	ProtocolConfig(ctx context.Context) (*ProtocolConfig, error)
}

// ObjectInfo is the live state of an object. Error is set when the lookup failed.
type ObjectInfo struct {
	ObjectID string
	Version  uint64
	Digest   ObjectDigest
	Type     string

	// InitialSharedVersion is set only for shared objects.
	InitialSharedVersion optional.Option[uint64]

	Error string
}

// Ref returns the object reference of an owned or immutable object.
func (o ObjectInfo) Ref() ObjectRef {
	return ObjectRef{ObjectID: o.ObjectID, Version: o.Version, Digest: o.Digest}
}

// Coin is a coin object owned by an address.
type Coin struct {
	CoinType     string
	CoinObjectID string
	Version      uint64
	Digest       ObjectDigest
	Balance      string
}

// Ref returns the coin's object reference.
func (c Coin) Ref() ObjectRef {
	return ObjectRef{ObjectID: c.CoinObjectID, Version: c.Version, Digest: c.Digest}
}

// DryRunResult is the outcome of a simulated execution.
type DryRunResult struct {
	Success bool
	// Error is the chain-reported failure reason when Success is false.
	Error string

	ComputationCost uint64
	StorageCost     uint64
	StorageRebate   uint64
}
