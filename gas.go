package ptb

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/moznion/go-optional"
)

// GasConfig holds the gas fields of a transaction. Price and Budget are
// decimal strings.
type GasConfig struct {
	Price   optional.Option[string]
	Budget  optional.Option[string]
	Owner   optional.Option[Address]
	Payment optional.Option[[]ObjectRef]
}

func (g GasConfig) clone() GasConfig {
	out := g
	if g.Payment.IsSome() {
		out.Payment = optional.Some(append([]ObjectRef{}, g.Payment.Unwrap()...))
	}
	return out
}

// decimalField parses an optional decimal field as a u64.
func decimalField(name string, v optional.Option[string]) (uint64, error) {
	if v.IsNone() {
		return 0, fmt.Errorf("%w: %s not set", ErrIncompleteGasConfig, name)
	}
	n, err := uint256.FromDecimal(v.Unwrap())
	if err != nil {
		return 0, fmt.Errorf("ptb: invalid gas %s %q: %w", name, v.Unwrap(), err)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("ptb: gas %s %s overflows u64", name, v.Unwrap())
	}
	return n.Uint64(), nil
}

// gasOwner returns the gas owner, falling back to the sender.
func (b *Builder) gasOwner() (Address, error) {
	if b.gas.Owner.IsSome() {
		return b.gas.Owner.Unwrap(), nil
	}
	if b.sender.IsSome() {
		return b.sender.Unwrap(), nil
	}
	return Address{}, ErrMissingSender
}

// prepareGasPrice fills the price from the reference gas price unless it is
// already set.
func (b *Builder) prepareGasPrice(ctx context.Context, cfg *buildConfig) error {
	if cfg.onlyTransactionKind || b.gas.Price.IsSome() {
		return nil
	}
	if cfg.provider == nil {
		return fmt.Errorf("%w: reference gas price", ErrMissingProvider)
	}
	price, err := cfg.provider.ReferenceGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("ptb: fetching reference gas price: %w", err)
	}
	b.SetGasPrice(price)
	b.logger.Debug("Set gas price", "price", price)
	return nil
}

// prepareGasPayment checks an explicit payment, or selects SUI coins of the
// gas owner that are not already used as owned inputs.
func (b *Builder) prepareGasPayment(ctx context.Context, cfg *buildConfig) error {
	limits := cfg.limitSource()
	maxGasObjects, err := limits.get(LimitMaxGasObjects)
	if err != nil {
		return err
	}

	if b.gas.Payment.IsSome() {
		if n := len(b.gas.Payment.Unwrap()); uint64(n) > maxGasObjects {
			return &TooManyGasObjectsError{Count: n, Max: maxGasObjects}
		}
		return nil
	}
	if cfg.onlyTransactionKind {
		return nil
	}

	owner, err := b.gasOwner()
	if err != nil {
		return err
	}
	if cfg.provider == nil {
		return fmt.Errorf("%w: gas payment", ErrMissingProvider)
	}
	coins, err := cfg.provider.CoinsOwnedBy(ctx, owner, SuiCoinType)
	if err != nil {
		return fmt.Errorf("ptb: listing gas coins of %s: %w", owner, err)
	}

	used := make(map[string]bool)
	for _, in := range b.inputs.inputs {
		if owned, ok := in.Value.(ResolvedOwned); ok {
			used[NormalizeAddress(owned.Ref.ObjectID)] = true
		}
	}

	payment := make([]ObjectRef, 0, len(coins))
	for _, c := range coins {
		if uint64(len(payment)) >= maxGasObjects {
			break
		}
		if used[NormalizeAddress(c.CoinObjectID)] {
			continue
		}
		payment = append(payment, c.Ref())
	}
	if len(payment) == 0 {
		return ErrNoPaymentCoins
	}

	b.gas.Payment = optional.Some(payment)
	b.logger.Debug("Selected gas payment", "owner", owner, "coins", len(payment))
	return nil
}

// prepareGasBudget sizes the budget from a dry run unless it is already set.
// The dry run uses max_tx_gas as budget and no payment.
func (b *Builder) prepareGasBudget(ctx context.Context, cfg *buildConfig) error {
	if b.gas.Budget.IsSome() {
		return nil
	}
	if cfg.provider == nil {
		return fmt.Errorf("%w: gas budget", ErrMissingProvider)
	}

	limits := cfg.limitSource()
	maxTxGas, err := limits.get(LimitMaxTxGas)
	if err != nil {
		return err
	}
	overhead, err := limits.get(LimitGasSafeOverhead)
	if err != nil {
		return err
	}
	maxTxSize, err := limits.get(LimitMaxTxSizeBytes)
	if err != nil {
		return err
	}

	price, err := decimalField("price", b.gas.Price)
	if err != nil {
		return err
	}
	owner, err := b.gasOwner()
	if err != nil {
		return err
	}

	trial, err := b.marshalTransactionData(gasData{
		payment: []ObjectRef{},
		owner:   owner,
		price:   price,
		budget:  maxTxGas,
	})
	if err != nil {
		return err
	}
	if uint64(len(trial)) > maxTxSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrTransactionTooLarge, len(trial), maxTxSize)
	}

	result, err := cfg.provider.DryRun(ctx, trial)
	if err != nil {
		return fmt.Errorf("ptb: dry run: %w", err)
	}
	if !result.Success {
		return &DryRunError{Reason: result.Error}
	}

	budget, err := ComputeGasBudget(result, price, overhead)
	if err != nil {
		return err
	}
	b.SetGasBudget(budget)
	b.logger.Debug("Set gas budget", "budget", budget,
		"computation", result.ComputationCost, "storage", result.StorageCost, "rebate", result.StorageRebate)
	return nil
}

// ComputeGasBudget derives a budget from dry run costs:
//
//	overhead = safeOverhead * price (price 0 counts as 1)
//	base     = computation + overhead
//	budget   = max(base, base + storage - rebate)
func ComputeGasBudget(dr *DryRunResult, price, safeOverhead uint64) (uint64, error) {
	if dr == nil {
		return 0, errors.New("ptb: nil dry run result")
	}
	if price == 0 {
		price = 1
	}

	overhead, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(safeOverhead), uint256.NewInt(price))
	if overflow {
		return 0, errors.New("ptb: gas overhead overflows")
	}
	base := new(uint256.Int).Add(uint256.NewInt(dr.ComputationCost), overhead)

	budget := base
	if dr.StorageCost > dr.StorageRebate {
		net := uint256.NewInt(dr.StorageCost - dr.StorageRebate)
		budget = new(uint256.Int).Add(base, net)
	}
	if !budget.IsUint64() {
		return 0, fmt.Errorf("ptb: gas budget %s overflows u64", budget.Dec())
	}
	return budget.Uint64(), nil
}
