package ptb

import (
	"context"
	"errors"
	"fmt"
)

// Prepare resolves inputs and fills in gas data using the configured provider.
//
// The first successful full call does the work; later calls return nil
// without touching the network. Prepare fails fast: the first error aborts
// it, the gas configuration is restored to what it was before the call and
// the builder stays unprepared. Prepare must not be called concurrently.
func (b *Builder) Prepare(ctx context.Context, opts ...BuildOption) (err error) {
	if b.prepared {
		return nil
	}
	if err := b.checkCapacity(); err != nil {
		return err
	}
	cfg := b.buildConfig(opts)

	gas := b.gas.clone()
	defer func() {
		if err != nil {
			b.gas = gas
		}
	}()

	if !cfg.onlyTransactionKind && b.sender.IsNone() {
		return ErrMissingSender
	}

	if cfg.limits == nil && cfg.protocolConfig == nil && cfg.provider != nil {
		pc, err := cfg.provider.ProtocolConfig(ctx)
		if err != nil {
			return fmt.Errorf("ptb: fetching protocol config: %w", err)
		}
		b.protocolConfig = pc
		cfg.protocolConfig = pc
	}

	if err := b.prepareGasPrice(ctx, cfg); err != nil {
		return err
	}
	if err := b.resolve(ctx, cfg); err != nil {
		return err
	}
	if !cfg.onlyTransactionKind {
		if err := b.prepareGasPayment(ctx, cfg); err != nil {
			return err
		}
		if err := b.prepareGasBudget(ctx, cfg); err != nil {
			return err
		}
	}

	// A kind-only pass leaves gas data open for a later full prepare.
	if !cfg.onlyTransactionKind {
		b.prepared = true
	}
	b.logger.Debug("Prepared transaction", "inputs", b.inputs.len(), "commands", len(b.commands))
	return nil
}

// Build prepares the builder and returns the BCS bytes of the transaction
// data, or of the transaction kind alone with OnlyTransactionKind.
func (b *Builder) Build(ctx context.Context, opts ...BuildOption) ([]byte, error) {
	if err := b.Prepare(ctx, opts...); err != nil {
		return nil, err
	}
	cfg := b.buildConfig(opts)

	var (
		bs  []byte
		err error
	)
	if cfg.onlyTransactionKind {
		bs, err = b.marshalTransactionKind()
	} else {
		var gas gasData
		if gas, err = b.gasData(); err != nil {
			return nil, err
		}
		bs, err = b.marshalTransactionData(gas)
	}
	if err != nil {
		return nil, err
	}

	maxSize, err := cfg.limitSource().get(LimitMaxTxSizeBytes)
	if err != nil {
		return nil, err
	}
	if uint64(len(bs)) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTransactionTooLarge, len(bs), maxSize)
	}
	return bs, nil
}

// Digest builds the transaction data and returns its base58 digest.
func (b *Builder) Digest(ctx context.Context, opts ...BuildOption) (string, error) {
	cfg := b.buildConfig(opts)
	if cfg.onlyTransactionKind {
		return "", errors.New("ptb: a digest requires full transaction data")
	}
	bs, err := b.Build(ctx, opts...)
	if err != nil {
		return "", err
	}
	return TransactionDigest(bs), nil
}

// buildConfig applies opts. A protocol config fetched by an earlier Prepare
// stands in when the caller supplies neither limits nor a config.
func (b *Builder) buildConfig(opts []BuildOption) *buildConfig {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.limits == nil && cfg.protocolConfig == nil {
		cfg.protocolConfig = b.protocolConfig
	}
	return cfg
}

// gasData converts the prepared gas config into its wire values.
func (b *Builder) gasData() (gasData, error) {
	price, err := decimalField("price", b.gas.Price)
	if err != nil {
		return gasData{}, err
	}
	budget, err := decimalField("budget", b.gas.Budget)
	if err != nil {
		return gasData{}, err
	}
	if b.gas.Payment.IsNone() {
		return gasData{}, fmt.Errorf("%w: payment not set", ErrIncompleteGasConfig)
	}
	owner, err := b.gasOwner()
	if err != nil {
		return gasData{}, err
	}
	return gasData{
		payment: b.gas.Payment.Unwrap(),
		owner:   owner,
		price:   price,
		budget:  budget,
	}, nil
}
