package ptb

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/moznion/go-optional"
)

// Builder assembles a programmable transaction block.
//
// A Builder is not safe for concurrent use. Inputs and commands must not be
// added once Prepare has started.
type Builder struct {
	inputs     *inputTable
	commands   []Command
	projectors map[uint16]*ResultProjector

	sender     optional.Option[Address]
	gas        GasConfig
	expiration optional.Option[uint64]

	// protocolConfig is remembered from the first Prepare that fetched it.
	protocolConfig *ProtocolConfig
	prepared       bool

	// rejectedCommands counts commands refused because every index was taken.
	rejectedCommands int

	logger log.Logger
}

// New creates an empty Builder with the given options.
func New(opts ...BuilderOption) *Builder {
	b := &Builder{
		inputs:     newInputTable(),
		commands:   make([]Command, 0, 16),
		projectors: make(map[uint16]*ResultProjector),
		logger:     log.Root(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetSender sets the transaction sender.
func (b *Builder) SetSender(sender Address) {
	b.sender = optional.Some(sender)
}

// SetSenderIfNotSet sets the sender unless one is already set.
func (b *Builder) SetSenderIfNotSet(sender Address) {
	if b.sender.IsNone() {
		b.sender = optional.Some(sender)
	}
}

// Sender returns the sender, if set.
func (b *Builder) Sender() (Address, bool) {
	return b.sender.Unwrap(), b.sender.IsSome()
}

// SetExpiration makes the transaction expire after epoch.
func (b *Builder) SetExpiration(epoch uint64) {
	b.expiration = optional.Some(epoch)
}

// SetGasPrice sets the gas price.
func (b *Builder) SetGasPrice(price uint64) {
	b.gas.Price = optional.Some(strconv.FormatUint(price, 10))
}

// SetGasBudget sets the gas budget.
func (b *Builder) SetGasBudget(budget uint64) {
	b.gas.Budget = optional.Some(strconv.FormatUint(budget, 10))
}

// SetGasOwner sets the address paying for gas. Defaults to the sender.
func (b *Builder) SetGasOwner(owner Address) {
	b.gas.Owner = optional.Some(owner)
}

// SetGasPayment sets the coins used to pay for gas. The payment is left
// unchanged when there are more than DefaultMaxGasObjects coins. That bound is
// provisional: Prepare checks the payment again against max_gas_payment_objects
// from the configured limits or protocol config, which may be lower.
func (b *Builder) SetGasPayment(payment []ObjectRef) error {
	if len(payment) > DefaultMaxGasObjects {
		return &TooManyGasObjectsError{Count: len(payment), Max: DefaultMaxGasObjects}
	}
	b.gas.Payment = optional.Some(append([]ObjectRef{}, payment...))
	return nil
}

// GasConfig returns a copy of the current gas configuration.
func (b *Builder) GasConfig() GasConfig {
	return b.gas.clone()
}

// AddInput appends an input and returns its reference. Inputs are never deduplicated.
func (b *Builder) AddInput(kind InputKind, value InputValue) InputRef {
	return b.inputs.add(kind, value)
}

// Pure adds a pure input whose Move type is taken from the call that uses it.
func (b *Builder) Pure(raw any) InputRef {
	return b.inputs.add(InputKindPure, Unresolved{Raw: raw})
}

// PureBytes adds an already serialized pure input.
func (b *Builder) PureBytes(bcsBytes []byte) InputRef {
	return b.inputs.add(InputKindPure, ResolvedPure{Bytes: append([]byte{}, bcsBytes...)})
}

// PureTyped serializes raw as typeString and adds it as a pure input.
func (b *Builder) PureTyped(raw any, typeString string) (InputRef, error) {
	bs, err := EncodePure(typeString, raw)
	if err != nil {
		return InputRef{}, err
	}
	return b.inputs.add(InputKindPure, ResolvedPure{Bytes: bs}), nil
}

// Object adds an object input by id. An existing object input with the same
// id is returned instead of adding a new one.
func (b *Builder) Object(id string) InputRef {
	return b.inputs.addObject(id, Unresolved{Raw: NormalizeAddress(id)})
}

// ObjectRef adds an owned or immutable object input.
func (b *Builder) ObjectRef(ref ObjectRef) InputRef {
	ref.ObjectID = NormalizeAddress(ref.ObjectID)
	return b.inputs.addObject(ref.ObjectID, ResolvedOwned{Ref: ref})
}

// SharedObjectRef adds a shared object input.
func (b *Builder) SharedObjectRef(id string, initialSharedVersion uint64, mutable bool) InputRef {
	id = NormalizeAddress(id)
	return b.inputs.addObject(id, ResolvedShared{
		ObjectID:             id,
		InitialSharedVersion: initialSharedVersion,
		Mutable:              mutable,
	})
}

// Gas returns a reference to the gas coin.
func (b *Builder) Gas() Argument {
	return GasCoin{}
}

// AddCommand appends cmd. It returns a single Result, or when expectedResults
// is greater than one, NestedResult references to slots 0..expectedResults-1.
// Commands past the last u16 index are dropped and make Prepare fail with
// ErrTooManyCommands.
func (b *Builder) AddCommand(cmd Command, expectedResults uint16) []Argument {
	if len(b.commands) > math.MaxUint16 {
		b.rejectedCommands++
		b.logger.Warn("Dropped command over the index limit", "kind", cmd.Kind())
		if expectedResults > 1 {
			out := make([]Argument, expectedResults)
			for i := range out {
				out[i] = NestedResult{CommandIndex: math.MaxUint16, Slot: uint16(i)}
			}
			return out
		}
		return []Argument{Result{CommandIndex: math.MaxUint16}}
	}
	idx := uint16(len(b.commands))
	b.commands = append(b.commands, cmd)
	b.logger.Trace("Added command", "index", idx, "kind", cmd.Kind())

	if expectedResults > 1 {
		return b.Project(Result{CommandIndex: idx}).Collect(expectedResults)
	}
	return []Argument{Result{CommandIndex: idx}}
}

// Project returns the projector for the outputs of the command behind r.
func (b *Builder) Project(r Result) *ResultProjector {
	p, ok := b.projectors[r.CommandIndex]
	if !ok {
		p = newResultProjector(r.CommandIndex)
		b.projectors[r.CommandIndex] = p
	}
	return p
}

// SplitCoins splits amounts off coin.
func (b *Builder) SplitCoins(coin Argument, amounts ...Argument) Argument {
	return b.AddCommand(&SplitCoins{Coin: coin, Amounts: amounts}, 1)[0]
}

// MergeCoins merges sources into destination.
func (b *Builder) MergeCoins(destination Argument, sources ...Argument) Argument {
	return b.AddCommand(&MergeCoins{Destination: destination, Sources: sources}, 1)[0]
}

// TransferObjects sends objects to address.
func (b *Builder) TransferObjects(objects []Argument, address Argument) Argument {
	return b.AddCommand(&TransferObjects{Objects: objects, Address: address}, 1)[0]
}

// Publish publishes compiled modules.
func (b *Builder) Publish(modules [][]byte, dependencies []string) Argument {
	return b.AddCommand(&Publish{Modules: modules, Dependencies: normalizeIDs(dependencies)}, 1)[0]
}

// Upgrade upgrades packageID using ticket.
func (b *Builder) Upgrade(modules [][]byte, dependencies []string, packageID string, ticket Argument) Argument {
	return b.AddCommand(&Upgrade{
		Modules:      modules,
		Dependencies: normalizeIDs(dependencies),
		PackageID:    NormalizeAddress(packageID),
		Ticket:       ticket,
	}, 1)[0]
}

// MakeMoveVec builds a vector of objects. typ must be set when objects is empty.
func (b *Builder) MakeMoveVec(typ optional.Option[string], objects ...Argument) Argument {
	return b.AddCommand(&MakeMoveVec{Type: typ, Objects: objects}, 1)[0]
}

// MoveCall adds a Move call. Without WithResults it returns a single Result.
func (b *Builder) MoveCall(call *MoveCall, opts ...CallOption) []Argument {
	cfg := &callConfig{results: 1}
	for _, opt := range opts {
		opt(cfg)
	}
	return b.AddCommand(call, cfg.results)
}

// NewMoveCall creates a MoveCall from a package::module::function target.
func NewMoveCall(target string, typeArguments []string, args ...Argument) (*MoveCall, error) {
	pkg, module, function, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &MoveCall{
		Package:       pkg,
		Module:        module,
		Function:      function,
		TypeArguments: typeArguments,
		Arguments:     args,
	}, nil
}

// MustMoveCall is like NewMoveCall but panics on error.
func MustMoveCall(target string, typeArguments []string, args ...Argument) *MoveCall {
	call, err := NewMoveCall(target, typeArguments, args...)
	if err != nil {
		panic(err)
	}
	return call
}

// Inputs returns a snapshot of the inputs.
func (b *Builder) Inputs() []Input {
	out := make([]Input, b.inputs.len())
	for i, in := range b.inputs.inputs {
		out[i] = *in
	}
	return out
}

// Commands returns the commands in order.
func (b *Builder) Commands() []Command {
	return append([]Command{}, b.commands...)
}

// Prepared reports whether Prepare has completed.
func (b *Builder) Prepared() bool {
	return b.prepared
}

// checkCapacity fails when inputs or commands were dropped for lack of indices.
func (b *Builder) checkCapacity() error {
	if err := b.inputs.checkCapacity(); err != nil {
		return err
	}
	if b.rejectedCommands > 0 {
		return fmt.Errorf("%w: %d over the limit of %d", ErrTooManyCommands, b.rejectedCommands, math.MaxUint16+1)
	}
	return nil
}

func normalizeIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = NormalizeAddress(id)
	}
	return out
}
