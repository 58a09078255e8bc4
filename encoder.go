package ptb

import (
	"fmt"

	"github.com/fardream/go-bcs/bcs"
)

// Wire types for BCS serialization. Enum structs carry exactly one non-nil
// pointer field; field order is the variant order.

type wireTransactionData struct {
	V1 *wireTransactionDataV1
}

func (wireTransactionData) IsBcsEnum() {}

type wireTransactionDataV1 struct {
	Kind       wireTransactionKind
	Sender     Address
	GasData    wireGasData
	Expiration wireExpiration
}

type wireTransactionKind struct {
	ProgrammableTransaction *wireProgrammableTransaction
}

func (wireTransactionKind) IsBcsEnum() {}

type wireProgrammableTransaction struct {
	Inputs   []wireCallArg
	Commands []wireCommand
}

type wireGasData struct {
	Payment []wireObjectRef
	Owner   Address
	Price   uint64
	Budget  uint64
}

type wireExpiration struct {
	None  *Unit
	Epoch *uint64
}

func (wireExpiration) IsBcsEnum() {}

type wireObjectRef struct {
	ObjectID Address
	Version  uint64
	Digest   []byte
}

type wirePure struct {
	Bytes []byte
}

type wireSharedObject struct {
	ObjectID             Address
	InitialSharedVersion uint64
	Mutable              bool
}

type wireCallArg struct {
	Pure   *wirePure
	Owned  *wireObjectRef
	Shared *wireSharedObject
}

func (wireCallArg) IsBcsEnum() {}

type wireNestedResult struct {
	CommandIndex uint16
	Slot         uint16
}

type wireArgument struct {
	GasCoin      *Unit
	Input        *uint16
	Result       *uint16
	NestedResult *wireNestedResult
}

func (wireArgument) IsBcsEnum() {}

type wireMoveCall struct {
	Package       Address
	Module        string
	Function      string
	TypeArguments []TypeTag
	Arguments     []wireArgument
}

type wireTransferObjects struct {
	Objects []wireArgument
	Address wireArgument
}

type wireSplitCoins struct {
	Coin    wireArgument
	Amounts []wireArgument
}

type wireMergeCoins struct {
	Destination wireArgument
	Sources     []wireArgument
}

type wirePublish struct {
	Modules      [][]byte
	Dependencies []Address
}

type wireUpgrade struct {
	Modules      [][]byte
	Dependencies []Address
	Package      Address
	Ticket       wireArgument
}

type wireOptionTypeTag struct {
	None *Unit
	Some *TypeTag
}

func (wireOptionTypeTag) IsBcsEnum() {}

type wireMakeMoveVec struct {
	Type    wireOptionTypeTag
	Objects []wireArgument
}

type wireCommand struct {
	MoveCall        *wireMoveCall
	TransferObjects *wireTransferObjects
	SplitCoins      *wireSplitCoins
	MergeCoins      *wireMergeCoins
	Publish         *wirePublish
	Upgrade         *wireUpgrade
	MakeMoveVec     *wireMakeMoveVec
}

func (wireCommand) IsBcsEnum() {}

// gasData is a fully specified gas configuration.
type gasData struct {
	payment []ObjectRef
	owner   Address
	price   uint64
	budget  uint64
}

// encodeArgument converts an Argument to its wire form.
func encodeArgument(arg Argument) (wireArgument, error) {
	switch a := arg.(type) {
	case GasCoin:
		return wireArgument{GasCoin: &Unit{}}, nil
	case InputRef:
		idx := a.Index
		return wireArgument{Input: &idx}, nil
	case Result:
		idx := a.CommandIndex
		return wireArgument{Result: &idx}, nil
	case NestedResult:
		return wireArgument{NestedResult: &wireNestedResult{CommandIndex: a.CommandIndex, Slot: a.Slot}}, nil
	case nil:
		return wireArgument{}, fmt.Errorf("ptb: nil argument")
	default:
		return wireArgument{}, fmt.Errorf("ptb: unknown argument type %T", arg)
	}
}

func encodeArguments(args []Argument) ([]wireArgument, error) {
	out := make([]wireArgument, len(args))
	for i, a := range args {
		w, err := encodeArgument(a)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func encodeObjectRef(ref ObjectRef) (wireObjectRef, error) {
	id, err := ParseAddress(ref.ObjectID)
	if err != nil {
		return wireObjectRef{}, err
	}
	digest, err := ref.Digest.Bytes()
	if err != nil {
		return wireObjectRef{}, err
	}
	return wireObjectRef{ObjectID: id, Version: ref.Version, Digest: digest}, nil
}

// encodeInput converts a resolved input to its wire form.
func encodeInput(in *Input) (wireCallArg, error) {
	switch v := in.Value.(type) {
	case ResolvedPure:
		return wireCallArg{Pure: &wirePure{Bytes: v.Bytes}}, nil
	case ResolvedOwned:
		ref, err := encodeObjectRef(v.Ref)
		if err != nil {
			return wireCallArg{}, err
		}
		return wireCallArg{Owned: &ref}, nil
	case ResolvedShared:
		id, err := ParseAddress(v.ObjectID)
		if err != nil {
			return wireCallArg{}, err
		}
		return wireCallArg{Shared: &wireSharedObject{
			ObjectID:             id,
			InitialSharedVersion: v.InitialSharedVersion,
			Mutable:              v.Mutable,
		}}, nil
	}
	return wireCallArg{}, fmt.Errorf("%w: input %d (%T)", ErrUnresolvedInput, in.Index, in.Value)
}

func parseAddresses(ids []string) ([]Address, error) {
	out := make([]Address, len(ids))
	for i, id := range ids {
		addr, err := ParseAddress(id)
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}

// encodeCommand converts a command to its wire form.
func encodeCommand(cmd Command) (wireCommand, error) {
	switch c := cmd.(type) {
	case *MoveCall:
		pkg, err := ParseAddress(c.Package)
		if err != nil {
			return wireCommand{}, err
		}
		typeArgs := make([]TypeTag, len(c.TypeArguments))
		for i, s := range c.TypeArguments {
			if typeArgs[i], err = ParseTypeTag(s); err != nil {
				return wireCommand{}, err
			}
		}
		args, err := encodeArguments(c.Arguments)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{MoveCall: &wireMoveCall{
			Package:       pkg,
			Module:        c.Module,
			Function:      c.Function,
			TypeArguments: typeArgs,
			Arguments:     args,
		}}, nil

	case *TransferObjects:
		objs, err := encodeArguments(c.Objects)
		if err != nil {
			return wireCommand{}, err
		}
		addr, err := encodeArgument(c.Address)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{TransferObjects: &wireTransferObjects{Objects: objs, Address: addr}}, nil

	case *SplitCoins:
		coin, err := encodeArgument(c.Coin)
		if err != nil {
			return wireCommand{}, err
		}
		amounts, err := encodeArguments(c.Amounts)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{SplitCoins: &wireSplitCoins{Coin: coin, Amounts: amounts}}, nil

	case *MergeCoins:
		dest, err := encodeArgument(c.Destination)
		if err != nil {
			return wireCommand{}, err
		}
		sources, err := encodeArguments(c.Sources)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{MergeCoins: &wireMergeCoins{Destination: dest, Sources: sources}}, nil

	case *Publish:
		deps, err := parseAddresses(c.Dependencies)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{Publish: &wirePublish{Modules: c.Modules, Dependencies: deps}}, nil

	case *Upgrade:
		deps, err := parseAddresses(c.Dependencies)
		if err != nil {
			return wireCommand{}, err
		}
		pkg, err := ParseAddress(c.PackageID)
		if err != nil {
			return wireCommand{}, err
		}
		ticket, err := encodeArgument(c.Ticket)
		if err != nil {
			return wireCommand{}, err
		}
		return wireCommand{Upgrade: &wireUpgrade{Modules: c.Modules, Dependencies: deps, Package: pkg, Ticket: ticket}}, nil

	case *MakeMoveVec:
		objs, err := encodeArguments(c.Objects)
		if err != nil {
			return wireCommand{}, err
		}
		typ := wireOptionTypeTag{None: &Unit{}}
		if c.Type.IsSome() {
			tag, err := ParseTypeTag(c.Type.Unwrap())
			if err != nil {
				return wireCommand{}, err
			}
			typ = wireOptionTypeTag{Some: &tag}
		}
		return wireCommand{MakeMoveVec: &wireMakeMoveVec{Type: typ, Objects: objs}}, nil
	}
	return wireCommand{}, fmt.Errorf("ptb: unknown command type %T", cmd)
}

// transactionKind assembles the programmable transaction from the builder's
// inputs and commands. Every input must be resolved.
func (b *Builder) transactionKind() (wireTransactionKind, error) {
	pt := &wireProgrammableTransaction{
		Inputs:   make([]wireCallArg, 0, b.inputs.len()),
		Commands: make([]wireCommand, 0, len(b.commands)),
	}
	for _, in := range b.inputs.inputs {
		w, err := encodeInput(in)
		if err != nil {
			return wireTransactionKind{}, err
		}
		pt.Inputs = append(pt.Inputs, w)
	}
	for i, cmd := range b.commands {
		w, err := encodeCommand(cmd)
		if err != nil {
			return wireTransactionKind{}, &CommandError{CommandIndex: i, Kind: cmd.Kind(), Err: err}
		}
		pt.Commands = append(pt.Commands, w)
	}
	return wireTransactionKind{ProgrammableTransaction: pt}, nil
}

// marshalTransactionKind serializes only the transaction kind.
func (b *Builder) marshalTransactionKind() ([]byte, error) {
	kind, err := b.transactionKind()
	if err != nil {
		return nil, err
	}
	return bcs.Marshal(kind)
}

// marshalTransactionData serializes the full transaction data with the given gas.
func (b *Builder) marshalTransactionData(gas gasData) ([]byte, error) {
	if b.sender.IsNone() {
		return nil, ErrMissingSender
	}
	kind, err := b.transactionKind()
	if err != nil {
		return nil, err
	}

	payment := make([]wireObjectRef, len(gas.payment))
	for i, ref := range gas.payment {
		if payment[i], err = encodeObjectRef(ref); err != nil {
			return nil, err
		}
	}

	expiration := wireExpiration{None: &Unit{}}
	if b.expiration.IsSome() {
		epoch := b.expiration.Unwrap()
		expiration = wireExpiration{Epoch: &epoch}
	}

	data := wireTransactionData{V1: &wireTransactionDataV1{
		Kind:   kind,
		Sender: b.sender.Unwrap(),
		GasData: wireGasData{
			Payment: payment,
			Owner:   gas.owner,
			Price:   gas.price,
			Budget:  gas.budget,
		},
		Expiration: expiration,
	}}
	return bcs.Marshal(data)
}
