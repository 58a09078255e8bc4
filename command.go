package ptb

import (
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
)

// CommandKind identifies a Command variant. Values are wire discriminants.
type CommandKind uint8

const (
	// CommandMoveCall calls a Move function.
	CommandMoveCall CommandKind = iota

	// CommandTransferObjects sends objects to an address.
	CommandTransferObjects

	// CommandSplitCoins splits amounts off a coin.
	CommandSplitCoins

	// CommandMergeCoins merges coins into a destination coin.
	CommandMergeCoins

	// CommandPublish publishes a new package.
	CommandPublish

	// CommandUpgrade upgrades an existing package.
	CommandUpgrade

	// CommandMakeMoveVec builds a Move vector from arguments.
	CommandMakeMoveVec
)

func (k CommandKind) String() string {
	switch k {
	case CommandMoveCall:
		return "MoveCall"
	case CommandTransferObjects:
		return "TransferObjects"
	case CommandSplitCoins:
		return "SplitCoins"
	case CommandMergeCoins:
		return "MergeCoins"
	case CommandPublish:
		return "Publish"
	case CommandUpgrade:
		return "Upgrade"
	case CommandMakeMoveVec:
		return "MakeMoveVec"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// Command is one operation in a transaction block.
// This is a sealed interface - only types within this package can implement it.
type Command interface {
	isCommand()

	// Kind returns the variant.
	Kind() CommandKind
}

// MoveCall calls Package::Module::Function with type arguments and arguments.
type MoveCall struct {
	Package       string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []Argument
}

func (*MoveCall) isCommand() {}

// Kind returns CommandMoveCall.
func (*MoveCall) Kind() CommandKind { return CommandMoveCall }

// Target returns "package::module::function".
func (c *MoveCall) Target() string {
	return c.Package + "::" + c.Module + "::" + c.Function
}

// TransferObjects sends Objects to the address held by Address.
type TransferObjects struct {
	Objects []Argument
	Address Argument
}

func (*TransferObjects) isCommand() {}

// Kind returns CommandTransferObjects.
func (*TransferObjects) Kind() CommandKind { return CommandTransferObjects }

// SplitCoins splits Amounts off Coin, yielding one new coin per amount.
type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

func (*SplitCoins) isCommand() {}

// Kind returns CommandSplitCoins.
func (*SplitCoins) Kind() CommandKind { return CommandSplitCoins }

// MergeCoins merges Sources into Destination.
type MergeCoins struct {
	Destination Argument
	Sources     []Argument
}

func (*MergeCoins) isCommand() {}

// Kind returns CommandMergeCoins.
func (*MergeCoins) Kind() CommandKind { return CommandMergeCoins }

// Publish publishes compiled Modules that depend on the Dependencies package ids.
type Publish struct {
	Modules      [][]byte
	Dependencies []string
}

func (*Publish) isCommand() {}

// Kind returns CommandPublish.
func (*Publish) Kind() CommandKind { return CommandPublish }

// Upgrade upgrades PackageID, authorized by Ticket.
type Upgrade struct {
	Modules      [][]byte
	Dependencies []string
	PackageID    string
	Ticket       Argument
}

func (*Upgrade) isCommand() {}

// Kind returns CommandUpgrade.
func (*Upgrade) Kind() CommandKind { return CommandUpgrade }

// MakeMoveVec builds a vector from Objects. Type is required when Objects is empty.
type MakeMoveVec struct {
	Type    optional.Option[string]
	Objects []Argument
}

func (*MakeMoveVec) isCommand() {}

// Kind returns CommandMakeMoveVec.
func (*MakeMoveVec) Kind() CommandKind { return CommandMakeMoveVec }

// ParseTarget splits a Move call target of the form package::module::function.
func ParseTarget(target string) (pkg, module, function string, err error) {
	parts := strings.Split(target, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if !IsValidAddress(parts[0]) {
		return "", "", "", fmt.Errorf("%w: %q: bad package id", ErrInvalidTarget, target)
	}
	return NormalizeAddress(parts[0]), parts[1], parts[2], nil
}

// commandArguments lists every Argument a command references, in field order.
func commandArguments(cmd Command) []Argument {
	switch c := cmd.(type) {
	case *MoveCall:
		return c.Arguments
	case *TransferObjects:
		return append(append([]Argument{}, c.Objects...), c.Address)
	case *SplitCoins:
		return append([]Argument{c.Coin}, c.Amounts...)
	case *MergeCoins:
		return append([]Argument{c.Destination}, c.Sources...)
	case *Upgrade:
		return []Argument{c.Ticket}
	case *MakeMoveVec:
		return c.Objects
	}
	return nil
}
