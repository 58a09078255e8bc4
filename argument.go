package ptb

import "fmt"

// ArgumentKind identifies an Argument variant. Values are wire discriminants.
type ArgumentKind uint8

const (
	// ArgumentGasCoin is the coin paying for gas.
	ArgumentGasCoin ArgumentKind = iota

	// ArgumentInput refers to an input slot.
	ArgumentInput

	// ArgumentResult refers to the whole result of a command.
	ArgumentResult

	// ArgumentNestedResult refers to one value of a multi-value command result.
	ArgumentNestedResult
)

func (k ArgumentKind) String() string {
	switch k {
	case ArgumentGasCoin:
		return "GasCoin"
	case ArgumentInput:
		return "Input"
	case ArgumentResult:
		return "Result"
	case ArgumentNestedResult:
		return "NestedResult"
	default:
		return fmt.Sprintf("ArgumentKind(%d)", uint8(k))
	}
}

// Argument is a reference used as a command operand.
// This is a sealed interface - only types within this package can implement it.
type Argument interface {
	// isArgument is unexported to seal the interface.
	isArgument()

	// Kind returns the variant.
	Kind() ArgumentKind
}

// GasCoin refers to the transaction's gas coin.
type GasCoin struct{}

func (GasCoin) isArgument() {}

// Kind returns ArgumentGasCoin.
func (GasCoin) Kind() ArgumentKind { return ArgumentGasCoin }

// InputRef refers to an input slot by index.
type InputRef struct {
	Index uint16
}

func (InputRef) isArgument() {}

// Kind returns ArgumentInput.
func (InputRef) Kind() ArgumentKind { return ArgumentInput }

// Result refers to the full output of the command at CommandIndex.
type Result struct {
	CommandIndex uint16
}

func (Result) isArgument() {}

// Kind returns ArgumentResult.
func (Result) Kind() ArgumentKind { return ArgumentResult }

// NestedResult refers to output Slot of the command at CommandIndex.
type NestedResult struct {
	CommandIndex uint16
	Slot         uint16
}

func (NestedResult) isArgument() {}

// Kind returns ArgumentNestedResult.
func (NestedResult) Kind() ArgumentKind { return ArgumentNestedResult }

// inputIndex returns the referenced input index, if arg is an InputRef.
func inputIndex(arg Argument) (int, bool) {
	ref, ok := arg.(InputRef)
	if !ok {
		return 0, false
	}
	return int(ref.Index), true
}
