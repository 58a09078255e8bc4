package ptb

import (
	"fmt"
	"math"
)

// InputKind says whether an input carries a pure value or an object.
type InputKind uint8

const (
	// InputKindPure is a byte-encoded value with no on-chain identity.
	InputKindPure InputKind = iota

	// InputKindObject is a reference to on-chain state.
	InputKindObject
)

func (k InputKind) String() string {
	if k == InputKindObject {
		return "object"
	}
	return "pure"
}

// ObjectRef pins an owned or immutable object to a version and digest.
type ObjectRef struct {
	ObjectID string       `json:"objectId"`
	Version  uint64       `json:"version"`
	Digest   ObjectDigest `json:"digest"`
}

// InputValue is the resolution state of an input.
// This is a sealed interface - only types within this package can implement it.
type InputValue interface {
	isInputValue()

	// Resolved returns true once the value is ready for serialization.
	Resolved() bool
}

// Unresolved holds a caller-supplied value not yet classified against chain state.
type Unresolved struct {
	Raw any
}

func (Unresolved) isInputValue() {}

// Resolved returns false.
func (Unresolved) Resolved() bool { return false }

// ResolvedPure holds BCS bytes of a pure value.
type ResolvedPure struct {
	Bytes []byte
}

func (ResolvedPure) isInputValue() {}

// Resolved returns true.
func (ResolvedPure) Resolved() bool { return true }

// ResolvedOwned is an owned or immutable object reference.
type ResolvedOwned struct {
	Ref ObjectRef
}

func (ResolvedOwned) isInputValue() {}

// Resolved returns true.
func (ResolvedOwned) Resolved() bool { return true }

// ResolvedShared is a shared object, resolved against its initial shared version.
type ResolvedShared struct {
	ObjectID             string
	InitialSharedVersion uint64
	Mutable              bool
}

func (ResolvedShared) isInputValue() {}

// Resolved returns true.
func (ResolvedShared) Resolved() bool { return true }

// Input is one caller-supplied value. Index is assigned at insertion and never reused.
type Input struct {
	Index uint16
	Kind  InputKind
	Value InputValue
}

func (in *Input) String() string {
	return fmt.Sprintf("Input(%d, %s, %T)", in.Index, in.Kind, in.Value)
}

// objectID returns the normalized object id an object input refers to, if known.
func (in *Input) objectID() (string, bool) {
	if in.Kind != InputKindObject {
		return "", false
	}
	switch v := in.Value.(type) {
	case Unresolved:
		if s, ok := v.Raw.(string); ok {
			return NormalizeAddress(s), true
		}
	case ResolvedOwned:
		return NormalizeAddress(v.Ref.ObjectID), true
	case ResolvedShared:
		return NormalizeAddress(v.ObjectID), true
	}
	return "", false
}

// inputTable is the append-only list of inputs, with object id deduplication.
type inputTable struct {
	inputs      []*Input
	objectSlots map[string]uint16 // normalized object id -> input index

	// rejected counts inputs refused because the table was full.
	rejected int
}

func newInputTable() *inputTable {
	return &inputTable{
		inputs:      make([]*Input, 0, 8),
		objectSlots: make(map[string]uint16),
	}
}

// add appends a new input. It never deduplicates. Once every u16 index is
// taken the input is dropped and counted; the returned reference is a
// placeholder and Prepare fails with ErrTooManyInputs.
func (t *inputTable) add(kind InputKind, value InputValue) InputRef {
	if len(t.inputs) > math.MaxUint16 {
		t.rejected++
		return InputRef{Index: math.MaxUint16}
	}
	idx := uint16(len(t.inputs))
	in := &Input{Index: idx, Kind: kind, Value: value}
	t.inputs = append(t.inputs, in)
	if id, ok := in.objectID(); ok {
		if _, exists := t.objectSlots[id]; !exists {
			t.objectSlots[id] = idx
		}
	}
	return InputRef{Index: idx}
}

// addObject returns the existing input for id, or appends a new one.
func (t *inputTable) addObject(id string, value InputValue) InputRef {
	if idx, exists := t.objectSlots[NormalizeAddress(id)]; exists {
		return InputRef{Index: idx}
	}
	return t.add(InputKindObject, value)
}

func (t *inputTable) at(i int) *Input {
	if i < 0 || i >= len(t.inputs) {
		return nil
	}
	return t.inputs[i]
}

func (t *inputTable) len() int {
	return len(t.inputs)
}

func (t *inputTable) checkCapacity() error {
	if t.rejected > 0 {
		return fmt.Errorf("%w: %d over the limit of %d", ErrTooManyInputs, t.rejected, math.MaxUint16+1)
	}
	return nil
}
