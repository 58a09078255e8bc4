package ptb

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MoveType is a normalized Move parameter type. Exactly one field is set.
type MoveType struct {
	// Primitive is one of Bool, U8, U16, U32, U64, U128, U256, Address, Signer.
	Primitive        string
	Struct           *MoveStruct
	Vector           *MoveType
	TypeParameter    *uint16
	Reference        *MoveType
	MutableReference *MoveType
}

// MoveStruct is a normalized struct type.
type MoveStruct struct {
	Address       string     `json:"address"`
	Module        string     `json:"module"`
	Name          string     `json:"name"`
	TypeArguments []MoveType `json:"typeArguments"`
}

// MoveFunction is the normalized signature of a Move function.
type MoveFunction struct {
	Visibility     string            `json:"visibility"`
	IsEntry        bool              `json:"isEntry"`
	TypeParameters []json.RawMessage `json:"typeParameters"`
	Parameters     []MoveType        `json:"parameters"`
	Return         []MoveType        `json:"return"`
}

// HasTrailingTxContext reports whether the last parameter is the transaction
// context, which the runtime supplies and callers never pass.
func (f *MoveFunction) HasTrailingTxContext() bool {
	if len(f.Parameters) == 0 {
		return false
	}
	return f.Parameters[len(f.Parameters)-1].IsTxContext()
}

// CallerParameters returns the parameters a caller has to supply.
func (f *MoveFunction) CallerParameters() []MoveType {
	if f.HasTrailingTxContext() {
		return f.Parameters[:len(f.Parameters)-1]
	}
	return f.Parameters
}

var (
	txContextStruct = MoveStruct{Address: "0x2", Module: "tx_context", Name: "TxContext"}
	asciiString     = MoveStruct{Address: "0x1", Module: "ascii", Name: "String"}
	utf8String      = MoveStruct{Address: "0x1", Module: "string", Name: "String"}
	objectID        = MoveStruct{Address: "0x2", Module: "object", Name: "ID"}
	stdOption       = MoveStruct{Address: "0x1", Module: "option", Name: "Option"}
)

// is compares struct identity, ignoring type arguments.
func (s *MoveStruct) is(other MoveStruct) bool {
	return s != nil &&
		NormalizeAddress(s.Address) == NormalizeAddress(other.Address) &&
		s.Module == other.Module &&
		s.Name == other.Name
}

// StructTag returns the struct behind the type, looking through references.
func (t MoveType) StructTag() *MoveStruct {
	switch {
	case t.Struct != nil:
		return t.Struct
	case t.Reference != nil:
		return t.Reference.Struct
	case t.MutableReference != nil:
		return t.MutableReference.Struct
	}
	return nil
}

// IsObject reports whether a value of the type can be an object: a struct or a
// type parameter, either bare or behind a reference.
func (t MoveType) IsObject() bool {
	inner := t
	switch {
	case t.Reference != nil:
		inner = *t.Reference
	case t.MutableReference != nil:
		inner = *t.MutableReference
	}
	return inner.Struct != nil || inner.TypeParameter != nil
}

// IsTxContext reports whether the type is (a reference to) 0x2::tx_context::TxContext.
func (t MoveType) IsTxContext() bool {
	return t.StructTag().is(txContextStruct)
}

// IsReference reports an immutable reference.
func (t MoveType) IsReference() bool {
	return t.Reference != nil
}

// IsMutableReference reports a mutable reference.
func (t MoveType) IsMutableReference() bool {
	return t.MutableReference != nil
}

// IsTypeParameter reports a generic parameter.
func (t MoveType) IsTypeParameter() bool {
	return t.TypeParameter != nil
}

// String renders the type for error messages.
func (t MoveType) String() string {
	switch {
	case t.Primitive != "":
		return t.Primitive
	case t.Struct != nil:
		s := fmt.Sprintf("%s::%s::%s", t.Struct.Address, t.Struct.Module, t.Struct.Name)
		if len(t.Struct.TypeArguments) > 0 {
			s += "<"
			for i, a := range t.Struct.TypeArguments {
				if i > 0 {
					s += ", "
				}
				s += a.String()
			}
			s += ">"
		}
		return s
	case t.Vector != nil:
		return "vector<" + t.Vector.String() + ">"
	case t.TypeParameter != nil:
		return fmt.Sprintf("T%d", *t.TypeParameter)
	case t.Reference != nil:
		return "&" + t.Reference.String()
	case t.MutableReference != nil:
		return "&mut " + t.MutableReference.String()
	}
	return "<invalid>"
}

// UnmarshalJSON decodes either a bare primitive string or a single-key object.
func (t *MoveType) UnmarshalJSON(data []byte) error {
	var prim string
	if err := json.Unmarshal(data, &prim); err == nil {
		*t = MoveType{Primitive: prim}
		return nil
	}

	var obj struct {
		Struct           *MoveStruct `json:"Struct"`
		Vector           *MoveType   `json:"Vector"`
		TypeParameter    *uint16     `json:"TypeParameter"`
		Reference        *MoveType   `json:"Reference"`
		MutableReference *MoveType   `json:"MutableReference"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = MoveType{
		Struct:           obj.Struct,
		Vector:           obj.Vector,
		TypeParameter:    obj.TypeParameter,
		Reference:        obj.Reference,
		MutableReference: obj.MutableReference,
	}
	if t.Struct == nil && t.Vector == nil && t.TypeParameter == nil && t.Reference == nil && t.MutableReference == nil {
		return errors.New("ptb: empty normalized move type")
	}
	return nil
}

// MarshalJSON encodes the type in the provider's wire shape.
func (t MoveType) MarshalJSON() ([]byte, error) {
	switch {
	case t.Primitive != "":
		return json.Marshal(t.Primitive)
	case t.Struct != nil:
		return json.Marshal(map[string]any{"Struct": t.Struct})
	case t.Vector != nil:
		return json.Marshal(map[string]any{"Vector": t.Vector})
	case t.TypeParameter != nil:
		return json.Marshal(map[string]any{"TypeParameter": *t.TypeParameter})
	case t.Reference != nil:
		return json.Marshal(map[string]any{"Reference": t.Reference})
	case t.MutableReference != nil:
		return json.Marshal(map[string]any{"MutableReference": t.MutableReference})
	}
	return nil, errors.New("ptb: empty normalized move type")
}

// moveTypeFromTag converts a wire type tag into a normalized type, so pure
// encoding can be driven by a type string as well as a function signature.
func moveTypeFromTag(tag TypeTag) (MoveType, error) {
	switch {
	case tag.Bool != nil:
		return MoveType{Primitive: "Bool"}, nil
	case tag.U8 != nil:
		return MoveType{Primitive: "U8"}, nil
	case tag.U16 != nil:
		return MoveType{Primitive: "U16"}, nil
	case tag.U32 != nil:
		return MoveType{Primitive: "U32"}, nil
	case tag.U64 != nil:
		return MoveType{Primitive: "U64"}, nil
	case tag.U128 != nil:
		return MoveType{Primitive: "U128"}, nil
	case tag.U256 != nil:
		return MoveType{Primitive: "U256"}, nil
	case tag.Address != nil:
		return MoveType{Primitive: "Address"}, nil
	case tag.Signer != nil:
		return MoveType{Primitive: "Signer"}, nil
	case tag.Vector != nil:
		inner, err := moveTypeFromTag(*tag.Vector)
		if err != nil {
			return MoveType{}, err
		}
		return MoveType{Vector: &inner}, nil
	case tag.Struct != nil:
		args := make([]MoveType, len(tag.Struct.TypeParams))
		for i, p := range tag.Struct.TypeParams {
			a, err := moveTypeFromTag(p)
			if err != nil {
				return MoveType{}, err
			}
			args[i] = a
		}
		return MoveType{Struct: &MoveStruct{
			Address:       tag.Struct.Address.Hex(),
			Module:        tag.Struct.Module,
			Name:          tag.Struct.Name,
			TypeArguments: args,
		}}, nil
	}
	return MoveType{}, ErrInvalidTypeTag
}
