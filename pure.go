package ptb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/fardream/go-bcs/bcs"
	"github.com/holiman/uint256"
)

// EncodePure serializes raw as the Move type named by typeString, e.g. "u64",
// "vector<address>" or "0x1::option::Option<u8>".
func EncodePure(typeString string, raw any) ([]byte, error) {
	tag, err := ParseTypeTag(typeString)
	if err != nil {
		return nil, err
	}
	t, err := moveTypeFromTag(tag)
	if err != nil {
		return nil, err
	}
	b, ok, err := encodePure(t, raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PureValueError{Type: typeString, Value: raw, Err: ErrUnknownCallArgType}
	}
	return b, nil
}

// encodePure serializes raw as t. ok is false when t is not a pure type at all,
// in which case the value has to be an object.
func encodePure(t MoveType, raw any) (b []byte, ok bool, err error) {
	pure, err := isPureType(t)
	if err != nil || !pure {
		return nil, false, err
	}
	b, err = appendPure(nil, t, raw)
	if err != nil {
		return nil, true, err
	}
	return b, true, nil
}

// isPureType reports whether values of t are passed as pure bytes.
func isPureType(t MoveType) (bool, error) {
	switch {
	case t.Primitive != "":
		switch t.Primitive {
		case "Bool", "U8", "U16", "U32", "U64", "U128", "U256", "Address":
			return true, nil
		}
		return false, fmt.Errorf("%w: unknown pure normalized type %q", ErrUnknownCallArgType, t.Primitive)
	case t.Vector != nil:
		return isPureType(*t.Vector)
	case t.Struct != nil:
		switch {
		case t.Struct.is(asciiString), t.Struct.is(utf8String), t.Struct.is(objectID):
			return true, nil
		case t.Struct.is(stdOption):
			if len(t.Struct.TypeArguments) != 1 {
				return false, nil
			}
			return isPureType(t.Struct.TypeArguments[0])
		}
	}
	return false, nil
}

func appendPure(buf []byte, t MoveType, raw any) ([]byte, error) {
	switch {
	case t.Primitive != "":
		return appendPrimitive(buf, t.Primitive, raw)
	case t.Vector != nil:
		return appendVector(buf, *t.Vector, raw)
	case t.Struct.is(asciiString):
		s, ok := raw.(string)
		if !ok {
			return nil, &PureValueError{Type: "0x1::ascii::String", Value: raw}
		}
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7f {
				return nil, &PureValueError{Type: "0x1::ascii::String", Value: raw, Err: errors.New("non-ascii character")}
			}
		}
		return appendMarshal(buf, s)
	case t.Struct.is(utf8String):
		s, ok := raw.(string)
		if !ok {
			return nil, &PureValueError{Type: "0x1::string::String", Value: raw}
		}
		return appendMarshal(buf, s)
	case t.Struct.is(objectID):
		return appendPrimitive(buf, "Address", raw)
	case t.Struct.is(stdOption):
		return appendOption(buf, t.Struct.TypeArguments[0], raw)
	}
	return nil, &PureValueError{Type: t.String(), Value: raw, Err: ErrUnknownCallArgType}
}

var uintBits = map[string]int{"U8": 8, "U16": 16, "U32": 32, "U64": 64, "U128": 128, "U256": 256}

func appendPrimitive(buf []byte, prim string, raw any) ([]byte, error) {
	switch prim {
	case "Bool":
		v, ok := raw.(bool)
		if !ok {
			return nil, &PureValueError{Type: "bool", Value: raw}
		}
		return appendMarshal(buf, v)
	case "Address":
		addr, err := toAddress(raw)
		if err != nil {
			return nil, &PureValueError{Type: "address", Value: raw, Err: err}
		}
		return append(buf, addr[:]...), nil
	}

	bits, ok := uintBits[prim]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCallArgType, prim)
	}
	typ := strings.ToLower(prim)
	n, err := toUint256(raw)
	if err != nil {
		return nil, &PureValueError{Type: typ, Value: raw, Err: err}
	}
	if n.BitLen() > bits {
		return nil, &PureValueError{Type: typ, Value: raw, Err: errors.New("value out of range")}
	}
	switch bits {
	case 8:
		return appendMarshal(buf, uint8(n.Uint64()))
	case 16:
		return appendMarshal(buf, uint16(n.Uint64()))
	case 32:
		return appendMarshal(buf, uint32(n.Uint64()))
	case 64:
		return appendMarshal(buf, n.Uint64())
	}
	// u128 and u256 are little-endian fixed width.
	be := n.Bytes32()
	width := bits / 8
	for i := 0; i < width; i++ {
		buf = append(buf, be[31-i])
	}
	return buf, nil
}

func appendVector(buf []byte, elem MoveType, raw any) ([]byte, error) {
	if elem.Primitive == "U8" {
		switch v := raw.(type) {
		case string:
			buf = appendULEB128(buf, uint64(len(v)))
			return append(buf, v...), nil
		case []byte:
			buf = appendULEB128(buf, uint64(len(v)))
			return append(buf, v...), nil
		}
	}

	rv := reflect.ValueOf(raw)
	if raw == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &PureValueError{Type: "vector<" + elem.String() + ">", Value: raw, Err: errors.New("expected a slice")}
	}
	buf = appendULEB128(buf, uint64(rv.Len()))
	for i := 0; i < rv.Len(); i++ {
		var err error
		buf, err = appendPure(buf, elem, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// appendOption encodes Option<T>, which is a vector of zero or one element.
// nil is None. A slice of at most one element is taken as the vector itself,
// unless T is itself a vector. Anything else is Some(raw).
func appendOption(buf []byte, inner MoveType, raw any) ([]byte, error) {
	if raw == nil {
		return append(buf, 0), nil
	}
	rv := reflect.ValueOf(raw)
	if inner.Vector == nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		if rv.Len() > 1 {
			return nil, &PureValueError{Type: "0x1::option::Option<" + inner.String() + ">", Value: raw, Err: errors.New("more than one element")}
		}
		return appendVector(buf, inner, raw)
	}
	buf = append(buf, 1)
	return appendPure(buf, inner, raw)
}

func appendMarshal(buf []byte, v any) ([]byte, error) {
	b, err := bcs.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

// appendULEB128 appends v as an unsigned LEB128 varint, the BCS length prefix.
func appendULEB128(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func toAddress(raw any) (Address, error) {
	switch v := raw.(type) {
	case Address:
		return v, nil
	case *Address:
		if v == nil {
			return Address{}, ErrInvalidAddress
		}
		return *v, nil
	case string:
		return ParseAddress(v)
	}
	return Address{}, fmt.Errorf("%w: expected a string, got %T", ErrInvalidAddress, raw)
}

func toUint256(raw any) (*uint256.Int, error) {
	switch v := raw.(type) {
	case uint8:
		return uint256.NewInt(uint64(v)), nil
	case uint16:
		return uint256.NewInt(uint64(v)), nil
	case uint32:
		return uint256.NewInt(uint64(v)), nil
	case uint64:
		return uint256.NewInt(v), nil
	case uint:
		return uint256.NewInt(uint64(v)), nil
	case int, int8, int16, int32, int64:
		i := reflect.ValueOf(v).Int()
		if i < 0 {
			return nil, errors.New("negative value")
		}
		return uint256.NewInt(uint64(i)), nil
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return nil, errors.New("nil or negative value")
		}
		n, overflow := uint256.FromBig(v)
		if overflow {
			return nil, errors.New("value out of range")
		}
		return n, nil
	case *uint256.Int:
		if v == nil {
			return nil, errors.New("nil value")
		}
		return new(uint256.Int).Set(v), nil
	case json.Number:
		return uint256.FromDecimal(v.String())
	case string:
		return uint256.FromDecimal(v)
	}
	return nil, fmt.Errorf("expected a number, got %T", raw)
}
