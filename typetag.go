package ptb

import (
	"fmt"
	"strings"
)

// Unit is the payload of enum variants that carry no data.
type Unit struct{}

// TypeTag is a Move type as it appears on the wire. Exactly one field is set.
// Field order is the BCS variant order.
type TypeTag struct {
	Bool    *Unit
	U8      *Unit
	U64     *Unit
	U128    *Unit
	Address *Unit
	Signer  *Unit
	Vector  *TypeTag
	Struct  *StructTag
	U16     *Unit
	U32     *Unit
	U256    *Unit
}

// IsBcsEnum marks TypeTag as a BCS enum.
func (TypeTag) IsBcsEnum() {}

// StructTag names a Move struct type and its type arguments.
type StructTag struct {
	Address    Address
	Module     string
	Name       string
	TypeParams []TypeTag
}

var primitiveTags = map[string]func() TypeTag{
	"bool":    func() TypeTag { return TypeTag{Bool: &Unit{}} },
	"u8":      func() TypeTag { return TypeTag{U8: &Unit{}} },
	"u16":     func() TypeTag { return TypeTag{U16: &Unit{}} },
	"u32":     func() TypeTag { return TypeTag{U32: &Unit{}} },
	"u64":     func() TypeTag { return TypeTag{U64: &Unit{}} },
	"u128":    func() TypeTag { return TypeTag{U128: &Unit{}} },
	"u256":    func() TypeTag { return TypeTag{U256: &Unit{}} },
	"address": func() TypeTag { return TypeTag{Address: &Unit{}} },
	"signer":  func() TypeTag { return TypeTag{Signer: &Unit{}} },
}

// ParseTypeTag parses a Move type string such as "u64", "vector<address>" or
// "0x2::coin::Coin<0x2::sui::SUI>".
func ParseTypeTag(s string) (TypeTag, error) {
	p := &typeParser{src: s}
	tag, err := p.parseType()
	if err != nil {
		return TypeTag{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeTag{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidTypeTag, p.src[p.pos:], s)
	}
	return tag, nil
}

// MustParseTypeTag is like ParseTypeTag but panics on error.
func MustParseTypeTag(s string) TypeTag {
	tag, err := ParseTypeTag(s)
	if err != nil {
		panic(err)
	}
	return tag
}

// ParseStructTag parses a struct type string.
func ParseStructTag(s string) (StructTag, error) {
	tag, err := ParseTypeTag(s)
	if err != nil {
		return StructTag{}, err
	}
	if tag.Struct == nil {
		return StructTag{}, fmt.Errorf("%w: %q is not a struct type", ErrInvalidTypeTag, s)
	}
	return *tag.Struct, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("%w: expected %q at offset %d in %q", ErrInvalidTypeTag, c, p.pos, p.src)
	}
	p.pos++
	return nil
}

// readName consumes everything up to the next delimiter.
func (p *typeParser) readName() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '<' || c == '>' || c == ',' || c == ' ' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseType() (TypeTag, error) {
	name := p.readName()
	if name == "" {
		return TypeTag{}, fmt.Errorf("%w: empty type in %q", ErrInvalidTypeTag, p.src)
	}

	if mk, ok := primitiveTags[name]; ok {
		return mk(), nil
	}

	if name == "vector" {
		if err := p.expect('<'); err != nil {
			return TypeTag{}, err
		}
		inner, err := p.parseType()
		if err != nil {
			return TypeTag{}, err
		}
		if err := p.expect('>'); err != nil {
			return TypeTag{}, err
		}
		return TypeTag{Vector: &inner}, nil
	}

	parts := strings.Split(name, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return TypeTag{}, fmt.Errorf("%w: %q", ErrInvalidTypeTag, name)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return TypeTag{}, fmt.Errorf("%w: %q: %v", ErrInvalidTypeTag, name, err)
	}
	st := &StructTag{Address: addr, Module: parts[1], Name: parts[2], TypeParams: []TypeTag{}}

	if p.peek() == '<' {
		p.pos++
		for {
			param, err := p.parseType()
			if err != nil {
				return TypeTag{}, err
			}
			st.TypeParams = append(st.TypeParams, param)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			if err := p.expect('>'); err != nil {
				return TypeTag{}, err
			}
			break
		}
	}
	return TypeTag{Struct: st}, nil
}

// String renders the tag in canonical form with full-length addresses.
func (t TypeTag) String() string {
	switch {
	case t.Bool != nil:
		return "bool"
	case t.U8 != nil:
		return "u8"
	case t.U16 != nil:
		return "u16"
	case t.U32 != nil:
		return "u32"
	case t.U64 != nil:
		return "u64"
	case t.U128 != nil:
		return "u128"
	case t.U256 != nil:
		return "u256"
	case t.Address != nil:
		return "address"
	case t.Signer != nil:
		return "signer"
	case t.Vector != nil:
		return "vector<" + t.Vector.String() + ">"
	case t.Struct != nil:
		return t.Struct.String()
	default:
		return "<invalid>"
	}
}

// String renders the struct tag in canonical form.
func (s StructTag) String() string {
	var b strings.Builder
	b.WriteString(s.Address.Hex())
	b.WriteString("::")
	b.WriteString(s.Module)
	b.WriteString("::")
	b.WriteString(s.Name)
	if len(s.TypeParams) > 0 {
		b.WriteByte('<')
		for i, tp := range s.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(tp.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}
