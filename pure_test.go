package ptb

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/moznion/go-optional"
)

func TestEncodePure(t *testing.T) {
	addr2 := strings.Repeat("00", 31) + "02"
	maxU128, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)

	tests := []struct {
		name string
		typ  string
		raw  any
		want string
	}{
		{"bool true", "bool", true, "01"},
		{"bool false", "bool", false, "00"},
		{"u8", "u8", uint8(255), "ff"},
		{"u8 from int", "u8", 7, "07"},
		{"u16", "u16", 0x0102, "0201"},
		{"u32", "u32", uint32(1), "01000000"},
		{"u64", "u64", uint64(1_000_000), "40420f0000000000"},
		{"u64 from decimal string", "u64", "1000000", "40420f0000000000"},
		{"u128 one", "u128", 1, "01" + strings.Repeat("00", 15)},
		{"u128 max", "u128", maxU128, strings.Repeat("ff", 16)},
		{"u256", "u256", uint256.NewInt(2), "02" + strings.Repeat("00", 31)},
		{"address short", "address", "0x2", addr2},
		{"address typed", "address", SuiFrameworkAddress, addr2},
		{"vector<u8> string", "vector<u8>", "abc", "03616263"},
		{"vector<u8> bytes", "vector<u8>", []byte{1, 2}, "020102"},
		{"vector<u64>", "vector<u64>", []uint64{1, 2}, "02" + "0100000000000000" + "0200000000000000"},
		{"vector<bool> empty", "vector<bool>", []bool{}, "00"},
		{"vector<vector<u8>>", "vector<vector<u8>>", []string{"a", "bc"}, "02" + "0161" + "026263"},
		{"utf8 string", "0x1::string::String", "hi", "026869"},
		{"ascii string", "0x1::ascii::String", "hi", "026869"},
		{"object id", "0x2::object::ID", "0x2", addr2},
		{"option none", "0x1::option::Option<u8>", nil, "00"},
		{"option some", "0x1::option::Option<u8>", 5, "0105"},
		{"option from slice", "0x1::option::Option<u64>", []uint64{9}, "01" + "0900000000000000"},
		{"option from go-optional", "0x1::option::Option<u8>", optional.Some[uint8](3), "0103"},
		{"option of vector", "0x1::option::Option<vector<u8>>", []byte{7}, "01" + "0107"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePure(tt.typ, tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("Expected %s, got %x", tt.want, got)
			}
		})
	}
}

func TestEncodePureErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		raw  any
		want error
	}{
		{"u8 overflow", "u8", 256, ErrInvalidPureValue},
		{"negative", "u64", -1, ErrInvalidPureValue},
		{"bool from string", "bool", "true", ErrInvalidPureValue},
		{"number from garbage", "u64", "12ab", ErrInvalidPureValue},
		{"bad address", "address", "0xzz", ErrInvalidPureValue},
		{"address from number", "address", 2, ErrInvalidPureValue},
		{"non-ascii", "0x1::ascii::String", "héllo", ErrInvalidPureValue},
		{"vector from scalar", "vector<u64>", uint64(1), ErrInvalidPureValue},
		{"option with two", "0x1::option::Option<u8>", []uint8{1, 2}, ErrInvalidPureValue},
		{"signer", "signer", nil, ErrUnknownCallArgType},
		{"object struct", "0x2::coin::Coin<0x2::sui::SUI>", "0x5", ErrUnknownCallArgType},
		{"bad type", "vector<", 1, ErrInvalidTypeTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodePure(tt.typ, tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodePureNotPure(t *testing.T) {
	tests := []struct {
		name string
		typ  MoveType
	}{
		{"struct", structType("0x2", "coin", "Coin")},
		{"reference", refType(structType("0x2", "clock", "Clock"))},
		{"type parameter", typeParam(0)},
		{"vector of structs", vectorType(structType("0x2", "coin", "Coin"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := encodePure(tt.typ, "0x5")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok {
				t.Error("Expected type not to be pure")
			}
		})
	}
}

func TestAppendULEB128(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		got := appendULEB128(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("appendULEB128(%d): expected %x, got %x", tt.v, tt.want, got)
		}
	}
}

func TestEncodePureLongVector(t *testing.T) {
	raw := bytes.Repeat([]byte{0xaa}, 200)
	got, err := EncodePure("vector<u8>", raw)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got[0] != 0xc8 || got[1] != 0x01 {
		t.Errorf("Expected ULEB128 prefix c801, got %x", got[:2])
	}
	if len(got) != 202 {
		t.Errorf("Expected 202 bytes, got %d", len(got))
	}
}
