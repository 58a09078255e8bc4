package ptb

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLength is the byte length of addresses and object ids.
const AddressLength = 32

// Address is a 32-byte account address or object id.
type Address [AddressLength]byte

// Well-known framework addresses.
var (
	MoveStdlibAddress   = MustParseAddress("0x1")
	SuiFrameworkAddress = MustParseAddress("0x2")
)

// SuiCoinType is the coin type used for gas payment.
const SuiCoinType = "0x2::sui::SUI"

// NormalizeAddress lower-cases an address, strips the 0x prefix and left-pads
// it with zeros to 64 hex characters. The result always carries a 0x prefix.
func NormalizeAddress(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if len(s) < AddressLength*2 {
		s = strings.Repeat("0", AddressLength*2-len(s)) + s
	}
	return "0x" + s
}

// IsValidAddress reports whether s is a well-formed, normalized or short-form address.
func IsValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// ParseAddress parses a hex address, accepting short forms such as "0x2".
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(trimmed) == 0 || len(trimmed) > AddressLength*2 {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	b, err := hexutil.Decode(NormalizeAddress(trimmed))
	if err != nil {
		return addr, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	copy(addr[:], b)
	return addr, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Hex returns the full 0x-prefixed, 64 character form.
func (a Address) Hex() string {
	return hexutil.Encode(a[:])
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	return append([]byte{}, a[:]...)
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// ShortHex returns the address without leading zeros, e.g. "0x2".
func (a Address) ShortHex() string {
	s := strings.TrimLeft(strings.TrimPrefix(a.Hex(), "0x"), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}
