package ptb

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MistPerSUI is the number of MIST in one SUI.
const MistPerSUI = 1_000_000_000

var mistPerSUI = decimal.NewFromInt(MistPerSUI)

// ParseSUI converts a decimal SUI amount such as "1.5" to MIST.
func ParseSUI(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ptb: invalid SUI amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("ptb: negative SUI amount %q", s)
	}
	mist := d.Mul(mistPerSUI)
	if !mist.Equal(mist.Truncate(0)) {
		return 0, fmt.Errorf("ptb: SUI amount %q is finer than one MIST", s)
	}
	bi := mist.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("ptb: SUI amount %q overflows u64 MIST", s)
	}
	return bi.Uint64(), nil
}

// FormatMIST renders a MIST amount in SUI, without trailing zeros.
func FormatMIST(mist uint64) string {
	return decimal.NewFromUint64(mist).Div(mistPerSUI).String()
}
