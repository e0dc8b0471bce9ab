package ledger

import (
	"fmt"
	"math/big"
	"strings"
)

// AmountDecimals is the number of base-unit decimals in one whole coin.
const AmountDecimals = 18

// ParseAmount converts a decimal string in whole-coin units (the format
// stored on content records, e.g. "0.05") into base units. At most
// AmountDecimals fractional digits are accepted; negative amounts and
// amounts whose base-unit value does not fit a uint256 are rejected.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative: %q", ErrInvalidAmount, s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > AmountDecimals {
		return nil, fmt.Errorf("%w: more than %d fractional digits: %q", ErrInvalidAmount, AmountDecimals, s)
	}
	// Right-pad the fraction to full precision: "05" -> "050000000000000000".
	frac += strings.Repeat("0", AmountDecimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if v.BitLen() > 8*wordLen {
		return nil, fmt.Errorf("%w: exceeds uint256: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// FormatAmount renders base units as a decimal whole-coin string with
// trailing zeros trimmed, the inverse of ParseAmount.
func FormatAmount(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0"
	}
	s := v.String()
	if len(s) <= AmountDecimals {
		s = strings.Repeat("0", AmountDecimals-len(s)+1) + s
	}
	cut := len(s) - AmountDecimals
	whole, frac := s[:cut], strings.TrimRight(s[cut:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
