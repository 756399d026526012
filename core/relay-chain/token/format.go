package token

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatUnits renders amount base units as a grouped decimal, e.g.
// "1,000,000.5 WORM".
func FormatUnits(amount *big.Int, decimals uint8, symbol string) string {
	if amount == nil {
		amount = new(big.Int)
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	out := humanize.BigComma(whole)
	if frac.Sign() > 0 {
		digits := frac.String()
		digits = strings.Repeat("0", int(decimals)-len(digits)) + digits
		out += "." + strings.TrimRight(digits, "0")
	}
	if neg {
		out = "-" + out
	}
	if symbol != "" {
		out += " " + symbol
	}
	return out
}

// Format renders amount in this token's units.
func (t *Token) Format(amount *big.Int) string {
	return FormatUnits(amount, t.Decimals, t.Symbol)
}
