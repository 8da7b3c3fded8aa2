package cbor

import (
	"math/big"
	"strconv"
	"strings"
)

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func formatFloat64Shortest(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// bigDecimalFromFloatText parses a plain decimal string (no exponent, as
// produced by formatFloat64Shortest) into unscaled/scale form.
func bigDecimalFromFloatText(s string) BigDecimal {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var scale int
	if i := strings.IndexByte(s, '.'); i >= 0 {
		scale = len(s) - i - 1
		s = s[:i] + s[i+1:]
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	unscaled := new(big.Int)
	unscaled.SetString(s, 10)
	if neg {
		unscaled.Neg(unscaled)
	}
	return BigDecimal{Unscaled: unscaled, Scale: int32(scale)}
}
