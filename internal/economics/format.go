package economics

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a USD amount for display:
//   - 0 renders as "$0"
//   - |x| < 0.01 keeps 4 decimals, |x| < 1 keeps 2
//   - anything larger is floored to a whole number with thousands separators
//
// Floor applies to negatives too, so -1234.5 renders as "$-1,235".
func FormatCurrency(x float64) string {
	switch {
	case x == 0:
		return "$0"
	case math.IsNaN(x):
		return "$NaN"
	case math.IsInf(x, 1):
		return "$∞"
	case math.IsInf(x, -1):
		return "$-∞"
	case math.Abs(x) < 0.01:
		return "$" + fixed(x, 4)
	case math.Abs(x) < 1:
		return "$" + fixed(x, 2)
	}
	return "$" + groupThousands(decimal.NewFromFloat(math.Floor(x)).String())
}

// fixed rounds x to places decimals. A negative x keeps its sign even when
// it rounds to zero.
func fixed(x float64, places int32) string {
	s := exactDecimal(x).StringFixed(places)
	if x < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// exactDecimal converts x without first rounding to its shortest
// representation, so half-way cases round on the true binary value.
func exactDecimal(x float64) decimal.Decimal {
	s := new(big.Float).SetFloat64(x).Text('f', 1074)
	return decimal.RequireFromString(s)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
