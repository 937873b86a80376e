package narrative

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders an amount as "$12,345.68" with the given number of decimals.
func Money(amount float64, places int32) string {
	d := decimal.NewFromFloat(amount).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "$" + groupThousands(d.StringFixed(places))
}

// Percent renders a fraction as a percentage, e.g. 0.053 -> "5.3%".
func Percent(fraction float64, places int32) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(places) + "%"
}

// Multiple renders a ratio as "3.1x".
func Multiple(ratio float64) string {
	return decimal.NewFromFloat(ratio).StringFixed(1) + "x"
}

func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return s
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	return sb.String()
}

func bullet(sb *strings.Builder, format string, args ...any) {
	sb.WriteString("• ")
	sb.WriteString(fmt.Sprintf(format, args...))
	sb.WriteString("\n")
}
