package recommend

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// formatUSD renders a decimal USD amount as "$1,234.56".
func formatUSD(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	out := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}

// formatCredits renders a credit count with thousands separators and at
// most two fraction digits, e.g. 500000 -> "500,000".
func formatCredits(value float64) string {
	fixed := strconv.FormatFloat(value, 'f', 2, 64)
	fixed = strings.TrimRight(fixed, "0")
	fixed = strings.TrimSuffix(fixed, ".")

	parts := strings.SplitN(fixed, ".", 2)
	out := groupThousands(parts[0])
	if len(parts) == 2 {
		out += "." + parts[1]
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
