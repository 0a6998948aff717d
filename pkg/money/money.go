package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatCents renders a minor-unit amount as a USD string, dropping the
// fractional part when whole: 1000 -> "$10", 1050 -> "$10.50".
func FormatCents(cents int) string {
	amount := decimal.NewFromInt(int64(cents)).Div(hundred)
	return formatUSD(amount)
}

// FormatUnits renders a whole-dollar amount: 5 -> "$5".
func FormatUnits(units int) string {
	return formatUSD(decimal.NewFromInt(int64(units)))
}

func formatUSD(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	var digits string
	if amount.IsInteger() {
		digits = amount.StringFixed(0)
	} else {
		digits = amount.StringFixed(2)
	}

	whole, frac, _ := strings.Cut(digits, ".")
	formatted := "$" + groupThousands(whole)
	if frac != "" {
		formatted += "." + frac
	}
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}

// FormatNumber renders an integer with thousands separators.
func FormatNumber(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	formatted := groupThousands(decimal.NewFromInt(n).StringFixed(0))
	if negative {
		formatted = "-" + formatted
	}
	return formatted
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
