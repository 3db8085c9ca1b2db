package money

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCents renders an integer cent amount as a currency string, for
// example 123456 -> "$1,234.56". All arithmetic stays on integers so there is
// no floating-point cent drift.
func FormatCents(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}

	dollars := amountCents / 100
	cents := amountCents % 100

	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(dollars), cents)
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
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
