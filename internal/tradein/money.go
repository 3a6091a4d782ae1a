// internal/tradein/money.go
package tradein

import "strconv"

// FormatCOP renders pesos with dot thousands separators, e.g. $1.234.567.
func FormatCOP(amount int64) string {
	sign := ""
	magnitude := uint64(amount)
	if amount < 0 {
		sign = "-"
		// exact for math.MinInt64 too
		magnitude = -magnitude
	}
	digits := strconv.FormatUint(magnitude, 10)

	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}
