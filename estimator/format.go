package estimator

import (
	"strconv"
	"strings"
)

// FormatARS renders an amount with "." as thousands separator and "," as
// decimal separator, two decimals: 1234567.8 → "$ 1.234.567,80".
func FormatARS(x float64) string {
	s := strconv.FormatFloat(x, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot+1:]
	}
	var b strings.Builder
	b.WriteString("$ ")
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
