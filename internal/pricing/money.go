package pricing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseAmount coerces a raw price value into a float64. Prices arrive
// off the wire either as numbers or as formatted currency strings
// ("Rp 12.500", "$8.00"); every rune that is not a digit, a minus sign
// or a decimal point is dropped before parsing. Returns false when the
// value cannot be coerced; callers degrade to "no discount" rather than
// failing on malformed price data.
func ParseAmount(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		return parseAmountString(v)
	default:
		return 0, false
	}
}

func parseAmountString(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
