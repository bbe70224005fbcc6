package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// spuriousZeroEpsilon bounds what counts as "exactly zero" for the purposes
// of extraction-noise classification.
const spuriousZeroEpsilon = 1e-12

// ToFloat parses the heterogeneous value shapes that flow out of LLM and
// heuristic extraction: native numbers, "1234.56", PT-BR "1.234,56" and
// "12,5". Booleans never coerce. Returns false on any parse failure, never
// panics.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case bool:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseNumericString(n)
	default:
		return 0, false
	}
}

// parseNumericString disambiguates decimal separators: when both '.' and ','
// appear, '.' is the thousands separator and ',' the decimal; a lone ','
// is a decimal comma.
func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsSpuriousZero reports whether value is a zero-valued extraction artifact:
// exactly zero and carrying one of the noise-prone units. A real rating of
// 0 V or 0 Ah does not occur in this domain, so such values must never
// overwrite a previously extracted real value during cache merges.
func IsSpuriousZero(value float64, unit *string) bool {
	if math.Abs(value) > spuriousZeroEpsilon {
		return false
	}
	canon := NormalizeUnit(unit)
	if canon == nil {
		return false
	}
	return spuriousZeroUnits[*canon]
}

// IsSpuriousZeroValue applies IsSpuriousZero to an uncoerced value. Values
// that do not coerce to a number are never spurious zeros.
func IsSpuriousZeroValue(v any, unit *string) bool {
	f, ok := ToFloat(v)
	if !ok {
		return false
	}
	return IsSpuriousZero(f, unit)
}
