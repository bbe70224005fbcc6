package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/licitamatch/backend/internal/domain"
)

// HeuristicExtractor is the deterministic regex fallback used when the LLM
// extractor is disabled, unreachable or returns unusable output. It emits the
// same canonical schema as the LLM path.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates the fallback extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// accentStripper folds "tensão mínima" to "tensao minima" so one pattern set
// covers accented and OCR-mangled spellings.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText accent-strips, lower-cases and collapses whitespace.
func NormalizeText(text string) string {
	stripped, _, err := transform.String(accentStripper, text)
	if err != nil {
		stripped = text
	}
	lowered := strings.ToLower(stripped)
	return strings.Join(strings.Fields(lowered), " ")
}

// specPattern describes one recognizable technical token. Matched values are
// converted to the family's canonical unit before emission.
type specPattern struct {
	key   string
	re    *regexp.Regexp
	units map[string]string // captured unit spelling -> canonical unit
	unit  string            // canonical unit emitted ("" for unitless counts)
}

var specPatterns = []specPattern{
	{
		key:   "tensao_v",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(kv|v)\b`),
		units: map[string]string{"kv": "kv", "v": "v"},
		unit:  "v",
	},
	{
		key:   "capacidade_ah",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(mah|ah)\b`),
		units: map[string]string{"mah": "mah", "ah": "ah"},
		unit:  "ah",
	},
	{
		key:   "corrente_a",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(ma|a)\b`),
		units: map[string]string{"ma": "ma", "a": "a"},
		unit:  "a",
	},
	{
		key:   "potencia_w",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(kw|w)\b`),
		units: map[string]string{"kw": "kw", "w": "w"},
		unit:  "w",
	},
	{
		key:   "peso_kg",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(kg)\b`),
		units: map[string]string{"kg": "kg"},
		unit:  "kg",
	},
	{
		key:   "garantia_meses",
		re:    regexp.MustCompile(`garantia\D{0,40}?(\d{1,3})\s*(meses|mes|anos|ano)\b`),
		units: map[string]string{"meses": "meses", "mes": "meses", "anos": "anos", "ano": "anos"},
		unit:  "meses",
	},
	{
		key:   "memoria_ram_gb",
		re:    regexp.MustCompile(`(?:memoria\s+)?ram\D{0,20}?(\d+(?:[.,]\d+)?)\s*(gb)\b|(\d+(?:[.,]\d+)?)\s*(gb)\s*(?:de\s*)?ram\b`),
		units: map[string]string{"gb": "gb"},
		unit:  "gb",
	},
	{
		key:   "armazenamento_gb",
		re:    regexp.MustCompile(`(?:armazenamento|ssd|hdd|hd|disco)\D{0,20}?(\d+(?:[.,]\d+)?)\s*(tb|gb)\b`),
		units: map[string]string{"tb": "tb", "gb": "gb"},
		unit:  "gb",
	},
	{
		key:   "velocidade_gbps",
		re:    regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(gbps|mbps)\b`),
		units: map[string]string{"gbps": "gbps", "mbps": "mbps"},
		unit:  "gbps",
	},
	{
		key:  "portas",
		re:   regexp.MustCompile(`(\d{1,2})\s*(portas|porta|ports|port)\b`),
		unit: "",
	},
	{
		key:  "grau_ip",
		re:   regexp.MustCompile(`\bip\s?(\d{2})\b`),
		unit: "",
	},
}

// minPhrasing and maxPhrasing are looked up in a short window before each
// match to decide bound direction for requirements.
var (
	minPhrasing = []string{"minim", "no minimo", "pelo menos", ">="}
	maxPhrasing = []string{"maxim", "no maximo", "ate ", "<="}
)

type boundKind int

const (
	boundExact boundKind = iota
	boundMinOnly
	boundMaxOnly
)

// boundKindAt inspects up to 40 characters preceding the match.
func boundKindAt(text string, start int) boundKind {
	windowStart := start - 40
	if windowStart < 0 {
		windowStart = 0
	}
	window := text[windowStart:start]
	for _, p := range maxPhrasing {
		if strings.Contains(window, p) {
			return boundMaxOnly
		}
	}
	for _, p := range minPhrasing {
		if strings.Contains(window, p) {
			return boundMinOnly
		}
	}
	return boundExact
}

// specMatch is one recognized token with its value already converted to the
// family's canonical unit.
type specMatch struct {
	key   string
	value float64
	unit  string
	kind  boundKind
}

// scan runs every pattern over the normalized text.
func (e *HeuristicExtractor) scan(text string) []specMatch {
	normalized := NormalizeText(text)
	var matches []specMatch

	for _, p := range specPatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(normalized, -1) {
			value, unit, valueStart, ok := extractValueUnit(normalized, p, idx)
			if !ok {
				continue
			}
			if p.unit != "" && unit != "" && unit != p.unit {
				converted, ok := convertHeuristic(value, unit, p.unit)
				if !ok {
					continue
				}
				value = converted
			}
			matches = append(matches, specMatch{
				key:   p.key,
				value: value,
				unit:  p.unit,
				// Lookback anchors on the number, not the match start, so
				// phrasing inside the match ("garantia minima de 12") still
				// sets the bound direction.
				kind: boundKindAt(normalized, valueStart),
			})
		}
	}

	if strings.Contains(NormalizeText(text), "poe") {
		matches = append(matches, specMatch{key: "poe", value: 1, kind: boundExact})
	}
	return matches
}

// extractValueUnit pulls the first non-empty (value, unit) capture pair from
// a submatch index set; patterns with alternation carry two pairs. Also
// returns the value's start offset for the bound-phrasing lookback.
func extractValueUnit(text string, p specPattern, idx []int) (float64, string, int, bool) {
	for g := 1; g*2+1 < len(idx); g++ {
		s, e := idx[g*2], idx[g*2+1]
		if s < 0 {
			continue
		}
		raw := text[s:e]
		if value, ok := ToFloat(raw); ok {
			unit := ""
			if p.units != nil && g*2+3 < len(idx) && idx[g*2+2] >= 0 {
				unit = p.units[text[idx[g*2+2]:idx[g*2+3]]]
			}
			return value, unit, s, true
		}
	}
	return 0, "", 0, false
}

// convertHeuristic extends Convert with the anos->meses step used only here.
func convertHeuristic(value float64, from, to string) (float64, bool) {
	if from == "anos" && to == "meses" {
		return value * 12, true
	}
	return Convert(value, from, to)
}

// ExtractRequirements regex-scans edital text and emits the requirement
// schema. Bare numeric+unit tokens become exact values (min == max);
// "mínimo"-style phrasing sets only the lower bound. Repeated matches for a
// key are merged keeping the most restrictive bound. When productHint names a
// battery-like category the result is filtered to the battery allow-list.
func (e *HeuristicExtractor) ExtractRequirements(text, productHint string) *domain.EditalDocument {
	reqs := make(map[string]domain.Requirement)

	for _, m := range e.scan(text) {
		var unit *string
		if m.unit != "" {
			unit = domain.StringPtr(m.unit)
		}
		if IsSpuriousZero(m.value, unit) {
			continue
		}
		next := domain.Requirement{Unit: unit}
		switch m.kind {
		case boundMinOnly:
			next.ValueMin = domain.Float64Ptr(m.value)
		case boundMaxOnly:
			next.ValueMax = domain.Float64Ptr(m.value)
		default:
			next.ValueMin = domain.Float64Ptr(m.value)
			next.ValueMax = domain.Float64Ptr(m.value)
		}
		if existing, ok := reqs[m.key]; ok {
			reqs[m.key] = MergeRequirements(existing, next)
		} else {
			reqs[m.key] = next
		}
	}

	if IsBatteryHint(productHint) {
		for k := range reqs {
			if !batteryAllowedKeys[k] {
				delete(reqs, k)
			}
		}
	}

	return domain.NewEditalDocument("", nil, reqs)
}

// ExtractAttributes regex-scans datasheet text and emits the attribute
// schema. The first occurrence wins per key; PoE presence becomes a numeric 1,
// mirroring the requirement side so both halves of the fallback compare.
func (e *HeuristicExtractor) ExtractAttributes(text string) *domain.ProductDocument {
	attrs := make(map[string]domain.Attribute)

	for _, m := range e.scan(text) {
		if _, ok := attrs[m.key]; ok {
			continue
		}
		var unit *string
		if m.unit != "" {
			unit = domain.StringPtr(m.unit)
		}
		if IsSpuriousZero(m.value, unit) {
			continue
		}
		attrs[m.key] = domain.Attribute{Value: m.value, Unit: unit}
	}

	var productType *string
	if IsBatteryHint(NormalizeText(text)) {
		productType = domain.StringPtr("bateria")
	}
	return domain.NewProductDocument(nil, productType, attrs)
}
