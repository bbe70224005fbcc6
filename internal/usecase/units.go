package usecase

import "strings"

// unitSynonyms maps raw unit spellings to one canonical token per family.
// Extraction output mixes PT-BR long forms, plurals and typos observed in
// real editais ("messes"), so the table is deliberately permissive.
var unitSynonyms = map[string]string{
	"v": "v", "volt": "v", "volts": "v", "vcc": "v", "vdc": "v",
	"kv": "kv", "kilovolt": "kv", "kilovolts": "kv",
	"a": "a", "amp": "a", "amps": "a", "ampere": "a", "amperes": "a",
	"ma": "ma", "miliampere": "ma", "miliamperes": "ma", "milliamp": "ma",
	"ah": "ah", "amperehora": "ah", "ampere-hora": "ah",
	"mah": "mah",
	"w": "w", "watt": "w", "watts": "w",
	"kw": "kw", "kilowatt": "kw", "kilowatts": "kw",
	"g": "g", "grama": "g", "gramas": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilo": "kg", "kilos": "kg", "quilograma": "kg", "quilogramas": "kg",
	"mb": "mb", "megabyte": "mb", "megabytes": "mb",
	"gb": "gb", "gigabyte": "gb", "gigabytes": "gb",
	"tb": "tb", "terabyte": "tb", "terabytes": "tb",
	"mbps": "mbps", "mbit/s": "mbps", "mb/s": "mbps",
	"gbps": "gbps", "gbit/s": "gbps", "gb/s": "gbps",
	"mm": "mm", "milimetro": "mm", "milimetros": "mm",
	"cm": "cm", "centimetro": "cm", "centimetros": "cm",
	"m": "m", "metro": "m", "metros": "m",
	"mes": "meses", "mês": "meses", "meses": "meses", "messes": "meses",
	"ano": "anos", "anos": "anos",
	"un": "un", "unidade": "un", "unidades": "un",
}

// NormalizeUnit lower-cases, strips whitespace and maps known synonyms to a
// canonical token. Unknown units pass through cleaned so equality comparison
// still works for families the table does not cover.
func NormalizeUnit(raw *string) *string {
	if raw == nil {
		return nil
	}
	cleaned := strings.ToLower(strings.TrimSpace(*raw))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil
	}
	if canonical, ok := unitSynonyms[cleaned]; ok {
		return &canonical
	}
	return &cleaned
}

// scale tables: value_in_base = value * factor[unit]. Conversion within a
// family is factor[from]/factor[to]; across families it is undefined.
var (
	// storage in MB (1024 multiplier, not SI)
	storageScale = map[string]float64{"mb": 1, "gb": 1024, "tb": 1024 * 1024}
	// length in mm
	lengthScale = map[string]float64{"mm": 1, "cm": 10, "m": 1000}
	// explicit pairwise factors for the remaining enumerated pairs
	pairFactors = map[[2]string]float64{
		{"kw", "w"}:     1000,
		{"w", "kw"}:     1.0 / 1000,
		{"kv", "v"}:     1000,
		{"v", "kv"}:     1.0 / 1000,
		{"ma", "a"}:     1.0 / 1000,
		{"a", "ma"}:     1000,
		{"mah", "ah"}:   1.0 / 1000,
		{"ah", "mah"}:   1000,
		{"gbps", "mbps"}: 1000,
		{"mbps", "gbps"}: 1.0 / 1000,
		{"g", "kg"}:     1.0 / 1000,
		{"kg", "g"}:     1000,
	}
)

// Convert converts value between two canonical units. Only explicitly
// enumerated pairs are supported; the second return is false when the units
// are unknown or incompatible, and callers must report the comparison as
// unclear rather than guess.
func Convert(value float64, fromUnit, toUnit string) (float64, bool) {
	from := strings.ToLower(strings.TrimSpace(fromUnit))
	to := strings.ToLower(strings.TrimSpace(toUnit))
	if from == "" || to == "" {
		return 0, false
	}
	if from == to {
		return value, true
	}
	if f, ok := pairFactors[[2]string{from, to}]; ok {
		return value * f, true
	}
	if ff, ok := storageScale[from]; ok {
		if tf, ok := storageScale[to]; ok {
			return value * ff / tf, true
		}
		return 0, false
	}
	if ff, ok := lengthScale[from]; ok {
		if tf, ok := lengthScale[to]; ok {
			return value * ff / tf, true
		}
		return 0, false
	}
	return 0, false
}
