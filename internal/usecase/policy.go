package usecase

import "strings"

// Hand-tuned policy tables. These encode observed extraction failure modes
// rather than algorithmic invariants and should be reviewed with a domain
// expert before being extended.

// spuriousZeroUnits are the unit families where a zero value is extraction
// noise, not data (charge, voltage, current, power, mass, duration).
var spuriousZeroUnits = map[string]bool{
	"v": true, "a": true, "w": true, "ah": true, "kg": true, "meses": true,
}

// batteryMarkers identify battery/no-break product categories from the
// product type and name.
var batteryMarkers = []string{"bateria", "no-break", "nobreak", "vrla", "agm"}

// batteryAllowedKeys is the allow-list applied to heuristic edital extraction
// when the product hint is battery-like. Editais frequently cover many
// unrelated line-items; keys outside this set are cross-contamination.
var batteryAllowedKeys = map[string]bool{
	"tensao_v":       true,
	"capacidade_ah":  true,
	"corrente_a":     true,
	"potencia_w":     true,
	"garantia_meses": true,
	"peso_kg":        true,
}

// batteryPrincipalKeys are the default key requirements for battery-like
// products when none are configured.
var batteryPrincipalKeys = []string{"tensao_v", "capacidade_ah"}

// IsBatteryHint reports whether the product hint names a battery-like
// category.
func IsBatteryHint(hint string) bool {
	h := strings.ToLower(hint)
	for _, marker := range batteryMarkers {
		if strings.Contains(h, marker) {
			return true
		}
	}
	return false
}
