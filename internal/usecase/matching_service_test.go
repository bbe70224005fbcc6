package usecase

import (
	"testing"

	"github.com/licitamatch/backend/internal/domain"
)

func batteryProduct(voltage any, voltageUnit string) *domain.ProductDocument {
	attrs := map[string]domain.Attribute{}
	if voltage != nil {
		attrs["tensao_v"] = domain.Attribute{Value: voltage, Unit: domain.StringPtr(voltageUnit)}
	}
	return domain.NewProductDocument(domain.StringPtr("Bateria XYZ"), domain.StringPtr("bateria"), attrs)
}

func voltageEdital(min, max *float64, mandatory *bool) *domain.EditalDocument {
	return domain.NewEditalDocument("Item 1", domain.StringPtr("bateria"), map[string]domain.Requirement{
		"tensao_v": {ValueMin: min, ValueMax: max, Unit: domain.StringPtr("V"), Mandatory: mandatory},
	})
}

func TestCompareExactMatch(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{})
	product := batteryProduct(12.0, "V")
	edital := voltageEdital(domain.Float64Ptr(12), domain.Float64Ptr(12), nil)

	result := matcher.Compare(product, edital)
	if result["tensao_v"] != domain.VerdictMeets {
		t.Errorf("exact 12V against [12,12] = %s, want %s", result["tensao_v"], domain.VerdictMeets)
	}
}

func TestCompareTolerance(t *testing.T) {
	product := batteryProduct(11.5, "V")
	edital := voltageEdital(domain.Float64Ptr(12), nil, nil)

	t.Run("zero tolerance fails", func(t *testing.T) {
		matcher := NewMatchingService(MatchConfig{})
		result := matcher.Compare(product, edital)
		if result["tensao_v"] != domain.VerdictFails {
			t.Errorf("11.5 vs min 12 tol 0 = %s, want %s", result["tensao_v"], domain.VerdictFails)
		}
	})

	t.Run("five percent passes", func(t *testing.T) {
		matcher := NewMatchingService(MatchConfig{TolerancePercent: 5})
		result := matcher.Compare(product, edital)
		if result["tensao_v"] != domain.VerdictMeets {
			t.Errorf("11.5 vs min 12 tol 5%% = %s, want %s", result["tensao_v"], domain.VerdictMeets)
		}
	})

	t.Run("fractional form equals percent form", func(t *testing.T) {
		asFraction := NewMatchingService(MatchConfig{TolerancePercent: 0.05})
		asPercent := NewMatchingService(MatchConfig{TolerancePercent: 5})
		if asFraction.Compare(product, edital)["tensao_v"] != asPercent.Compare(product, edital)["tensao_v"] {
			t.Error("0.05 and 5 should mean the same tolerance")
		}
	})

	t.Run("per key override wins", func(t *testing.T) {
		matcher := NewMatchingService(MatchConfig{
			TolerancePercent:   0,
			ToleranceOverrides: map[string]float64{"tensao_v": 5},
		})
		result := matcher.Compare(product, edital)
		if result["tensao_v"] != domain.VerdictMeets {
			t.Errorf("override 5%% on tensao_v = %s, want %s", result["tensao_v"], domain.VerdictMeets)
		}
	})
}

func TestCompareUnitConversion(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{})

	t.Run("mah satisfies ah bound", func(t *testing.T) {
		product := domain.NewProductDocument(nil, nil, map[string]domain.Attribute{
			"capacidade_ah": {Value: 7000.0, Unit: domain.StringPtr("mAh")},
		})
		edital := domain.NewEditalDocument("Item", nil, map[string]domain.Requirement{
			"capacidade_ah": {ValueMin: domain.Float64Ptr(7), Unit: domain.StringPtr("Ah")},
		})
		result := matcher.Compare(product, edital)
		if result["capacidade_ah"] != domain.VerdictMeets {
			t.Errorf("7000 mAh vs min 7 Ah = %s, want %s", result["capacidade_ah"], domain.VerdictMeets)
		}
	})

	t.Run("incompatible units are unclear", func(t *testing.T) {
		product := domain.NewProductDocument(nil, nil, map[string]domain.Attribute{
			"capacidade_ah": {Value: 7.0, Unit: domain.StringPtr("gb")},
		})
		edital := domain.NewEditalDocument("Item", nil, map[string]domain.Requirement{
			"capacidade_ah": {ValueMin: domain.Float64Ptr(7), Unit: domain.StringPtr("Ah")},
		})
		result := matcher.Compare(product, edital)
		if result["capacidade_ah"] != domain.VerdictUnclear {
			t.Errorf("gb vs Ah = %s, want %s", result["capacidade_ah"], domain.VerdictUnclear)
		}
	})
}

func TestCompareMissingAttribute(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{})
	product := batteryProduct(nil, "")

	t.Run("mandatory fails", func(t *testing.T) {
		edital := voltageEdital(domain.Float64Ptr(12), nil, nil) // nil Mandatory means mandatory
		result := matcher.Compare(product, edital)
		if result["tensao_v"] != domain.VerdictFails {
			t.Errorf("missing mandatory attr = %s, want %s", result["tensao_v"], domain.VerdictFails)
		}
	})

	t.Run("optional is unclear", func(t *testing.T) {
		edital := voltageEdital(domain.Float64Ptr(12), nil, domain.BoolPtr(false))
		result := matcher.Compare(product, edital)
		if result["tensao_v"] != domain.VerdictUnclear {
			t.Errorf("missing optional attr = %s, want %s", result["tensao_v"], domain.VerdictUnclear)
		}
	})
}

func TestCompareAwkwardValues(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{})
	edital := voltageEdital(domain.Float64Ptr(12), nil, nil)

	t.Run("null value is unclear", func(t *testing.T) {
		product := domain.NewProductDocument(nil, nil, map[string]domain.Attribute{
			"tensao_v": {Value: nil, Unit: domain.StringPtr("V")},
		})
		if got := matcher.Compare(product, edital)["tensao_v"]; got != domain.VerdictUnclear {
			t.Errorf("null value = %s, want %s", got, domain.VerdictUnclear)
		}
	})

	t.Run("boolean is unclear", func(t *testing.T) {
		product := batteryProduct(true, "V")
		if got := matcher.Compare(product, edital)["tensao_v"]; got != domain.VerdictUnclear {
			t.Errorf("boolean value = %s, want %s", got, domain.VerdictUnclear)
		}
	})

	t.Run("ptbr string coerces", func(t *testing.T) {
		product := batteryProduct("12,5", "V")
		if got := matcher.Compare(product, edital)["tensao_v"]; got != domain.VerdictMeets {
			t.Errorf("\"12,5\" vs min 12 = %s, want %s", got, domain.VerdictMeets)
		}
	})

	t.Run("nil product document", func(t *testing.T) {
		if got := matcher.Compare(nil, edital)["tensao_v"]; got != domain.VerdictFails {
			t.Errorf("nil product, mandatory req = %s, want %s", got, domain.VerdictFails)
		}
	})
}

func TestCompareVerdictPerRequirement(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{})
	edital := domain.NewEditalDocument("Item", nil, map[string]domain.Requirement{
		"tensao_v":       {ValueMin: domain.Float64Ptr(12), Unit: domain.StringPtr("V")},
		"capacidade_ah":  {ValueMin: domain.Float64Ptr(7), Unit: domain.StringPtr("Ah")},
		"garantia_meses": {ValueMin: domain.Float64Ptr(12), Unit: domain.StringPtr("meses"), Mandatory: domain.BoolPtr(false)},
	})
	product := batteryProduct(12.0, "V")

	result := matcher.Compare(product, edital)
	if len(result) != len(edital.Requirements) {
		t.Fatalf("got %d verdicts, want %d", len(result), len(edital.Requirements))
	}
	for key, v := range result {
		switch v {
		case domain.VerdictMeets, domain.VerdictFails, domain.VerdictUnclear:
		default:
			t.Errorf("key %s has invalid verdict %q", key, v)
		}
	}
}

func TestCompareDeterministic(t *testing.T) {
	matcher := NewMatchingService(MatchConfig{TolerancePercent: 3})
	product := batteryProduct(11.8, "V")
	edital := voltageEdital(domain.Float64Ptr(12), domain.Float64Ptr(13), nil)

	first := matcher.Compare(product, edital)
	for i := 0; i < 10; i++ {
		again := matcher.Compare(product, edital)
		for k, v := range first {
			if again[k] != v {
				t.Fatalf("run %d: key %s flipped from %s to %s", i, k, v, again[k])
			}
		}
	}
}

func TestCompareHeuristicPoERoundTrip(t *testing.T) {
	// Both halves of the fallback path emit poe numerically, so a PoE demand
	// met by a PoE datasheet must resolve, not fall to doubt.
	e := NewHeuristicExtractor()
	edital := e.ExtractRequirements("Switch gerenciavel com PoE", "switch")
	product := e.ExtractAttributes("Switch 8 portas PoE")

	matcher := NewMatchingService(MatchConfig{})
	result := matcher.Compare(product, edital)
	if result["poe"] != domain.VerdictMeets {
		t.Errorf("poe = %s, want %s", result["poe"], domain.VerdictMeets)
	}
}
