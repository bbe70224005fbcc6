package usecase

import (
	"math"

	"github.com/licitamatch/backend/internal/domain"
)

// MatchConfig holds tolerance configuration for the matching service.
// Tolerance values above 1.0 are read as percentages and divided by 100, so
// both "0.05" and "5" mean five percent.
type MatchConfig struct {
	TolerancePercent   float64
	ToleranceOverrides map[string]float64
}

// MatchingService computes per-requirement verdicts from a product document
// and an edital document. Pure and stateless per call: safe for concurrent
// use across (product, edital) pairs.
type MatchingService struct {
	defaultTolerance   float64
	toleranceOverrides map[string]float64
}

// NewMatchingService creates a matching service with the given tolerances.
func NewMatchingService(config MatchConfig) *MatchingService {
	overrides := make(map[string]float64, len(config.ToleranceOverrides))
	for k, v := range config.ToleranceOverrides {
		overrides[k] = normalizeTolerance(v)
	}
	return &MatchingService{
		defaultTolerance:   normalizeTolerance(config.TolerancePercent),
		toleranceOverrides: overrides,
	}
}

// normalizeTolerance maps a configured tolerance to a fraction in [0, 1].
func normalizeTolerance(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v > 1.0 {
		v = v / 100.0
	}
	return v
}

// Compare produces exactly one verdict per requirement key of the edital.
// Every branch yields one of the three verdicts; no input shape raises an
// error. Check order matters: missing attribute and null value take priority
// over unit and tolerance logic.
func (s *MatchingService) Compare(product *domain.ProductDocument, edital *domain.EditalDocument) domain.MatchResult {
	result := make(domain.MatchResult, len(edital.Requirements))
	var attrs map[string]domain.Attribute
	if product != nil {
		attrs = product.Attributes
	}

	for key, rule := range edital.Requirements {
		result[key] = s.compareOne(key, rule, attrs)
	}
	return result
}

func (s *MatchingService) compareOne(key string, rule domain.Requirement, attrs map[string]domain.Attribute) domain.Verdict {
	attr, ok := attrs[key]
	if !ok {
		if rule.IsMandatory() {
			return domain.VerdictFails
		}
		return domain.VerdictUnclear
	}

	if attr.Value == nil {
		return domain.VerdictUnclear
	}

	value, ok := ToFloat(attr.Value)
	if !ok {
		return domain.VerdictUnclear
	}

	ruleUnit := NormalizeUnit(rule.Unit)
	attrUnit := NormalizeUnit(attr.Unit)
	if ruleUnit != nil && attrUnit != nil && *ruleUnit != *attrUnit {
		converted, ok := Convert(value, *attrUnit, *ruleUnit)
		if !ok {
			return domain.VerdictUnclear
		}
		value = converted
	}

	tol := s.toleranceFor(key)

	// Tolerance widens multiplicatively away from zero against each bound's
	// absolute value, so negative bounds still widen in the right direction.
	if rule.ValueMin != nil {
		floor := *rule.ValueMin - tol*math.Abs(*rule.ValueMin)
		if value < floor {
			return domain.VerdictFails
		}
	}
	if rule.ValueMax != nil {
		ceil := *rule.ValueMax + tol*math.Abs(*rule.ValueMax)
		if value > ceil {
			return domain.VerdictFails
		}
	}
	return domain.VerdictMeets
}

func (s *MatchingService) toleranceFor(key string) float64 {
	if tol, ok := s.toleranceOverrides[key]; ok {
		return tol
	}
	return s.defaultTolerance
}
