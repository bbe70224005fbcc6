package usecase

import (
	"sort"

	"github.com/licitamatch/backend/internal/domain"
)

// BuildClientSummary condenses an analysis into the dashboard-facing view:
// sorted verdict buckets, per-item expected/observed rows and the resolved
// principal keys.
func BuildClientSummary(result *domain.AnalysisResult, principals []string) *domain.ClientSummary {
	summary := &domain.ClientSummary{
		Principals: principals,
		Met:        []string{},
		Failed:     []string{},
		Unclear:    []string{},
		Items:      []domain.ClientItem{},
	}
	if result == nil {
		summary.OverallStatus = domain.StatusUncertain
		return summary
	}
	if result.Score != nil {
		summary.OverallStatus = result.Score.OverallStatus
		summary.ScorePercent = result.Score.ScorePercent
		summary.MandatoryMet = result.Score.MandatoryMet
		summary.MandatoryTotal = result.Score.MandatoryTotal
	}

	for key, verdict := range result.Matching {
		switch verdict {
		case domain.VerdictMeets:
			summary.Met = append(summary.Met, key)
		case domain.VerdictFails:
			summary.Failed = append(summary.Failed, key)
		default:
			summary.Unclear = append(summary.Unclear, key)
		}
	}
	sort.Strings(summary.Met)
	sort.Strings(summary.Failed)
	sort.Strings(summary.Unclear)

	if result.Edital == nil {
		return summary
	}
	keys := make([]string, 0, len(result.Edital.Requirements))
	for k := range result.Edital.Requirements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule := result.Edital.Requirements[key]
		item := domain.ClientItem{
			Key:         key,
			Status:      result.Matching[key],
			Mandatory:   rule.IsMandatory(),
			Requirement: rule,
		}
		if result.Product != nil {
			if attr, ok := result.Product.Attributes[key]; ok {
				item.ProductValue = attr.Value
				item.ProductUnit = attr.Unit
			}
		}
		if result.Justifications != nil {
			item.Justification = result.Justifications[key]
		}
		summary.Items = append(summary.Items, item)
	}
	return summary
}

// ResolvePrincipals returns the configured key requirements, defaulting to
// the battery principals when nothing is configured and the product is
// battery-like.
func ResolvePrincipals(configured []string, product *domain.ProductDocument) []string {
	if len(configured) > 0 {
		return dedupeKeys(configured)
	}
	if product != nil && IsBatteryHint(product.Hint()) {
		return append([]string{}, batteryPrincipalKeys...)
	}
	return []string{}
}
