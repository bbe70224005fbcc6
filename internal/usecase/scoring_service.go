package usecase

import (
	"math"

	"github.com/licitamatch/backend/internal/domain"
)

// ScoreConfig holds the override policies applied on top of the base
// aggregate status.
type ScoreConfig struct {
	// KeyRequirements is an ordered list of must-matter requirement keys.
	KeyRequirements []string
	// KeyPolicy is "all" (every key must meet) or "any" (one suffices).
	// Anything else falls back to "all".
	KeyPolicy string
	// SequenceFilter is an ordered gate evaluated first-to-fail. Takes
	// precedence over the key-requirement override when both fire.
	SequenceFilter []string
}

// ScoringService aggregates a MatchResult into tallies, a percentage score
// and the overall status. Pure and deterministic.
type ScoringService struct {
	keyRequirements []string
	keyPolicy       string
	sequenceFilter  []string
}

// NewScoringService creates a scoring service from the given policies.
func NewScoringService(config ScoreConfig) *ScoringService {
	policy := config.KeyPolicy
	if policy != "any" {
		policy = "all"
	}
	return &ScoringService{
		keyRequirements: dedupeKeys(config.KeyRequirements),
		keyPolicy:       policy,
		sequenceFilter:  dedupeKeys(config.SequenceFilter),
	}
}

// dedupeKeys drops duplicates while preserving order; order is significant
// for the sequence filter.
func dedupeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ComputeScore derives the full ScoreResult from a match result and the
// edital it was computed against. Requirements missing from the match result
// count as unclear. Both override reports are always populated.
func (s *ScoringService) ComputeScore(matching domain.MatchResult, edital *domain.EditalDocument) *domain.ScoreResult {
	return s.ComputeScoreWithKeys(matching, edital, s.keyRequirements)
}

// ComputeScoreWithKeys is ComputeScore with an explicit key-requirement list,
// used when category defaults (battery principals) replace the configured
// set.
func (s *ScoringService) ComputeScoreWithKeys(matching domain.MatchResult, edital *domain.EditalDocument, keyReqs []string) *domain.ScoreResult {
	result := &domain.ScoreResult{}
	reqs := edital.Requirements

	for key, rule := range reqs {
		status, ok := matching[key]
		if !ok {
			status = domain.VerdictUnclear
		}
		if rule.IsMandatory() {
			result.MandatoryTotal++
			switch status {
			case domain.VerdictMeets:
				result.MandatoryMet++
			case domain.VerdictFails:
				result.MandatoryFailed++
			default:
				result.MandatoryUnclear++
			}
		} else {
			result.OptionalTotal++
			switch status {
			case domain.VerdictMeets:
				result.OptionalMet++
			case domain.VerdictFails:
				result.OptionalFailed++
			default:
				result.OptionalUnclear++
			}
		}
	}

	if result.MandatoryTotal > 0 {
		score := 100.0 * float64(result.MandatoryMet) / float64(result.MandatoryTotal)
		result.ScorePercent = math.Round(score*100) / 100
	}

	base := baseStatus(result)
	result.OverallStatus = base
	result.KeyRequirements = s.applyKeyOverride(matching, reqs, keyReqs, base, result)
	result.SequenceFilter = s.applySequenceFilter(matching, reqs, result)

	return result
}

// baseStatus is the conservative aggregate before overrides.
func baseStatus(r *domain.ScoreResult) domain.OverallStatus {
	switch {
	case r.MandatoryTotal == 0:
		return domain.StatusUncertain
	case r.MandatoryFailed > 0:
		return domain.StatusRejected
	case r.MandatoryUnclear > 0:
		return domain.StatusUncertain
	default:
		return domain.StatusApproved
	}
}

// applyKeyOverride evaluates the key-requirement policy over the configured
// keys present in the edital and mutates result.OverallStatus when it fires.
func (s *ScoringService) applyKeyOverride(
	matching domain.MatchResult,
	reqs map[string]domain.Requirement,
	keyReqs []string,
	base domain.OverallStatus,
	result *domain.ScoreResult,
) domain.KeyRequirementReport {
	report := domain.KeyRequirementReport{
		Configured:      keyReqs,
		PresentInEdital: []string{},
		Policy:          s.keyPolicy,
		BaseStatus:      base,
	}

	for _, key := range keyReqs {
		if _, ok := reqs[key]; !ok {
			continue
		}
		report.PresentInEdital = append(report.PresentInEdital, key)
		report.Total++
		status, ok := matching[key]
		if !ok {
			status = domain.VerdictUnclear
		}
		switch status {
		case domain.VerdictMeets:
			report.Met++
		case domain.VerdictFails:
			report.Failed++
		default:
			report.Unclear++
		}
	}

	if report.Total == 0 {
		return report
	}

	// Always conservative: any key failure rejects, any key doubt holds.
	switch {
	case report.Failed > 0:
		result.OverallStatus = domain.StatusRejected
		report.OverrideApplied = true
	case report.Unclear > 0:
		result.OverallStatus = domain.StatusUncertain
		report.OverrideApplied = true
	case s.keyPolicy == "any" && report.Met >= 1:
		result.OverallStatus = domain.StatusApproved
		report.OverrideApplied = true
	case s.keyPolicy == "all" && report.Met == report.Total:
		result.OverallStatus = domain.StatusApproved
		report.OverrideApplied = true
	}
	return report
}

// applySequenceFilter walks the configured keys in order, considering only
// those present in the edital. The first failure halts evaluation and forces
// rejection. Higher precedence than the key-requirement override, so it runs
// last.
func (s *ScoringService) applySequenceFilter(
	matching domain.MatchResult,
	reqs map[string]domain.Requirement,
	result *domain.ScoreResult,
) domain.SequenceFilterReport {
	report := domain.SequenceFilterReport{
		Configured:      s.sequenceFilter,
		PresentInEdital: []string{},
		Steps:           []domain.SequenceStep{},
	}
	if len(s.sequenceFilter) == 0 {
		return report
	}

	anyPresent := false
	anyUnclear := false
	failed := false

	for _, key := range s.sequenceFilter {
		if _, ok := reqs[key]; !ok {
			report.Steps = append(report.Steps, domain.SequenceStep{Key: key, Present: false})
			continue
		}
		anyPresent = true
		report.PresentInEdital = append(report.PresentInEdital, key)
		status, ok := matching[key]
		if !ok {
			status = domain.VerdictUnclear
		}
		st := status
		report.Steps = append(report.Steps, domain.SequenceStep{Key: key, Present: true, Status: &st})
		if status == domain.VerdictFails {
			failed = true
			break
		}
		if status == domain.VerdictUnclear {
			anyUnclear = true
		}
	}

	if !anyPresent {
		return report
	}

	var final domain.OverallStatus
	switch {
	case failed:
		final = domain.StatusRejected
	case anyUnclear:
		final = domain.StatusUncertain
	default:
		final = domain.StatusApproved
	}
	report.FinalStatus = &final
	report.OverrideApplied = true
	result.OverallStatus = final
	return report
}
