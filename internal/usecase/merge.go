package usecase

import (
	"github.com/licitamatch/backend/internal/domain"
)

// MergeRequirements combines two extractions of the same requirement key,
// e.g. from repeated scanning windows. The result keeps the most restrictive
// bound on each side (higher min, lower max). A unit conflict nulls the unit;
// the comparison then resolves through DUVIDA instead of trusting either
// side. Merging is associative and idempotent, so partial window results
// remain valid.
func MergeRequirements(a, b domain.Requirement) domain.Requirement {
	merged := domain.Requirement{}

	merged.ValueMin = pickBound(a.ValueMin, b.ValueMin, func(x, y float64) bool { return x > y })
	merged.ValueMax = pickBound(a.ValueMax, b.ValueMax, func(x, y float64) bool { return x < y })

	unitA, unitB := NormalizeUnit(a.Unit), NormalizeUnit(b.Unit)
	switch {
	case unitA == nil:
		merged.Unit = b.Unit
	case unitB == nil:
		merged.Unit = a.Unit
	case *unitA == *unitB:
		merged.Unit = a.Unit
	default:
		merged.Unit = nil
	}

	// A requirement marked optional anywhere stays optional only if both
	// sides agree; mandatory is the conservative default.
	if a.Mandatory != nil && b.Mandatory != nil && !*a.Mandatory && !*b.Mandatory {
		merged.Mandatory = domain.BoolPtr(false)
	} else if a.Mandatory != nil || b.Mandatory != nil {
		merged.Mandatory = domain.BoolPtr(true)
	}
	return merged
}

func pickBound(a, b *float64, moreRestrictive func(x, y float64) bool) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case moreRestrictive(*b, *a):
		return b
	default:
		return a
	}
}

// MergeEditalDocuments folds a window extraction into an accumulator.
func MergeEditalDocuments(acc, next *domain.EditalDocument) *domain.EditalDocument {
	if acc == nil {
		return next
	}
	if next == nil {
		return acc
	}
	merged := domain.NewEditalDocument(acc.Item, acc.ProductType, acc.Requirements)
	if merged.Item == "" {
		merged.Item = next.Item
	}
	if merged.ProductType == nil {
		merged.ProductType = next.ProductType
	}
	for k, r := range next.Requirements {
		if existing, ok := merged.Requirements[k]; ok {
			merged.Requirements[k] = MergeRequirements(existing, r)
		} else if r.HasBound() {
			merged.Requirements[k] = r
		}
	}
	return merged
}

// MergeProductDocuments conservatively folds a fresh product extraction into
// a previously cached one. A new value only replaces the stored one when the
// stored one is absent or the new one is not a spurious zero for its unit;
// units fill in when previously null. This keeps a flaky later pass from
// silently degrading a good cached value.
func MergeProductDocuments(stored, fresh *domain.ProductDocument) *domain.ProductDocument {
	if stored == nil {
		return fresh
	}
	if fresh == nil {
		return stored
	}
	merged := domain.NewProductDocument(stored.Name, stored.ProductType, stored.Attributes)
	if merged.Name == nil {
		merged.Name = fresh.Name
	}
	if merged.ProductType == nil {
		merged.ProductType = fresh.ProductType
	}
	for k, attr := range fresh.Attributes {
		existing, ok := merged.Attributes[k]
		if !ok || existing.Value == nil {
			merged.Attributes[k] = attr
			continue
		}
		if attr.Value == nil || IsSpuriousZeroValue(attr.Value, attr.Unit) {
			// Keep the stored value; still fill a missing unit.
			if existing.Unit == nil && attr.Unit != nil {
				existing.Unit = attr.Unit
				merged.Attributes[k] = existing
			}
			continue
		}
		if existing.Unit != nil && attr.Unit == nil {
			attr.Unit = existing.Unit
		}
		merged.Attributes[k] = attr
	}
	return merged
}

// MergeEditalWithStored applies the same conservative policy to edital cache
// updates: real bounds win over spurious zeros, units fill when null.
func MergeEditalWithStored(stored, fresh *domain.EditalDocument) *domain.EditalDocument {
	if stored == nil {
		return fresh
	}
	if fresh == nil {
		return stored
	}
	merged := domain.NewEditalDocument(stored.Item, stored.ProductType, stored.Requirements)
	if merged.Item == "" {
		merged.Item = fresh.Item
	}
	if merged.ProductType == nil {
		merged.ProductType = fresh.ProductType
	}
	for k, r := range fresh.Requirements {
		existing, ok := merged.Requirements[k]
		if !ok {
			if r.HasBound() && !requirementIsSpurious(r) {
				merged.Requirements[k] = r
			}
			continue
		}
		if requirementIsSpurious(r) {
			if existing.Unit == nil && r.Unit != nil {
				existing.Unit = r.Unit
				merged.Requirements[k] = existing
			}
			continue
		}
		merged.Requirements[k] = MergeRequirements(existing, r)
	}
	return merged
}

// requirementIsSpurious reports whether every bound the requirement carries
// is a spurious zero for its unit.
func requirementIsSpurious(r domain.Requirement) bool {
	if !r.HasBound() {
		return true
	}
	if r.ValueMin != nil && !IsSpuriousZero(*r.ValueMin, r.Unit) {
		return false
	}
	if r.ValueMax != nil && !IsSpuriousZero(*r.ValueMax, r.Unit) {
		return false
	}
	return true
}
