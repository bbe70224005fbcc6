package domain

import "regexp"

// canonicalKeyRegex validates requirement/attribute identifiers such as
// "tensao_v" or "capacidade_ah". Keys are produced by extraction and must be
// snake_case so the product and edital sides can be joined by map key.
var canonicalKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsCanonicalKey reports whether s is a valid snake_case technical identifier.
func IsCanonicalKey(s string) bool {
	return canonicalKeyRegex.MatchString(s)
}

// Attribute is a single extracted product property. Value may be a number,
// string, boolean or nil depending on what the extractor recovered.
type Attribute struct {
	Value any     `json:"valor"`
	Unit  *string `json:"unidade,omitempty"`
}

// ProductDocument holds the structured attributes extracted from a datasheet.
type ProductDocument struct {
	Name        *string              `json:"nome"`
	ProductType *string              `json:"tipo_produto"`
	Attributes  map[string]Attribute `json:"atributos"`
}

// NewProductDocument builds a ProductDocument keeping only canonically keyed
// attributes. Key validation happens here, at construction, so loosely typed
// extractor output never reaches the matching engine.
func NewProductDocument(name, productType *string, attrs map[string]Attribute) *ProductDocument {
	doc := &ProductDocument{
		Name:        name,
		ProductType: productType,
		Attributes:  make(map[string]Attribute, len(attrs)),
	}
	for k, a := range attrs {
		if IsCanonicalKey(k) {
			doc.Attributes[k] = a
		}
	}
	return doc
}

// Hint returns the product-type context used for retrieval and cache keying.
func (p *ProductDocument) Hint() string {
	hint := ""
	if p.ProductType != nil {
		hint = *p.ProductType
	}
	if p.Name != nil {
		if hint != "" {
			hint += " "
		}
		hint += *p.Name
	}
	return hint
}

// Requirement is one technical rule from an edital. Exact values are encoded
// as ValueMin == ValueMax. A nil Mandatory means mandatory.
type Requirement struct {
	ValueMin  *float64 `json:"valor_min"`
	ValueMax  *float64 `json:"valor_max"`
	Unit      *string  `json:"unidade,omitempty"`
	Mandatory *bool    `json:"obrigatorio,omitempty"`
}

// IsMandatory resolves the default-true semantics of the wire format.
func (r Requirement) IsMandatory() bool {
	return r.Mandatory == nil || *r.Mandatory
}

// HasBound reports whether at least one of the min/max bounds is set. A
// requirement without bounds is unusable and is dropped at construction.
func (r Requirement) HasBound() bool {
	return r.ValueMin != nil || r.ValueMax != nil
}

// EditalDocument holds the structured requirements extracted from a
// procurement notice, scoped to the item relevant to the product under
// comparison.
type EditalDocument struct {
	Item         string                 `json:"item,omitempty"`
	ProductType  *string                `json:"tipo_produto"`
	Requirements map[string]Requirement `json:"requisitos"`
}

// NewEditalDocument builds an EditalDocument keeping only canonically keyed
// requirements that carry at least one bound.
func NewEditalDocument(item string, productType *string, reqs map[string]Requirement) *EditalDocument {
	doc := &EditalDocument{
		Item:         item,
		ProductType:  productType,
		Requirements: make(map[string]Requirement, len(reqs)),
	}
	for k, r := range reqs {
		if IsCanonicalKey(k) && r.HasBound() {
			doc.Requirements[k] = r
		}
	}
	return doc
}

// Float64Ptr and StringPtr are small helpers for building documents in
// extractors and tests.
func Float64Ptr(v float64) *float64 { return &v }
func StringPtr(s string) *string    { return &s }
func BoolPtr(b bool) *bool          { return &b }
