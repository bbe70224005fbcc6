package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/licitamatch/backend/internal/domain"
)

// FallbackJustifications synthesizes one deterministic sentence per
// requirement stating expected vs observed values. Used whenever the LLM
// justifier is disabled or fails, so an analysis always carries an
// explanation for every verdict.
func FallbackJustifications(product *domain.ProductDocument, edital *domain.EditalDocument, matching domain.MatchResult) map[string]string {
	out := make(map[string]string, len(edital.Requirements))
	keys := make([]string, 0, len(edital.Requirements))
	for k := range edital.Requirements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule := edital.Requirements[key]
		expected := describeExpected(rule)
		observed := describeObserved(product, key)
		verdict := matching[key]

		switch verdict {
		case domain.VerdictMeets:
			out[key] = fmt.Sprintf("Requisito '%s': esperado %s; observado %s. O valor informado atende ao exigido.", key, expected, observed)
		case domain.VerdictFails:
			out[key] = fmt.Sprintf("Requisito '%s': esperado %s; observado %s. O valor informado nao atende ao exigido.", key, expected, observed)
		default:
			out[key] = fmt.Sprintf("Requisito '%s': esperado %s; observado %s. Dados insuficientes ou incompativeis para concluir.", key, expected, observed)
		}
	}
	return out
}

func describeExpected(r domain.Requirement) string {
	unit := ""
	if r.Unit != nil {
		unit = " " + *r.Unit
	}
	switch {
	case r.ValueMin != nil && r.ValueMax != nil && *r.ValueMin == *r.ValueMax:
		return fmt.Sprintf("%s%s", trimFloat(*r.ValueMin), unit)
	case r.ValueMin != nil && r.ValueMax != nil:
		return fmt.Sprintf("entre %s e %s%s", trimFloat(*r.ValueMin), trimFloat(*r.ValueMax), unit)
	case r.ValueMin != nil:
		return fmt.Sprintf(">= %s%s", trimFloat(*r.ValueMin), unit)
	case r.ValueMax != nil:
		return fmt.Sprintf("<= %s%s", trimFloat(*r.ValueMax), unit)
	default:
		return "nao especificado"
	}
}

func describeObserved(product *domain.ProductDocument, key string) string {
	if product == nil {
		return "atributo ausente"
	}
	attr, ok := product.Attributes[key]
	if !ok {
		return "atributo ausente"
	}
	if attr.Value == nil {
		return "valor ausente"
	}
	value := fmt.Sprintf("%v", attr.Value)
	if f, ok := ToFloat(attr.Value); ok {
		value = trimFloat(f)
	}
	if attr.Unit != nil {
		return value + " " + *attr.Unit
	}
	return value
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
