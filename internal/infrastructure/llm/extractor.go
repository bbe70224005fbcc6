package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/licitamatch/backend/internal/domain"
)

const productPrompt = `Voce e um especialista em fichas tecnicas de produtos.
Extraia os atributos tecnicos do texto abaixo.

Texto:
%s

Responda EXCLUSIVAMENTE em JSON estrito, sem markdown:
{
  "nome": "nome do produto ou null",
  "tipo_produto": "categoria (ex: bateria, switch) ou null",
  "atributos": {
    "<chave_snake_case>": {"valor": <numero|string|bool|null>, "unidade": "<unidade ou null>"}
  }
}
Use chaves canonicas como tensao_v, capacidade_ah, corrente_a, potencia_w,
garantia_meses, portas, memoria_ram_gb, armazenamento_gb, velocidade_gbps.`

const requirementsPrompt = `Voce e um especialista em leitura de editais de licitacao.
Extraia os requisitos tecnicos relevantes para o produto "%s" dos trechos abaixo.

Trechos do edital:
%s

Responda EXCLUSIVAMENTE em JSON estrito, sem markdown:
{
  "item": "identificacao do item ou null",
  "tipo_produto": "categoria ou null",
  "requisitos": {
    "<chave_snake_case>": {"valor_min": <numero|null>, "valor_max": <numero|null>, "unidade": "<unidade ou null>", "obrigatorio": <bool>}
  }
}
Valores exatos devem ter valor_min igual a valor_max. Ignore itens do edital
que nao dizem respeito ao produto indicado.`

const justificationPrompt = `Voce e um analista tecnico de licitacoes. NAO decida
se atende; apenas explique cada resultado ja computado.

Produto (JSON):
%s

Edital (JSON):
%s

Resultado por requisito (definido por codigo):
%s

Responda EXCLUSIVAMENTE em JSON estrito:
{"justificativas": {"<requisito>": "<texto>"}}`

// Extractor implements domain.StructuredExtractor and domain.Justifier over
// the generation client. A sticky failure flag short-circuits further calls
// once the backend proves unreachable, so batch loops do not pile up
// timeouts.
type Extractor struct {
	client   *Client
	disabled atomic.Bool
	log      *zap.Logger
}

// NewExtractor wraps a generation client.
func NewExtractor(client *Client, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{client: client, log: log}
}

// Disabled reports whether the sticky failure flag has tripped.
func (e *Extractor) Disabled() bool { return e.disabled.Load() }

func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	if e.disabled.Load() {
		return "", &domain.ExtractionError{Kind: domain.ExtractionUnavailable, Err: ErrUnreachable}
	}
	raw, err := e.client.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrUnreachable) {
			e.disabled.Store(true)
			e.log.Warn("llm marked unavailable for this process", zap.Error(err))
		}
		return "", &domain.ExtractionError{Kind: domain.ExtractionUnavailable, Err: err}
	}
	return raw, nil
}

// ExtractProduct extracts a ProductDocument from datasheet text.
func (e *Extractor) ExtractProduct(ctx context.Context, text string) (*domain.ProductDocument, error) {
	raw, err := e.generate(ctx, fmt.Sprintf(productPrompt, clipText(text, 6000)))
	if err != nil {
		return nil, err
	}
	payload, ok := SalvageJSON(raw)
	if !ok {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: fmt.Errorf("no JSON object in output")}
	}
	var wire struct {
		Name        *string                     `json:"nome"`
		ProductType *string                     `json:"tipo_produto"`
		Attributes  map[string]domain.Attribute `json:"atributos"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: err}
	}
	doc := domain.NewProductDocument(wire.Name, wire.ProductType, wire.Attributes)
	if len(doc.Attributes) == 0 {
		return doc, &domain.ExtractionError{Kind: domain.ExtractionEmpty}
	}
	return doc, nil
}

// ExtractRequirements extracts an EditalDocument scoped to the product hint.
func (e *Extractor) ExtractRequirements(ctx context.Context, text, productHint string) (*domain.EditalDocument, error) {
	if productHint == "" {
		productHint = "item da licitacao"
	}
	raw, err := e.generate(ctx, fmt.Sprintf(requirementsPrompt, productHint, clipText(text, 6000)))
	if err != nil {
		return nil, err
	}
	payload, ok := SalvageJSON(raw)
	if !ok {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: fmt.Errorf("no JSON object in output")}
	}
	var wire struct {
		Item         *string                       `json:"item"`
		ProductType  *string                       `json:"tipo_produto"`
		Requirements map[string]domain.Requirement `json:"requisitos"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: err}
	}
	item := ""
	if wire.Item != nil {
		item = *wire.Item
	}
	doc := domain.NewEditalDocument(item, wire.ProductType, wire.Requirements)
	if len(doc.Requirements) == 0 {
		return doc, &domain.ExtractionError{Kind: domain.ExtractionEmpty}
	}
	return doc, nil
}

// Generate implements domain.Justifier.
func (e *Extractor) Generate(ctx context.Context, product *domain.ProductDocument, edital *domain.EditalDocument, matching domain.MatchResult) (map[string]string, error) {
	productJSON, _ := json.Marshal(product)
	editalJSON, _ := json.Marshal(edital)
	matchingJSON, _ := json.Marshal(matching)

	raw, err := e.generate(ctx, fmt.Sprintf(justificationPrompt, productJSON, editalJSON, matchingJSON))
	if err != nil {
		return nil, err
	}
	payload, ok := SalvageJSON(raw)
	if !ok {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: fmt.Errorf("no JSON object in output")}
	}
	var wire struct {
		Justifications map[string]string `json:"justificativas"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionUnparseable, Err: err}
	}
	return wire.Justifications, nil
}

// SalvageJSON makes a best effort at recovering a JSON document from model
// output: strip code fences, try as-is, then the largest {...} or [...]
// block. Returns false when nothing decodes.
func SalvageJSON(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if strings.Contains(cleaned, "```") {
		cleaned = stripFences(cleaned)
	}
	if json.Valid([]byte(cleaned)) {
		return cleaned, true
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(cleaned, pair[0])
		end := strings.LastIndex(cleaned, pair[1])
		if start != -1 && end > start {
			block := cleaned[start : end+1]
			if json.Valid([]byte(block)) {
				return block, true
			}
		}
	}
	return "", false
}

func stripFences(s string) string {
	first := strings.Index(s, "```")
	last := strings.LastIndex(s, "```")
	if first == -1 || last <= first {
		return s
	}
	inner := s[first+3 : last]
	inner = strings.TrimSpace(inner)
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
