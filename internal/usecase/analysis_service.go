package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/licitamatch/backend/internal/domain"
)

// Extraction strategies for the edital side.
const (
	StrategyRAG      = "rag"
	StrategyFullScan = "fullscan"
)

// AnalysisConfig holds the pipeline tunables. Every field participates in
// the settings signature.
type AnalysisConfig struct {
	Strategy            string
	EmbedModel          string
	TopK                int
	ChunkWords          int
	WindowWords         int
	StrideWords         int
	MaxWindows          int
	SchemaVersion       string
	EnableJustification bool
	KeyRequirements     []string
}

// AnalysisService sequences extraction, retrieval, matching, scoring and
// justification for one (product, edital) pair, with content-addressed
// caching at both the document and match level. The matching/scoring core it
// drives is pure; all I/O lives in the injected collaborators.
type AnalysisService struct {
	cache     domain.CacheStore
	text      domain.TextExtractor
	llm       domain.StructuredExtractor // nil when disabled
	heuristic *HeuristicExtractor
	matcher   *MatchingService
	scorer    *ScoringService
	justifier domain.Justifier // nil when disabled
	config    AnalysisConfig
	log       *zap.Logger
}

// NewAnalysisService wires the pipeline. llm and justifier may be nil; the
// pipeline then runs heuristics and deterministic justifications only.
func NewAnalysisService(
	cache domain.CacheStore,
	text domain.TextExtractor,
	llm domain.StructuredExtractor,
	matcher *MatchingService,
	scorer *ScoringService,
	justifier domain.Justifier,
	config AnalysisConfig,
	log *zap.Logger,
) *AnalysisService {
	if config.Strategy != StrategyFullScan {
		config.Strategy = StrategyRAG
	}
	if config.TopK <= 0 {
		config.TopK = 10
	}
	if config.SchemaVersion == "" {
		config.SchemaVersion = "v1"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisService{
		cache:     cache,
		text:      text,
		llm:       llm,
		heuristic: NewHeuristicExtractor(),
		matcher:   matcher,
		scorer:    scorer,
		justifier: justifier,
		config:    config,
		log:       log,
	}
}

// settingsSignature serializes every tunable that affects outputs.
func (s *AnalysisService) settingsSignature() string {
	return SettingsSignature(map[string]string{
		"strategy":      s.config.Strategy,
		"embed_model":   s.config.EmbedModel,
		"top_k":         strconv.Itoa(s.config.TopK),
		"chunk_words":   strconv.Itoa(s.config.ChunkWords),
		"window_words":  strconv.Itoa(s.config.WindowWords),
		"stride_words":  strconv.Itoa(s.config.StrideWords),
		"max_windows":   strconv.Itoa(s.config.MaxWindows),
		"schema":        s.config.SchemaVersion,
		"justification": strconv.FormatBool(s.config.EnableJustification),
		"key_reqs":      strings.Join(s.config.KeyRequirements, ","),
	})
}

// Analyze runs the full pipeline for one pair of PDFs. Extraction trouble is
// never a hard failure: the worst case is a DUVIDOSO score with an empty
// requirement set and a diagnostics block explaining what degraded.
func (s *AnalysisService) Analyze(ctx context.Context, editalPath, productPath string) (*domain.AnalysisResult, error) {
	editalBytes, err := os.ReadFile(editalPath)
	if err != nil {
		return nil, fmt.Errorf("reading edital: %w", err)
	}
	productBytes, err := os.ReadFile(productPath)
	if err != nil {
		return nil, fmt.Errorf("reading product datasheet: %w", err)
	}
	editalSHA := Sha256Hex(editalBytes)
	productSHA := Sha256Hex(productBytes)
	sig := s.settingsSignature()

	if cached, err := s.cache.GetMatch(ctx, editalSHA, productSHA, sig); err == nil {
		var result domain.AnalysisResult
		if err := json.Unmarshal(cached.Result, &result); err == nil {
			result.Diagnostics.FromCache = true
			s.log.Debug("match cache hit", zap.String("edital", editalSHA[:12]), zap.String("produto", productSHA[:12]))
			return &result, nil
		}
	}

	diag := domain.Diagnostics{}

	productText := s.extractText(ctx, productPath, &diag.ProductTextMethod, &diag)
	editalText := s.extractText(ctx, editalPath, &diag.EditalTextMethod, &diag)

	product := s.resolveProduct(ctx, productSHA, productText, &diag)
	edital := s.resolveEdital(ctx, editalSHA, editalText, product.Hint(), &diag)

	matching := s.matcher.Compare(product, edital)
	principals := ResolvePrincipals(s.config.KeyRequirements, product)
	score := s.scorer.ComputeScoreWithKeys(matching, edital, principals)

	justifications := s.justify(ctx, product, edital, matching, &diag)

	result := &domain.AnalysisResult{
		ID:             uuid.NewString(),
		Product:        product,
		Edital:         edital,
		Matching:       matching,
		Score:          score,
		Justifications: justifications,
		Diagnostics:    diag,
	}

	if payload, err := json.Marshal(result); err == nil {
		entry := &domain.CachedMatch{
			EditalSHA256:  editalSHA,
			ProductSHA256: productSHA,
			SettingsSig:   sig,
			Result:        payload,
		}
		if err := s.cache.UpsertMatch(ctx, entry); err != nil {
			s.log.Warn("match cache write failed", zap.Error(err))
		}
	}

	s.log.Info("analysis complete",
		zap.String("id", result.ID),
		zap.String("status", string(score.OverallStatus)),
		zap.Float64("score", score.ScorePercent),
		zap.Strings("degraded", diag.Degraded),
	)
	return result, nil
}

// Principals resolves the effective key-requirement list for a product:
// configured keys when present, category defaults otherwise.
func (s *AnalysisService) Principals(product *domain.ProductDocument) []string {
	return ResolvePrincipals(s.config.KeyRequirements, product)
}

// CompareAndScore runs only the pure core over pre-extracted documents.
func (s *AnalysisService) CompareAndScore(product *domain.ProductDocument, edital *domain.EditalDocument) (domain.MatchResult, *domain.ScoreResult) {
	matching := s.matcher.Compare(product, edital)
	principals := ResolvePrincipals(s.config.KeyRequirements, product)
	return matching, s.scorer.ComputeScoreWithKeys(matching, edital, principals)
}

func (s *AnalysisService) extractText(ctx context.Context, path string, method *string, diag *domain.Diagnostics) string {
	extraction, err := s.text.Extract(ctx, path)
	if err != nil {
		diag.Degraded = append(diag.Degraded, fmt.Sprintf("texto ilegivel em %s: %v", path, err))
		*method = "fallback"
		return ""
	}
	*method = extraction.Method
	return extraction.Text
}

// resolveProduct returns the product document for the datasheet, preferring
// cache, then LLM extraction, then the heuristic fallback. Cached documents
// with no usable attributes are re-extracted rather than trusted.
func (s *AnalysisService) resolveProduct(ctx context.Context, sha, text string, diag *domain.Diagnostics) *domain.ProductDocument {
	hint := HintKey("", s.config.SchemaVersion)
	var stored *domain.ProductDocument
	if entry, err := s.cache.GetDocument(ctx, domain.DocTypeProduct, sha, hint); err == nil {
		var doc domain.ProductDocument
		if err := json.Unmarshal(entry.Extracted, &doc); err == nil {
			if len(doc.Attributes) > 0 {
				diag.ProductExtraction = "cache"
				return &doc
			}
			stored = &doc
		}
	}

	fresh, source := s.extractProduct(ctx, text, diag)
	diag.ProductExtraction = source

	merged := MergeProductDocuments(stored, fresh)
	s.storeDocument(ctx, domain.DocTypeProduct, sha, hint, merged)
	return merged
}

func (s *AnalysisService) extractProduct(ctx context.Context, text string, diag *domain.Diagnostics) (*domain.ProductDocument, string) {
	if s.llm != nil {
		doc, err := s.llm.ExtractProduct(ctx, text)
		if err == nil && doc != nil && len(doc.Attributes) > 0 {
			return PostProcessProduct(doc), "llm"
		}
		if err != nil {
			diag.Degraded = append(diag.Degraded, fmt.Sprintf("extracao llm do produto: %s", degradeReason(err)))
		} else {
			diag.Degraded = append(diag.Degraded, "extracao llm do produto sem atributos")
		}
	}
	return PostProcessProduct(s.heuristic.ExtractAttributes(text)), "heuristic"
}

// resolveEdital mirrors resolveProduct, with the product hint in the cache
// key: the same edital yields different requirement sets per relevant item.
func (s *AnalysisService) resolveEdital(ctx context.Context, sha, text, productHint string, diag *domain.Diagnostics) *domain.EditalDocument {
	hint := HintKey(productHint, s.config.SchemaVersion)
	var stored *domain.EditalDocument
	if entry, err := s.cache.GetDocument(ctx, domain.DocTypeEdital, sha, hint); err == nil {
		var doc domain.EditalDocument
		if err := json.Unmarshal(entry.Extracted, &doc); err == nil {
			if len(doc.Requirements) > 0 {
				diag.EditalExtraction = "cache"
				return &doc
			}
			stored = &doc
		}
	}

	fresh, source := s.extractEdital(ctx, text, productHint, diag)
	diag.EditalExtraction = source

	merged := MergeEditalWithStored(stored, fresh)
	s.storeDocument(ctx, domain.DocTypeEdital, sha, hint, merged)
	return merged
}

func (s *AnalysisService) extractEdital(ctx context.Context, text, productHint string, diag *domain.Diagnostics) (*domain.EditalDocument, string) {
	normalized := NormalizeText(text)

	if s.llm != nil {
		doc, source := s.extractEditalLLM(ctx, normalized, productHint, diag)
		if doc != nil && len(doc.Requirements) > 0 {
			return doc, source
		}
	}
	return PostProcessEdital(s.heuristic.ExtractRequirements(text, productHint)), "heuristic"
}

// extractEditalLLM builds the retrieval context (RAG) or scan windows and
// merges per-window extractions. Window merging is associative and
// idempotent, so cancellation between windows leaves a valid partial result.
func (s *AnalysisService) extractEditalLLM(ctx context.Context, normalized, productHint string, diag *domain.Diagnostics) (*domain.EditalDocument, string) {
	var contexts []string
	source := s.config.Strategy

	if s.config.Strategy == StrategyFullScan {
		contexts = WindowText(normalized, s.config.WindowWords, s.config.StrideWords, s.config.MaxWindows)
		diag.ChunksTotal = len(contexts)
		diag.ChunksUsed = len(contexts)
	} else {
		chunks := ChunkText(normalized, s.config.ChunkWords)
		diag.ChunksTotal = len(chunks)
		query := "requisitos tecnicos especificacoes obrigatorias " + productHint
		selected := RankChunks(chunks, query, s.config.TopK)
		diag.ChunksUsed = len(selected)
		if len(selected) > 0 {
			contexts = []string{strings.Join(selected, "\n\n")}
		}
	}

	var acc *domain.EditalDocument
	for _, window := range contexts {
		if ctx.Err() != nil {
			diag.Degraded = append(diag.Degraded, "extracao do edital interrompida")
			break
		}
		doc, err := s.llm.ExtractRequirements(ctx, window, productHint)
		if err != nil {
			diag.Degraded = append(diag.Degraded, fmt.Sprintf("extracao llm do edital: %s", degradeReason(err)))
			if domain.ExtractionKind(err) == domain.ExtractionUnavailable {
				break
			}
			continue
		}
		acc = MergeEditalDocuments(acc, PostProcessEdital(doc))
	}
	return acc, source
}

func (s *AnalysisService) justify(ctx context.Context, product *domain.ProductDocument, edital *domain.EditalDocument, matching domain.MatchResult, diag *domain.Diagnostics) map[string]string {
	if s.config.EnableJustification && s.justifier != nil {
		generated, err := s.justifier.Generate(ctx, product, edital, matching)
		if err == nil && len(generated) > 0 {
			// The generator is explanatory only; fill gaps deterministically
			// but never let it add keys outside the requirement set.
			fallback := FallbackJustifications(product, edital, matching)
			for key := range fallback {
				if txt, ok := generated[key]; ok && strings.TrimSpace(txt) != "" {
					fallback[key] = txt
				}
			}
			return fallback
		}
		if err != nil {
			diag.Degraded = append(diag.Degraded, fmt.Sprintf("justificativa llm: %s", degradeReason(err)))
		}
	}
	return FallbackJustifications(product, edital, matching)
}

func (s *AnalysisService) storeDocument(ctx context.Context, docType, sha, hint string, doc any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return
	}
	entry := &domain.CachedDocument{
		DocType:   docType,
		SHA256:    sha,
		HintKey:   hint,
		Extracted: payload,
	}
	if err := s.cache.UpsertDocument(ctx, entry); err != nil {
		s.log.Warn("document cache write failed", zap.String("tipo", docType), zap.Error(err))
	}
}

func degradeReason(err error) string {
	if kind := domain.ExtractionKind(err); kind != "" {
		return string(kind)
	}
	return err.Error()
}

// PostProcessProduct canonicalizes attribute units. Key validation already
// happened at construction.
func PostProcessProduct(doc *domain.ProductDocument) *domain.ProductDocument {
	if doc == nil {
		return nil
	}
	for k, attr := range doc.Attributes {
		attr.Unit = NormalizeUnit(attr.Unit)
		doc.Attributes[k] = attr
	}
	return doc
}

// PostProcessEdital canonicalizes requirement units and drops requirements
// whose only bounds are spurious zeros.
func PostProcessEdital(doc *domain.EditalDocument) *domain.EditalDocument {
	if doc == nil {
		return nil
	}
	for k, r := range doc.Requirements {
		r.Unit = NormalizeUnit(r.Unit)
		if requirementIsSpurious(r) {
			delete(doc.Requirements, k)
			continue
		}
		doc.Requirements[k] = r
	}
	return doc
}
