package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Document cache entry types. Entries are content-addressed: DocType + SHA256
// of the source bytes, plus a hint key for editais because the relevant
// requirement set depends on which procurement item the product maps to.
const (
	DocTypeProduct = "produto"
	DocTypeEdital  = "edital"
)

// CachedDocument is one stored extraction result.
type CachedDocument struct {
	DocType   string
	SHA256    string
	HintKey   string
	Extracted json.RawMessage
	Meta      json.RawMessage
	UpdatedAt time.Time
}

// CachedMatch is one stored match computation, keyed by both document hashes
// and the settings signature so config changes invalidate stale results.
type CachedMatch struct {
	EditalSHA256  string
	ProductSHA256 string
	SettingsSig   string
	Result        json.RawMessage
	Meta          json.RawMessage
	UpdatedAt     time.Time
}

// CacheStore is the persistence contract for both cache levels. Upserts must
// be atomic per key at the storage layer (unique constraint + on-conflict
// update); concurrent writers may race, which is safe because content is
// deterministic for identical inputs. Get returns ErrCacheMiss when absent.
type CacheStore interface {
	GetDocument(ctx context.Context, docType, sha256, hintKey string) (*CachedDocument, error)
	UpsertDocument(ctx context.Context, entry *CachedDocument) error
	GetMatch(ctx context.Context, editalSHA, productSHA, settingsSig string) (*CachedMatch, error)
	UpsertMatch(ctx context.Context, entry *CachedMatch) error
	// PurgeOtherVersions removes entries whose hint/settings keys were built
	// with a different cache schema version. Used by the maintenance job.
	PurgeOtherVersions(ctx context.Context, currentVersion string) (int64, error)
}

// TextExtraction is the output of the text/OCR collaborator.
type TextExtraction struct {
	Text       string
	Method     string // "native", "ocr", "fallback"
	CharCount  int
	WordCount  int
	AlnumRatio float64
	Errors     []string
}

// TextExtractor pulls raw text out of a PDF and reports quality metrics so
// the orchestrator can decide whether to escalate to a stronger method.
type TextExtractor interface {
	Extract(ctx context.Context, pdfPath string) (*TextExtraction, error)
}

// StructuredExtractor turns free text into typed documents. Failures are
// reported as *ExtractionError; callers fall back to heuristics instead of
// propagating parse errors.
type StructuredExtractor interface {
	ExtractProduct(ctx context.Context, text string) (*ProductDocument, error)
	ExtractRequirements(ctx context.Context, text, productHint string) (*EditalDocument, error)
}

// Justifier generates per-requirement explanations. Purely explanatory: it
// must never alter matching or score. Implementations may fail; the pipeline
// synthesizes deterministic sentences in that case.
type Justifier interface {
	Generate(ctx context.Context, product *ProductDocument, edital *EditalDocument, matching MatchResult) (map[string]string, error)
}
