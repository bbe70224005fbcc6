package pdftext

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
	"go.uber.org/zap"

	"github.com/licitamatch/backend/internal/domain"
)

// Quality floor below which native extraction is considered unusable and the
// extractor escalates to OCR (when wired) or reports degraded text.
const (
	minChars      = 120
	minAlnumRatio = 0.35
)

// OCRBackend is the optional escalation hook. The OCR engine itself is an
// external collaborator; deployments without one run native-only.
type OCRBackend interface {
	ExtractImagePDF(ctx context.Context, pdfPath string) (string, error)
}

// Extractor implements domain.TextExtractor over native PDF text with
// optional OCR escalation for scanned documents.
type Extractor struct {
	ocr OCRBackend // nil when not configured
	log *zap.Logger
}

// NewExtractor creates the extractor; ocr may be nil.
func NewExtractor(ocr OCRBackend, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{ocr: ocr, log: log}
}

// Extract reads native text, measures quality and escalates to OCR when the
// native layer is too poor (scanned PDFs). Always reports which method ran.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (*domain.TextExtraction, error) {
	var errs []string

	text, err := nativeText(pdfPath)
	if err != nil {
		errs = append(errs, fmt.Sprintf("native: %v", err))
	}
	result := measure(text, "native")
	result.Errors = errs

	if usable(result) {
		return result, nil
	}

	if e.ocr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ocrText, ocrErr := e.ocr.ExtractImagePDF(ctx, pdfPath)
		if ocrErr != nil {
			errs = append(errs, fmt.Sprintf("ocr: %v", ocrErr))
		} else {
			ocrResult := measure(ocrText, "ocr")
			ocrResult.Errors = errs
			if usable(ocrResult) || ocrResult.CharCount > result.CharCount {
				return ocrResult, nil
			}
		}
	}

	if result.CharCount == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrTextUnreadable, strings.Join(errs, "; "))
	}
	// Degraded but nonempty: let the heuristic extractor try.
	result.Method = "fallback"
	result.Errors = errs
	e.log.Warn("low quality text extraction",
		zap.String("pdf", pdfPath),
		zap.Int("chars", result.CharCount),
		zap.Float64("alnum_ratio", result.AlnumRatio),
	)
	return result, nil
}

func nativeText(path string) (string, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func measure(text, method string) *domain.TextExtraction {
	charCount := len([]rune(text))
	wordCount := len(strings.Fields(text))
	alnum := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	ratio := 0.0
	if charCount > 0 {
		ratio = float64(alnum) / float64(charCount)
	}
	return &domain.TextExtraction{
		Text:       text,
		Method:     method,
		CharCount:  charCount,
		WordCount:  wordCount,
		AlnumRatio: ratio,
	}
}

func usable(t *domain.TextExtraction) bool {
	return t.CharCount >= minChars && t.AlnumRatio >= minAlnumRatio
}
