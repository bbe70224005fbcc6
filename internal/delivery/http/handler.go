package http

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/licitamatch/backend/internal/domain"
	"github.com/licitamatch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	analysis *usecase.AnalysisService
	log      *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(analysis *usecase.AnalysisService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{analysis: analysis, log: log}
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "licitamatch-backend",
		"version": "1.0.0",
	})
}

// AnalyzeUpload accepts a multipart upload with "edital" and "produto" PDF
// files and runs the full pipeline. Extraction trouble never yields an HTTP
// error; the result carries a diagnostics block instead.
func (h *Handler) AnalyzeUpload(c *gin.Context) {
	h.analyzeUpload(c, func(result *domain.AnalysisResult) any { return result })
}

// Summary runs the pipeline and returns the condensed client view.
func (h *Handler) Summary(c *gin.Context) {
	h.analyzeUpload(c, func(result *domain.AnalysisResult) any {
		return usecase.BuildClientSummary(result, h.analysis.Principals(result.Product))
	})
}

func (h *Handler) analyzeUpload(c *gin.Context, project func(*domain.AnalysisResult) any) {
	editalFile, err := c.FormFile("edital")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campo 'edital' (PDF) obrigatorio"})
		return
	}
	productFile, err := c.FormFile("produto")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campo 'produto' (PDF) obrigatorio"})
		return
	}

	workDir, err := os.MkdirTemp("", "licitamatch-"+uuid.NewString()[:8])
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao preparar area de trabalho"})
		return
	}
	defer os.RemoveAll(workDir)

	editalPath, err := saveUpload(c, editalFile, workDir, "edital.pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falha ao receber edital"})
		return
	}
	productPath, err := saveUpload(c, productFile, workDir, "produto.pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falha ao receber datasheet"})
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), editalPath, productPath)
	if err != nil {
		h.log.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha na analise"})
		return
	}
	c.JSON(http.StatusOK, project(result))
}

// compareRequest is the body of the pure-core endpoint: pre-extracted
// documents in, matching + score out.
type compareRequest struct {
	Product *domain.ProductDocument `json:"produto_json" binding:"required"`
	Edital  *domain.EditalDocument  `json:"edital_json" binding:"required"`
}

// Compare runs only the deterministic matching and scoring core.
func (h *Handler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalido: produto_json e edital_json obrigatorios"})
		return
	}
	// Re-run construction so canonical-key and bound invariants hold even
	// for hand-crafted payloads.
	product := domain.NewProductDocument(req.Product.Name, req.Product.ProductType, req.Product.Attributes)
	edital := domain.NewEditalDocument(req.Edital.Item, req.Edital.ProductType, req.Edital.Requirements)

	matching, score := h.analysis.CompareAndScore(product, edital)
	c.JSON(http.StatusOK, gin.H{
		"matching": matching,
		"score":    score,
	})
}

func saveUpload(c *gin.Context, file *multipart.FileHeader, dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}
