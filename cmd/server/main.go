package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/licitamatch/backend/config"
	httpDelivery "github.com/licitamatch/backend/internal/delivery/http"
	"github.com/licitamatch/backend/internal/domain"
	"github.com/licitamatch/backend/internal/infrastructure/cache"
	"github.com/licitamatch/backend/internal/infrastructure/llm"
	"github.com/licitamatch/backend/internal/infrastructure/pdftext"
	"github.com/licitamatch/backend/internal/jobs"
	"github.com/licitamatch/backend/internal/logger"
	"github.com/licitamatch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting licitamatch backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
	)

	// Infrastructure
	store, err := buildStore(cfg)
	if err != nil {
		zlog.Fatal("cache store init failed", zap.Error(err))
	}

	textExtractor := pdftext.NewExtractor(nil, zlog)

	var structured domain.StructuredExtractor
	var justifier domain.Justifier
	if cfg.LLM.Enabled {
		client := llm.NewClient(llm.ClientConfig{
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			ConnectTimeout: cfg.LLM.ConnectTimeout,
			ReadTimeout:    cfg.LLM.ReadTimeout,
			Retries:        cfg.LLM.Retries,
			Backoff:        cfg.LLM.Backoff,
			RequestsPerSec: cfg.LLM.RequestsPerSec,
		}, zlog)
		extractor := llm.NewExtractor(client, zlog)
		structured = extractor
		justifier = extractor
		zlog.Info("llm extraction enabled",
			zap.String("base_url", cfg.LLM.BaseURL),
			zap.String("model", cfg.LLM.Model),
		)
	} else {
		zlog.Info("llm extraction disabled, running heuristics only")
	}

	// Usecase layer
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		TolerancePercent:   cfg.Matching.TolerancePercent,
		ToleranceOverrides: cfg.Matching.ToleranceOverrides,
	})
	scorer := usecase.NewScoringService(usecase.ScoreConfig{
		KeyRequirements: cfg.Matching.KeyRequirements,
		KeyPolicy:       cfg.Matching.KeyPolicy,
		SequenceFilter:  cfg.Matching.SequenceFilter,
	})

	analysis := usecase.NewAnalysisService(store, textExtractor, structured, matcher, scorer, justifier,
		usecase.AnalysisConfig{
			Strategy:            cfg.Extraction.Strategy,
			EmbedModel:          cfg.Extraction.EmbedModel,
			TopK:                cfg.Extraction.TopK,
			ChunkWords:          cfg.Extraction.ChunkWords,
			WindowWords:         cfg.Extraction.WindowWords,
			StrideWords:         cfg.Extraction.StrideWords,
			MaxWindows:          cfg.Extraction.MaxWindows,
			SchemaVersion:       cfg.Cache.SchemaVersion,
			EnableJustification: cfg.Extraction.EnableJustification,
			KeyRequirements:     cfg.Matching.KeyRequirements,
		}, zlog)

	// Background cache maintenance
	maintenance := jobs.NewMaintenance(store, cfg.Cache.SchemaVersion, zlog)
	if err := maintenance.Start(); err != nil {
		zlog.Fatal("maintenance scheduler failed", zap.Error(err))
	}
	defer maintenance.Stop()

	// HTTP delivery
	handler := httpDelivery.NewHandler(analysis, zlog)
	router := httpDelivery.SetupRouter(cfg, handler, zlog)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}

func buildStore(cfg *config.Config) (domain.CacheStore, error) {
	switch cfg.Cache.Type {
	case "postgres":
		return cache.NewPostgresStore(cfg.Cache.DSN)
	default:
		return cache.NewMemoryStore(), nil
	}
}
