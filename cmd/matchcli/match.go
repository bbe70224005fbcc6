package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/licitamatch/backend/config"
	"github.com/licitamatch/backend/internal/domain"
	"github.com/licitamatch/backend/internal/infrastructure/cache"
	"github.com/licitamatch/backend/internal/infrastructure/llm"
	"github.com/licitamatch/backend/internal/infrastructure/pdftext"
	"github.com/licitamatch/backend/internal/logger"
	"github.com/licitamatch/backend/internal/usecase"
)

var (
	editalPath  string
	productPath string
	noLLM       bool
	summaryOnly bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Analyze one edital PDF against one product datasheet PDF",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMatch(cmd)
	},
}

func init() {
	matchCmd.Flags().StringVar(&editalPath, "edital", "", "path to the edital PDF")
	matchCmd.Flags().StringVar(&productPath, "produto", "", "path to the product datasheet PDF")
	matchCmd.Flags().BoolVar(&noLLM, "no-llm", false, "run heuristics only, skip the generation backend")
	matchCmd.Flags().BoolVar(&summaryOnly, "summary", false, "print the condensed client summary instead of the full result")
	matchCmd.MarkFlagRequired("edital")
	matchCmd.MarkFlagRequired("produto")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")

	zlog, err := logger.New(cfg.Server.Environment, debug || cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer zlog.Sync()

	// The CLI always runs on the in-memory store; Postgres caching is a
	// server concern.
	store := cache.NewMemoryStore()
	textExtractor := pdftext.NewExtractor(nil, zlog)

	var structured domain.StructuredExtractor
	var justifier domain.Justifier
	if cfg.LLM.Enabled && !noLLM {
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
	}

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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := analysis.Analyze(ctx, editalPath, productPath)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	var out any = result
	if summaryOnly {
		out = usecase.BuildClientSummary(result, analysis.Principals(result.Product))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
