package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/licitamatch/backend/config"
	"github.com/licitamatch/backend/internal/domain"
	"github.com/licitamatch/backend/internal/usecase"
)

var (
	editalJSONPath  string
	productJSONPath string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run matching and scoring over pre-extracted JSON documents",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCompare()
	},
}

func init() {
	compareCmd.Flags().StringVar(&editalJSONPath, "edital-json", "", "path to the extracted edital JSON")
	compareCmd.Flags().StringVar(&productJSONPath, "produto-json", "", "path to the extracted product JSON")
	compareCmd.MarkFlagRequired("edital-json")
	compareCmd.MarkFlagRequired("produto-json")
	rootCmd.AddCommand(compareCmd)
}

func runCompare() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var rawProduct domain.ProductDocument
	if err := readJSON(productJSONPath, &rawProduct); err != nil {
		return fmt.Errorf("reading product JSON: %w", err)
	}
	var rawEdital domain.EditalDocument
	if err := readJSON(editalJSONPath, &rawEdital); err != nil {
		return fmt.Errorf("reading edital JSON: %w", err)
	}

	// Rebuild through the constructors so key and bound invariants hold.
	product := domain.NewProductDocument(rawProduct.Name, rawProduct.ProductType, rawProduct.Attributes)
	edital := domain.NewEditalDocument(rawEdital.Item, rawEdital.ProductType, rawEdital.Requirements)

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		TolerancePercent:   cfg.Matching.TolerancePercent,
		ToleranceOverrides: cfg.Matching.ToleranceOverrides,
	})
	scorer := usecase.NewScoringService(usecase.ScoreConfig{
		KeyRequirements: cfg.Matching.KeyRequirements,
		KeyPolicy:       cfg.Matching.KeyPolicy,
		SequenceFilter:  cfg.Matching.SequenceFilter,
	})

	matching := matcher.Compare(product, edital)
	score := scorer.ComputeScoreWithKeys(matching, edital, usecase.ResolvePrincipals(cfg.Matching.KeyRequirements, product))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any{
		"matching": matching,
		"score":    score,
	})
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
