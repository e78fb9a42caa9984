package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/normalize"
	"github.com/MuseLabAI/muse-mvp/engine/rank"
	"github.com/MuseLabAI/muse-mvp/engine/suggest"
	"github.com/MuseLabAI/muse-mvp/pkg/ollama"
	"github.com/spf13/cobra"
)

var (
	suggestTopK         int
	suggestMin          float64
	suggestCorrectModel string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <prompt>",
	Short: "Run a suggestion locally, without the API server",
	Long: `Build the catalog (cache-assisted), run the full suggestion pipeline
for one prompt, and print the ranked results. Useful for trying catalog or
threshold changes before deploying them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&suggestTopK, "top", 3, "maximum suggestions to return")
	suggestCmd.Flags().Float64Var(&suggestMin, "min", 0, "minimum similarity (0 disables)")
	suggestCmd.Flags().StringVar(&suggestCorrectModel, "correct-model", envOr("CORRECT_MODEL", "llama3.2"), "spelling correction model")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt := strings.Join(args, " ")

	specs, err := catalog.LoadGlob(catalogGlob)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	opts := catalog.DefaultBuildOpts()
	if cachePath != "" {
		cache, err := catalog.OpenCache(cachePath)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer cache.Close()
		opts.Cache = cache
	}

	embedder := ollama.NewEmbedClient(ollamaURL, embedModel)
	cat, err := catalog.Build(ctx, specs, embedder, opts)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	svc := suggest.New(suggest.Deps{
		Normalizer: normalize.New(ollama.NewCorrectClient(ollamaURL, suggestCorrectModel), slog.Default()),
		Embedder:   embedder,
		Ranker:     rank.NewCatalogRanker(cat),
	}, suggest.Options{
		TopK:          suggestTopK,
		MinSimilarity: suggestMin,
	})

	result, err := svc.Suggest(ctx, prompt)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.CorrectedPrompt != prompt {
		fmt.Fprintf(out, "corrected: %s\n", result.CorrectedPrompt)
	}
	if result.Message != "" {
		fmt.Fprintln(out, result.Message)
		return nil
	}
	for i, s := range result.Suggestions {
		fmt.Fprintf(out, "%d. %s  (%.2f, %s)\n", i+1, s.Title, s.Similarity, s.Category)
		fmt.Fprintf(out, "   %s\n", s.Description)
		if len(s.MatchedKeywords) > 0 {
			fmt.Fprintf(out, "   keywords: %s\n", strings.Join(s.MatchedKeywords, ", "))
		}
	}
	return nil
}
