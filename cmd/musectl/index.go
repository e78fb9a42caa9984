package main

import (
	"fmt"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/semantic"
	"github.com/MuseLabAI/muse-mvp/pkg/ollama"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	indexQdrantURL  string
	indexCollection string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the catalog and warm the embedding cache",
	Long: `Embed every catalog item, writing vectors into the embedding cache so
the API starts without re-embedding. With --qdrant, the catalog is also
synced into a Qdrant collection.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexQdrantURL, "qdrant", "", "Qdrant gRPC address to sync into (optional)")
	indexCmd.Flags().StringVar(&indexCollection, "collection", "muse", "Qdrant collection name")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	specs, err := catalog.LoadGlob(catalogGlob)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	cache, err := catalog.OpenCache(cachePath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	bar := progressbar.NewOptions(len(specs),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.OutOrStdout())
		}),
	)

	opts := catalog.DefaultBuildOpts()
	opts.Cache = cache
	opts.OnEmbedded = func() { _ = bar.Add(1) }

	embedder := ollama.NewEmbedClient(ollamaURL, embedModel)
	cat, err := catalog.Build(ctx, specs, embedder, opts)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	_ = bar.Finish()

	cached, _ := cache.Count()
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d projects (%d vectors cached, %d dims)\n", cat.Len(), cached, cat.Dims())

	if indexQdrantURL == "" {
		return nil
	}

	idx, err := semantic.New(indexQdrantURL, indexCollection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer idx.Close()

	if err := idx.EnsureCollection(ctx, cat.Dims()); err != nil {
		return err
	}
	if err := idx.Sync(ctx, cat.Items()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d projects into qdrant collection %q\n", cat.Len(), indexCollection)
	return nil
}
