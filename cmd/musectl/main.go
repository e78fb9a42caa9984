// Package main implements musectl, the operator CLI for the Muse
// recommendation service: catalog validation, index warming, and one-off
// suggestions without a running API server.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	catalogGlob string
	ollamaURL   string
	embedModel  string
	cachePath   string
)

var rootCmd = &cobra.Command{
	Use:   "musectl",
	Short: "Operator CLI for the Muse project recommendation service",
	Long: `musectl works directly on the project catalog the API serves from.

Example usage:
  musectl validate                       # Check catalog files
  musectl index                          # Warm the embedding cache
  musectl suggest "an app for plants"    # Run a suggestion locally`,
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogGlob, "catalog", envOr("CATALOG_GLOB", "catalog/*.yaml"), "catalog file glob")
	rootCmd.PersistentFlags().StringVar(&ollamaURL, "ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
	rootCmd.PersistentFlags().StringVar(&embedModel, "model", envOr("EMBED_MODEL", "nomic-embed-text"), "embedding model")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", envOr("CACHE_PATH", "muse-cache.db"), "embedding cache path")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
