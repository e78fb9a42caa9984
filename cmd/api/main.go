// Package main implements the Muse recommendation API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/domain"
	"github.com/MuseLabAI/muse-mvp/engine/normalize"
	"github.com/MuseLabAI/muse-mvp/engine/rank"
	"github.com/MuseLabAI/muse-mvp/engine/semantic"
	"github.com/MuseLabAI/muse-mvp/engine/suggest"
	"github.com/MuseLabAI/muse-mvp/pkg/metrics"
	"github.com/MuseLabAI/muse-mvp/pkg/mid"
	"github.com/MuseLabAI/muse-mvp/pkg/natsutil"
	"github.com/MuseLabAI/muse-mvp/pkg/ollama"
	"github.com/MuseLabAI/muse-mvp/pkg/resilience"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	OllamaURL     string
	EmbedModel    string
	CorrectModel  string
	CatalogGlob   string
	CachePath     string
	IndexBackend  string
	QdrantURL     string
	Collection    string
	NATSURL       string
	CORSOrigin    string
	TopK          int
	MinSimilarity float64
	RateLimit     float64
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:    envOr("EMBED_MODEL", "nomic-embed-text"),
		CorrectModel:  envOr("CORRECT_MODEL", "llama3.2"),
		CatalogGlob:   envOr("CATALOG_GLOB", "catalog/*.yaml"),
		CachePath:     envOr("CACHE_PATH", ""),
		IndexBackend:  envOr("INDEX_BACKEND", "memory"),
		QdrantURL:     envOr("QDRANT_URL", "localhost:6334"),
		Collection:    envOr("QDRANT_COLLECTION", "muse"),
		NATSURL:       envOr("NATS_URL", ""),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		TopK:          envOrInt("TOP_K", 3),
		MinSimilarity: envOrFloat("MIN_SIMILARITY", 0),
		RateLimit:     envOrFloat("RATE_LIMIT", 50),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Load catalog specs ---
	specs, err := catalog.LoadGlob(cfg.CatalogGlob)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// --- Embedding cache ---
	buildOpts := catalog.DefaultBuildOpts()
	buildOpts.Logger = logger
	if cfg.CachePath != "" {
		cache, err := catalog.OpenCache(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("open embed cache: %w", err)
		}
		defer cache.Close()
		buildOpts.Cache = cache
	}

	// --- Build catalog (embeds once, via Ollama) ---
	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	cat, err := catalog.Build(ctx, specs, embedder, buildOpts)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	logger.Info("catalog ready", "projects", cat.Len(), "dims", cat.Dims())

	// --- Choose ranking backend ---
	var ranker suggest.Ranker = rank.NewCatalogRanker(cat)
	if cfg.IndexBackend == "qdrant" {
		idx, err := semantic.New(cfg.QdrantURL, cfg.Collection)
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
		logger.Info("qdrant index synced", "collection", cfg.Collection)
		ranker = idx
	}

	// --- Build suggestion service ---
	reg := metrics.New()
	corrector := ollama.NewCorrectClient(cfg.OllamaURL, cfg.CorrectModel)
	svc := suggest.New(suggest.Deps{
		Normalizer: normalize.New(corrector, logger),
		Embedder:   embedder,
		Ranker:     ranker,
		Metrics:    reg,
		Logger:     logger,
	}, suggest.Options{
		TopK:          cfg.TopK,
		MinSimilarity: cfg.MinSimilarity,
	})

	// --- Optional NATS request/reply transport ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("muse-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		sub, err := natsutil.Serve(nc, "muse.suggest", func(ctx context.Context, req SuggestRequest) (*suggest.Result, error) {
			return svc.Suggest(ctx, req.Prompt)
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		logger.Info("nats transport up", "subject", "muse.suggest")
	}

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/projects", handleProjects(cat))
	mux.HandleFunc("POST /api/suggest", handleSuggest(svc, logger))
	mux.Handle("GET /metrics", reg.Handler())

	limiter := resilience.NewLimiter(resilience.LimiterOpts{
		Rate:  cfg.RateLimit,
		Burst: int(cfg.RateLimit),
	})
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("muse-api"),
		mid.RateLimit(limiter),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ProjectView is one catalog entry as exposed by GET /api/projects.
// Embeddings stay internal.
type ProjectView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Technology  string `json:"technology,omitempty"`
}

func handleProjects(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := cat.Items()
		views := make([]ProjectView, len(items))
		for i, it := range items {
			views[i] = ProjectView{
				Title:       it.Title,
				Description: it.Description,
				Category:    it.Category,
				Technology:  it.Technology,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

// SuggestRequest is the JSON body for POST /api/suggest and the NATS
// muse.suggest subject.
type SuggestRequest struct {
	Prompt string `json:"prompt"`
}

func handleSuggest(svc *suggest.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SuggestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Suggest(r.Context(), req.Prompt)
		if err != nil {
			status, msg := errorStatus(err)
			if status >= 500 {
				logger.Error("suggest failed", "err", err)
			}
			writeError(w, status, msg)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// errorStatus maps engine errors to HTTP responses. Client mistakes are
// 400s with the real reason; provider failures surface as 502 so callers
// can tell them from bugs in this service.
func errorStatus(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
		return http.StatusBadRequest, "prompt is required"
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrEmbedding):
		return http.StatusBadGateway, "embedding provider unavailable"
	case errors.Is(err, domain.ErrCatalogEmpty):
		return http.StatusServiceUnavailable, "catalog unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
