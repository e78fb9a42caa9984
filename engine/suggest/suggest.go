// Package suggest orchestrates the recommendation pipeline. It accepts a
// raw user prompt, normalizes and corrects it, embeds the corrected text,
// ranks the catalog by cosine similarity, applies the category-intent
// filter and threshold, and assembles the top-K suggestions.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
	"github.com/MuseLabAI/muse-mvp/engine/intent"
	"github.com/MuseLabAI/muse-mvp/engine/normalize"
	"github.com/MuseLabAI/muse-mvp/engine/rank"
	"github.com/MuseLabAI/muse-mvp/pkg/metrics"
)

// Embedder is the query-time embedding capability. It must be the same
// provider instance that embedded the catalog.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ranker produces the full catalog ranked by descending similarity to a
// query embedding.
type Ranker interface {
	Rank(ctx context.Context, embedding []float32) ([]rank.ScoredCandidate, error)
}

// Options configures suggestion policy. The two historically observed
// behaviours (hard threshold vs. none, top 3 vs. top 5) are expressed here
// instead of being baked in.
type Options struct {
	// TopK is the maximum number of suggestions returned.
	TopK int
	// MinSimilarity discards candidates scoring below it. Zero disables
	// the threshold and rank order alone decides.
	MinSimilarity float64
	// EmbedTimeout bounds the external embedding call, whose latency is
	// otherwise unbounded from this service's perspective.
	EmbedTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:          3,
		MinSimilarity: 0,
		EmbedTimeout:  10 * time.Second,
	}
}

// NoMatchMessage is returned when no candidate survives filtering. This is
// a successful outcome, not an error.
const NoMatchMessage = "no sufficiently relevant project found"

// Deps holds the external dependencies of the suggestion service.
type Deps struct {
	Normalizer *normalize.Normalizer
	Embedder   Embedder
	Ranker     Ranker
	Metrics    *metrics.Registry // optional
	Logger     *slog.Logger
}

// Service is the suggestion orchestration service. Safe for concurrent use:
// it holds no per-request state and the catalog behind the ranker is
// immutable.
type Service struct {
	normalizer *normalize.Normalizer
	embedder   Embedder
	ranker     Ranker
	opts       Options
	logger     *slog.Logger

	reqCount func(outcome string) *metrics.Counter
	latency  *metrics.Histogram
	topScore *metrics.Histogram
}

// New creates a suggestion Service.
func New(deps Deps, opts Options) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultOptions().EmbedTimeout
	}

	reg := deps.Metrics
	if reg == nil {
		reg = metrics.New()
	}
	return &Service{
		normalizer: deps.Normalizer,
		embedder:   deps.Embedder,
		ranker:     deps.Ranker,
		opts:       opts,
		logger:     log,
		reqCount: func(outcome string) *metrics.Counter {
			return reg.Counter(
				metrics.WithLabels("muse_suggest_requests_total", "outcome", outcome),
				"Suggest requests by outcome.")
		},
		latency:  reg.Histogram("muse_suggest_duration_seconds", "Suggest request latency.", nil),
		topScore: reg.Histogram("muse_suggest_top_similarity", "Best similarity per answered request.", metrics.SimilarityBuckets),
	}
}

// Suggestion is one recommended project.
type Suggestion struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Technology      string   `json:"technology,omitempty"`
	Similarity      float64  `json:"similarity"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// Result is the outcome of one Suggest call. Suggestions may be empty; in
// that case Message explains why and the call is still a success.
type Result struct {
	CorrectedPrompt string       `json:"corrected_prompt"`
	Suggestions     []Suggestion `json:"suggestions"`
	Message         string       `json:"message,omitempty"`
}

// Suggest runs the full pipeline for one prompt. Deterministic for a fixed
// catalog and model: the same prompt yields the same result.
func (s *Service) Suggest(ctx context.Context, rawPrompt string) (*Result, error) {
	start := time.Now()

	corrected, keywords, err := s.normalizer.Normalize(ctx, rawPrompt)
	if err != nil {
		s.reqCount("rejected").Inc()
		return nil, err
	}

	cat, hasIntent := intent.Detect(corrected)

	embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	defer cancel()

	queryVec, err := s.embedder.Embed(embedCtx, corrected)
	if err != nil {
		s.reqCount("error").Inc()
		return nil, fmt.Errorf("suggest: embed prompt: %w", errors.Join(domain.ErrEmbedding, err))
	}

	ranked, err := s.ranker.Rank(ctx, queryVec)
	if err != nil {
		s.reqCount("error").Inc()
		return nil, fmt.Errorf("suggest: rank: %w", err)
	}

	suggestions := assemble(ranked, cat, hasIntent, keywords, s.opts)

	s.latency.Since(start)
	result := &Result{CorrectedPrompt: corrected, Suggestions: suggestions}
	if len(suggestions) == 0 {
		result.Message = NoMatchMessage
		s.reqCount("no_match").Inc()
	} else {
		s.reqCount("ok").Inc()
		s.topScore.Observe(suggestions[0].Similarity)
	}

	s.logger.Info("suggest done",
		"prompt_len", len(rawPrompt),
		"intent", string(cat),
		"results", len(suggestions),
		"duration", time.Since(start),
	)
	return result, nil
}
