package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
	"github.com/MuseLabAI/muse-mvp/pkg/fn"
)

// Embedder is the batch embedding capability the catalog build needs. The
// same provider instance must later serve query-time embedding; mixing
// embedding spaces is prevented by wiring one client into both paths.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// BuildOpts configures catalog building.
type BuildOpts struct {
	// Cache, when non-nil, is consulted before embedding and updated after.
	Cache *EmbedCache
	// BatchSize is the max texts per embedding request.
	BatchSize int
	// Workers bounds concurrent embedding batches.
	Workers int
	// OnEmbedded, when non-nil, is called once per newly-embedded item.
	OnEmbedded func()
	Logger     *slog.Logger
}

// DefaultBuildOpts returns sensible build defaults.
func DefaultBuildOpts() BuildOpts {
	return BuildOpts{BatchSize: 32, Workers: 4}
}

// Build derives combined text for every spec, embeds it (through the cache
// when one is configured), and returns the immutable catalog. The item order
// of specs is preserved exactly; embeddings stay index-aligned with it.
func Build(ctx context.Context, specs []ItemSpec, embedder Embedder, opts BuildOpts) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, domain.ErrCatalogEmpty
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBuildOpts().BatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultBuildOpts().Workers
	}

	model := embedder.Model()
	items := make([]Item, len(specs))
	var missing []int // indexes still needing an embedding
	for i, spec := range specs {
		items[i] = Item{
			Title:        spec.Title,
			Description:  spec.Description,
			Category:     spec.Category,
			Technology:   spec.Technology,
			CombinedText: CombinedText(spec.Title, spec.Description, spec.Technology),
		}
		if opts.Cache != nil {
			if vec, ok := opts.Cache.Get(model, items[i].CombinedText); ok {
				items[i].Embedding = vec
				continue
			}
		}
		missing = append(missing, i)
	}
	log.Info("catalog build", "items", len(specs), "cached", len(specs)-len(missing), "to_embed", len(missing))

	if len(missing) > 0 {
		batches := fn.Chunk(missing, opts.BatchSize)
		results := fn.ParMapResult(batches, opts.Workers, func(batch []int) fn.Result[[][]float32] {
			texts := fn.Map(batch, func(i int) string { return items[i].CombinedText })
			return fn.FromPair(embedder.EmbedBatch(ctx, texts))
		})
		collected, err := fn.Collect(results).Unwrap()
		if err != nil {
			return nil, fmt.Errorf("catalog: embed items: %w", err)
		}

		for bi, batch := range batches {
			vecs := collected[bi]
			if len(vecs) != len(batch) {
				return nil, fmt.Errorf("catalog: embedder returned %d vectors for %d texts", len(vecs), len(batch))
			}
			for j, i := range batch {
				items[i].Embedding = vecs[j]
				if opts.Cache != nil {
					if err := opts.Cache.Put(model, items[i].CombinedText, vecs[j]); err != nil {
						log.Warn("catalog: cache write failed", "title", items[i].Title, "err", err)
					}
				}
				if opts.OnEmbedded != nil {
					opts.OnEmbedded()
				}
			}
		}
	}

	return New(items)
}
