// Package rank scores a query embedding against the full catalog and
// produces a deterministic ranked order.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
)

// ScoredCandidate pairs a catalog item with its similarity to the query.
// Transient: recomputed per request, never persisted.
type ScoredCandidate struct {
	Item       catalog.Item
	Similarity float64 // cosine, in [-1, 1]
}

// CatalogRanker ranks a query vector against an in-memory catalog by brute
// force. O(N*D) per call; fine for catalogs in the low thousands.
type CatalogRanker struct {
	catalog *catalog.Catalog
}

// NewCatalogRanker creates a ranker over an immutable catalog.
func NewCatalogRanker(c *catalog.Catalog) *CatalogRanker {
	return &CatalogRanker{catalog: c}
}

// Rank returns every catalog item ordered by descending cosine similarity to
// the query vector. The sort is stable: items with equal similarity keep
// their catalog order, which makes ties deterministic. No truncation happens
// here; thresholding and top-K belong to the assembler.
func (r *CatalogRanker) Rank(_ context.Context, query []float32) ([]ScoredCandidate, error) {
	if len(query) != r.catalog.Dims() {
		return nil, fmt.Errorf("rank: query dims %d != catalog dims %d", len(query), r.catalog.Dims())
	}

	items := r.catalog.Items()
	ranked := make([]ScoredCandidate, len(items))
	for i, it := range items {
		ranked[i] = ScoredCandidate{Item: it, Similarity: Cosine(query, it.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked, nil
}

// Cosine returns the cosine similarity of two vectors: their dot product
// divided by the product of magnitudes. A zero-magnitude vector scores 0
// against everything.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
