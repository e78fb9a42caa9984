package suggest

import (
	"math"
	"sort"
	"strings"

	"github.com/MuseLabAI/muse-mvp/engine/catalog"
	"github.com/MuseLabAI/muse-mvp/engine/domain"
	"github.com/MuseLabAI/muse-mvp/engine/intent"
	"github.com/MuseLabAI/muse-mvp/engine/rank"
)

// assemble walks the ranked candidates from best to worst and collects the
// first TopK that pass the threshold and the intent filter. No keyword
// fallback exists for intentless prompts; similarity order alone decides.
func assemble(ranked []rank.ScoredCandidate, cat domain.Category, hasIntent bool, keywords map[string]struct{}, opts Options) []Suggestion {
	out := make([]Suggestion, 0, opts.TopK)
	for _, cand := range ranked {
		if opts.MinSimilarity > 0 && cand.Similarity < opts.MinSimilarity {
			continue
		}
		if !intent.Allows(cand.Item.Category, cat, hasIntent) {
			continue
		}
		out = append(out, Suggestion{
			Title:           cand.Item.Title,
			Description:     cand.Item.Description,
			Category:        cand.Item.Category,
			Technology:      cand.Item.Technology,
			Similarity:      round2(cand.Similarity),
			MatchedKeywords: matchedKeywords(keywords, cand.Item),
		})
		if len(out) == opts.TopK {
			break
		}
	}
	return out
}

// matchedKeywords intersects the query keywords with tokens from the item's
// title and technology text. Returns nil, not an empty slice, when nothing
// matches: callers distinguish "nothing matched" from "matching skipped".
// The list is sorted so output is deterministic.
func matchedKeywords(keywords map[string]struct{}, item catalog.Item) []string {
	if len(keywords) == 0 {
		return nil
	}

	var matched []string
	seen := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(item.Title + " " + item.Technology)) {
		tok = strings.Trim(tok, ".,!?;:'\"()-")
		if _, ok := keywords[tok]; ok && !seen[tok] {
			seen[tok] = true
			matched = append(matched, tok)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.Strings(matched)
	return matched
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
