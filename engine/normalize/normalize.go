// Package normalize prepares a raw user prompt for matching: it runs the
// prompt through a spelling-correction capability and derives a coarse
// keyword set used later to annotate suggestions.
package normalize

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
)

// Corrector is the external spelling-correction capability. It is treated as
// an opaque string -> string function: the corrected text may be identical
// to, shorter than, or longer than the input, and carries no grammatical
// guarantee.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Normalizer validates and corrects prompts and extracts keywords.
type Normalizer struct {
	corrector Corrector
	logger    *slog.Logger
}

// New creates a Normalizer. A nil corrector disables correction entirely and
// the prompt passes through unchanged.
func New(corrector Corrector, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{corrector: corrector, logger: logger}
}

// Normalize rejects empty prompts, corrects the text, and extracts keywords
// from the corrected form. When the corrector fails the original prompt is
// used as-is; correction is best-effort and never fails a request.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, map[string]struct{}, error) {
	if err := domain.ValidateQuery(domain.Query{Prompt: raw}); err != nil {
		return "", nil, err
	}

	corrected := strings.TrimSpace(raw)
	if n.corrector != nil {
		fixed, err := n.corrector.Correct(ctx, corrected)
		if err != nil {
			n.logger.Warn("normalize: correction failed, using raw prompt", "err", err)
		} else if strings.TrimSpace(fixed) != "" {
			corrected = strings.TrimSpace(fixed)
		}
	}

	return corrected, Keywords(corrected), nil
}

// Keywords returns the set of lowercase alphabetic tokens longer than three
// characters, split on whitespace. Deliberately coarse: no stemming, no
// stopword removal, duplicates collapse.
func Keywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if len(tok) <= 3 || !alphabetic(tok) {
			continue
		}
		keywords[tok] = struct{}{}
	}
	return keywords
}

func alphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
