// Package intent detects a category restriction embedded in free text.
// It is a substring heuristic, not NLP classification: a prompt like
// "hardware for my software project" resolves to Software because that
// substring is checked first, and a hardware project whose description
// merely mentions "software" can still trip the filter. False positives are
// an accepted property of the heuristic, not a defect.
package intent

import (
	"strings"

	"github.com/MuseLabAI/muse-mvp/engine/domain"
)

// Detect returns the category restriction found in the corrected prompt,
// if any. Matching is case-insensitive; "software" wins over "hardware"
// when both substrings appear.
func Detect(corrected string) (domain.Category, bool) {
	lower := strings.ToLower(corrected)
	switch {
	case strings.Contains(lower, "software"):
		return domain.CategorySoftware, true
	case strings.Contains(lower, "hardware"):
		return domain.CategoryHardware, true
	default:
		return "", false
	}
}

// Allows reports whether an item with the given category passes the filter.
// With no detected intent every item passes; with an intent only items whose
// category equals it (ignoring case) pass, so items of unknown categories
// are excluded.
func Allows(itemCategory string, cat domain.Category, detected bool) bool {
	if !detected {
		return true
	}
	return domain.EqualCategory(itemCategory, cat)
}
