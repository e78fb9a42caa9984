package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Injection patterns — SQL/template fragments that should never appear in a
// free-text project prompt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|EXEC|UNION)\b.*\b(TABLE|FROM|INTO|SELECT|SET)\b`),
	regexp.MustCompile(`(?i)(--|;)\s*(DROP|DELETE|SELECT)`),
	regexp.MustCompile(`(?i)\$\{.*\}`), // template injection
}

// maxPromptLength caps prompt size before any embedding work happens.
const maxPromptLength = 2000

// ValidateQuery validates a user prompt. An empty or whitespace-only prompt
// is rejected with ErrEmptyPrompt before any external call is made.
func ValidateQuery(q Query) error {
	text := strings.TrimSpace(q.Prompt)

	if text == "" {
		return NewValidationError("prompt", q.Prompt, ErrEmptyPrompt)
	}

	if utf8.RuneCountInString(text) > maxPromptLength {
		return NewValidationError("prompt", text[:32]+"...", ErrPromptTooLong)
	}

	for _, pat := range injectionPatterns {
		if pat.MatchString(text) {
			return NewValidationError("prompt", text, ErrPromptInjection)
		}
	}

	return nil
}
