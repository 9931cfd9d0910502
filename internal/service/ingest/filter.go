package ingest

import (
	"fmt"
	"strings"
)

const (
	// Shorter than this is noise; longer is a resource-exhaustion risk.
	minTextLength = 20
	maxTextLength = 50000
)

// spamTokens rejects obvious junk before we pay for an LLM call.
var spamTokens = []string{
	"viagra",
	"lottery winner",
	"casino bonus",
	"crypto giveaway",
	"nigerian prince",
	"work from home",
}

// ValidationResult collects every violation, not just the first.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// ValidateInbound is a pure function of the decoded email fields.
func ValidateInbound(from, subject, text string) ValidationResult {
	var errs []string

	if strings.TrimSpace(from) == "" {
		errs = append(errs, "sender address is empty")
	}

	if len(text) < minTextLength {
		errs = append(errs, fmt.Sprintf("text too short (minimum %d characters)", minTextLength))
	} else if len(text) > maxTextLength {
		errs = append(errs, fmt.Sprintf("text too long (maximum %d characters)", maxTextLength))
	}

	haystack := strings.ToLower(subject + "\n" + text)
	for _, token := range spamTokens {
		if strings.Contains(haystack, token) {
			errs = append(errs, fmt.Sprintf("spam token detected: %q", token))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
