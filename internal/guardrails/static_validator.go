package guardrails

import (
	"regexp"
	"strings"
)

// DefaultBanWords is the static blocklist checked before any model call.
var DefaultBanWords = []string{
	"kill yourself",
	"how to make a bomb",
	"how to hack",
	"credit card number",
}

var (
	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
		regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+`),
		regexp.MustCompile(`(?i)system\s*prompt`),
		regexp.MustCompile(`(?i)pretend\s+to\s+be\s+`),
	}
	piiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),           // SSN
		regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),         // card numbers
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), // email
	}
)

type StaticValidator struct {
	banWords []string
}

func NewStaticValidator(banWords []string) *StaticValidator {
	return &StaticValidator{banWords: banWords}
}

func (v *StaticValidator) Validate(input string) ValidationResult {
	lower := strings.ToLower(input)

	for _, word := range v.banWords {
		if strings.Contains(lower, word) {
			return ValidationResult{
				IsValid:  false,
				Reason:   "Input contains blocked content",
				Category: "toxic",
				Method:   "static",
			}
		}
	}

	for _, p := range injectionPatterns {
		if p.MatchString(input) {
			return ValidationResult{
				IsValid:  false,
				Reason:   "Input looks like a prompt injection attempt",
				Category: "prompt_injection",
				Method:   "static",
			}
		}
	}

	for _, p := range piiPatterns {
		if p.MatchString(input) {
			return ValidationResult{
				IsValid:  false,
				Reason:   "Input contains personal identifiable information",
				Category: "pii",
				Method:   "static",
			}
		}
	}

	return ValidationResult{
		IsValid: true,
		Method:  "static",
	}
}
