package research

import (
	"regexp"
	"strings"
)

var questionNumbering = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// parseQuestions splits the LLM output into sub-questions: one per line,
// numbering and bullets stripped, comment lines skipped, capped at max.
func parseQuestions(content string, max int) []string {
	var questions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = questionNumbering.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if max > 0 && len(questions) == max {
			break
		}
	}
	return questions
}

// sections holds the three parts of a synthesis response.
type sections struct {
	Analysis  string
	Guidance  string
	Exercises string
}

// blockquote quotes sometimes come back wrapped in double quotes; strip them
// so rendered blockquotes read cleanly.
var blockquoteQuotes = regexp.MustCompile(`(?m)^(>\s*)"([^"]+)"(\s*)$`)

// parseSections splits a synthesis response on its ANALYSIS / GUIDANCE /
// EXERCISES markdown headers. When no headers are found the whole text
// becomes the analysis. Exercises falls back to a fixed practice list so the
// section is never empty.
func parseSections(content string) sections {
	content = blockquoteQuotes.ReplaceAllString(content, "${1}${2}${3}")

	var s sections
	var current *string

	for _, line := range strings.Split(content, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		isHeader := strings.HasPrefix(upper, "#") || strings.HasPrefix(upper, "A.") ||
			strings.HasPrefix(upper, "B.") || strings.HasPrefix(upper, "C.")

		switch {
		case isHeader && strings.Contains(upper, "ANALYSIS"):
			current = &s.Analysis
			continue
		case isHeader && (strings.Contains(upper, "GUIDANCE") || strings.Contains(upper, "PRACTICAL")):
			current = &s.Guidance
			continue
		case isHeader && (strings.Contains(upper, "EXERCISE") || strings.Contains(upper, "SPIRITUAL")):
			current = &s.Exercises
			continue
		}

		if current != nil {
			*current += line + "\n"
		}
	}

	s.Analysis = strings.TrimSpace(s.Analysis)
	s.Guidance = strings.TrimSpace(s.Guidance)
	s.Exercises = strings.TrimSpace(s.Exercises)

	if s.Analysis == "" {
		s.Analysis = strings.TrimSpace(content)
	}
	if s.Exercises == "" {
		s.Exercises = fallbackExercises
	}
	return s
}

const fallbackExercises = `1. **Morning Reflection** — begin each day by setting an intention to perform your duties without attachment to results.
2. **Mindful Action** — when facing challenges, remind yourself that you control your effort, not the outcome.
3. **Evening Contemplation** — review whether you acted according to your duty and remained detached from results.
4. **Weekly Service** — dedicate time each week to selfless service of others.
5. **Detachment Practice** — gradually reduce attachment to external validation; focus on the quality of your work.

*Adapt these practices, based on the verses referenced above, to your personal circumstances.*`
