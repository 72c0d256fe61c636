package verses

import "strings"

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "what": true, "how": true, "why": true, "can": true,
	"are": true, "was": true, "were": true, "have": true, "has": true,
	"does": true, "should": true, "about": true, "from": true, "when": true,
	"you": true, "your": true, "not": true,
}

// ftsQuery turns free text into an FTS5 MATCH expression: terms are
// lowercased, stripped of punctuation and stop words, quoted, and OR-ed so
// any term can match. Returns "" when nothing searchable remains.
func ftsQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var terms []string
	for _, f := range fields {
		if len(f) < 3 || stopWords[f] {
			continue
		}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
