package research

import (
	"errors"
	"strings"

	"github.com/techleadershub/gita-counsellor/internal/verses"
)

// ErrEmptyQuery rejects requests without a usable query before the pipeline
// starts.
var ErrEmptyQuery = errors.New("query must not be empty")

// Request is one research invocation. Transient, never persisted.
type Request struct {
	Query   string `json:"query" description:"The life question to research"`
	Context string `json:"context,omitempty" description:"Optional free-text context about the situation"`
}

// Validate rejects malformed client input.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// VerseMatch pairs a verse with the similarity score and the sub-question
// that retrieved it. Matches are deduplicated by verse ID; on a duplicate
// the higher score wins.
type VerseMatch struct {
	verses.Verse
	Score    float64 `json:"relevance_score"`
	Question string  `json:"research_question,omitempty"`
}

// Result is the assembled answer. Created once at pipeline completion and
// immutable thereafter; returned to the client, never persisted.
type Result struct {
	Answer    string       `json:"answer"`
	Analysis  string       `json:"analysis"`
	Guidance  string       `json:"guidance"`
	Exercises string       `json:"exercises"`
	Verses    []VerseMatch `json:"verses"`
	Query     string       `json:"query"`
}
