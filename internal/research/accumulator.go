package research

import (
	"sort"
	"sync"
)

// accumulator collects verse matches across sub-questions, deduplicating by
// verse ID with max-score-wins. Safe for concurrent Add from the parallel
// retrieval fan-out; each pipeline invocation owns its own accumulator.
type accumulator struct {
	mu      sync.Mutex
	byVerse map[string]VerseMatch
}

func newAccumulator() *accumulator {
	return &accumulator{byVerse: make(map[string]VerseMatch)}
}

// Add keeps the match unless one with the same verse ID and a higher score
// is already present. Returns true when the verse was not seen before.
func (a *accumulator) Add(m VerseMatch) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, seen := a.byVerse[m.ID]
	if !seen || m.Score > existing.Score {
		a.byVerse[m.ID] = m
	}
	return !seen
}

func (a *accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byVerse)
}

// Matches returns the deduplicated matches ordered by descending score,
// capped at limit when limit > 0.
func (a *accumulator) Matches(limit int) []VerseMatch {
	a.mu.Lock()
	matches := make([]VerseMatch, 0, len(a.byVerse))
	for _, m := range a.byVerse {
		matches = append(matches, m)
	}
	a.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
