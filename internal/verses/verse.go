package verses

import "strings"

// Verse is one entry of the source text. Immutable once ingested,
// unique by ID ("2.47" style chapter.verse identifiers).
type Verse struct {
	ID              string `json:"verse_id"`
	Chapter         int    `json:"chapter"`
	VerseNumber     int    `json:"verse_number"`
	Sanskrit        string `json:"sanskrit,omitempty"`
	Transliteration string `json:"transliteration,omitempty"`
	WordMeanings    string `json:"word_meanings,omitempty"`
	Translation     string `json:"translation"`
	Purport         string `json:"purport,omitempty"`
}

// Filter narrows a verse listing. Zero values mean "any".
type Filter struct {
	Chapter     int
	VerseNumber int
	VerseID     string
}

// EmbeddingText builds the text representation indexed by the vector store.
func (v Verse) EmbeddingText() string {
	parts := []string{"Verse: " + v.ID}
	if v.Sanskrit != "" {
		parts = append(parts, "Sanskrit: "+v.Sanskrit)
	}
	if v.Transliteration != "" {
		parts = append(parts, "Transliteration: "+v.Transliteration)
	}
	if v.WordMeanings != "" {
		parts = append(parts, "Word meanings: "+v.WordMeanings)
	}
	if v.Translation != "" {
		parts = append(parts, "Translation: "+v.Translation)
	}
	if v.Purport != "" {
		parts = append(parts, "Purport: "+v.Purport)
	}
	return strings.Join(parts, "\n\n")
}
