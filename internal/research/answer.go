package research

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var collapseSpace = regexp.MustCompile(`\s+`)

// assembleAnswer renders the full markdown answer from the parsed sections
// and the cited verses.
func assembleAnswer(query string, s sections, matches []VerseMatch) string {
	var refs []string
	for _, m := range matches {
		refs = append(refs, m.ID)
	}
	sort.Strings(refs)

	var sb strings.Builder
	sb.WriteString("# Guidance from Bhagavad Gita\n\n")
	sb.WriteString("## Your Question\n\n> " + query + "\n\n---\n\n")
	sb.WriteString("## Analysis\n\n" + s.Analysis + "\n\n---\n\n")
	if s.Guidance != "" {
		sb.WriteString("## Practical Guidance\n\n" + s.Guidance + "\n\n---\n\n")
	}
	sb.WriteString("## Spiritual Exercises\n\n" + s.Exercises + "\n\n---\n\n")

	if len(matches) > 0 {
		sb.WriteString("## Key Verses Referenced\n\n")
		for _, m := range matches {
			sb.WriteString(formatVerse(m))
		}
		sb.WriteString(fmt.Sprintf("**All Referenced Verses:** %s\n\n", strings.Join(refs, ", ")))
	}

	sb.WriteString("*This guidance is based on the teachings of **Bhagavad Gita As It Is** by A.C. Bhaktivedanta Swami Prabhupada.*\n")
	return sb.String()
}

func formatVerse(m VerseMatch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#### **%s** — Chapter %d, Verse %d\n\n", m.ID, m.Chapter, m.VerseNumber))
	if t := strings.TrimSpace(m.Transliteration); t != "" {
		sb.WriteString("*" + t + "*\n\n")
	}
	if w := strings.TrimSpace(m.WordMeanings); w != "" {
		sb.WriteString("**Word Meanings:**\n" + w + "\n\n")
	}
	translation := strings.TrimSpace(collapseSpace.ReplaceAllString(m.Translation, " "))
	if translation != "" {
		sb.WriteString("> " + translation + "\n\n")
	}
	return sb.String()
}
