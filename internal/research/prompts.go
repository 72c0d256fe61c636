package research

import (
	"fmt"
	"strings"
)

func buildAnalysisPrompt(query, context string) string {
	if context == "" {
		context = "Modern challenges and contemporary life"
	}
	return fmt.Sprintf(`You are an expert spiritual counselor analyzing a modern person's problem or question.

User's Query: "%s"
Context: %s

Your task:
1. Identify the core issue or question (consider modern context like digital age, social media, work pressure)
2. Extract key themes (stress, relationships, purpose, decision-making, leadership, resilience, ethics)
3. Identify which Bhagavad Gita principles might be relevant (karma yoga, dharma, detachment, equanimity, self-knowledge)

Return a structured analysis in this format:
CORE_ISSUE: [one sentence describing the core problem]
KEY_THEMES: [comma-separated list of themes]
RELEVANT_PRINCIPLES: [comma-separated list of Gita concepts]
MODERN_CONTEXT: [note any generational or digital-age context]`, query, context)
}

func buildQuestionsPrompt(analysis string, count int) string {
	return fmt.Sprintf(`Based on this problem analysis, generate %d specific research questions to search in the Bhagavad Gita:

%s

Generate questions that will help find relevant verses about the identified themes and the practical application of Gita principles. Make questions specific and focused.

Return ONLY the questions, one per line, no numbering.`, count, analysis)
}

func buildSynthesisPrompt(query, context, analysis string, matches []VerseMatch) string {
	if context == "" {
		context = "Modern challenges and contemporary life"
	}

	versesContext := "No verses were retrieved. State clearly that the guidance is general and not grounded in specific verses."
	if len(matches) > 0 {
		var sb strings.Builder
		for i, m := range matches {
			if i > 0 {
				sb.WriteString("\n---\n")
			}
			sb.WriteString(fmt.Sprintf("Verse %s (Chapter %d, Verse %d):\n", m.ID, m.Chapter, m.VerseNumber))
			if m.Transliteration != "" {
				sb.WriteString("Transliteration: " + m.Transliteration + "\n")
			}
			if m.WordMeanings != "" {
				sb.WriteString("Word Meanings: " + m.WordMeanings + "\n")
			}
			sb.WriteString("Translation: " + m.Translation + "\n")
			if m.Purport != "" {
				sb.WriteString("Purport: " + m.Purport + "\n")
			}
		}
		versesContext = sb.String()
	}

	return fmt.Sprintf(`You are an expert spiritual guide helping a modern person solve their problem using Bhagavad Gita wisdom.

User's Problem: %s
Context: %s

Problem Analysis:
%s

Relevant Bhagavad Gita Verses:
%s

CRITICAL INSTRUCTIONS:
1. Use ONLY the verses provided above; do not draw on outside knowledge of the Gita.
2. Cite verses by ID in bold (e.g. **BG 2.47**) and quote translations with > blockquotes (no quotation marks inside blockquotes).
3. Produce THREE sections with these exact markdown headers:

## A. ANALYSIS
Explain how the provided verses address this specific problem, quoting translations and purports.

## B. PRACTICAL GUIDANCE
Specific, actionable steps based on the Gita principles from the verses above, as numbered lists.

## C. SPIRITUAL EXERCISES
5-7 concrete exercises or practices, each referencing the verse(s) it is based on. This section is mandatory.`, query, context, analysis, versesContext)
}
