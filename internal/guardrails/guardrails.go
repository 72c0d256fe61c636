package guardrails

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/techleadershub/gita-counsellor/internal/llm"
)

type Guardrails struct {
	staticValidator *StaticValidator
	claudeValidator *ClaudeValidator
	enableClaude    bool
}

// NewGuardrails builds the two-tier validator. When client is nil only the
// static rules run.
func NewGuardrails(client llm.Client) *Guardrails {
	g := &Guardrails{
		staticValidator: NewStaticValidator(DefaultBanWords),
	}
	if client != nil {
		g.claudeValidator = NewClaudeValidator(client)
		g.enableClaude = true
	}
	return g
}

func (g *Guardrails) ValidateInput(ctx context.Context, input string) ValidationResult {
	// Run static rules first (fast, free)
	result := g.staticValidator.Validate(input)
	if !result.IsValid {
		log.Info().Str("method", "static").Str("reason", result.Reason).Msg("Input blocked by static rules")
		return result
	}

	if g.enableClaude {
		result = g.claudeValidator.Validate(ctx, input)
		if !result.IsValid {
			log.Warn().
				Str("method", "claude").
				Str("category", result.Category).
				Str("reason", result.Reason).
				Msg("Input blocked by Claude validator")
		}
		return result
	}

	return ValidationResult{IsValid: true, Reason: "Input validated", Method: "static"}
}
