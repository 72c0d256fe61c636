// Package config loads the research pipeline tunables from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResearchConfig holds the tunable parameters of the research pipeline.
// The sub-question count and fallback threshold are product knobs, not
// contracts; defaults follow the observed behaviour of the counsellor.
type ResearchConfig struct {
	// QuestionCount caps how many sub-questions are kept from the LLM output.
	QuestionCount int `yaml:"question_count"`
	// TopK is the per-sub-question vector search depth.
	TopK int `yaml:"top_k"`
	// MinVerses is the unique-verse threshold below which the purport
	// fallback search runs.
	MinVerses int `yaml:"min_verses"`
	// MaxVerses bounds how many verses are passed to synthesis and returned.
	MaxVerses int `yaml:"max_verses"`
	// FallbackLimit is the result cap for the purport keyword search.
	FallbackLimit int `yaml:"fallback_limit"`
	// MaxTokens for the synthesis call; analysis and question generation use
	// smaller fixed budgets.
	MaxTokens int `yaml:"max_tokens"`
	// Temperature for all generation calls.
	Temperature float64 `yaml:"temperature"`
}

// DefaultResearchConfig returns the built-in tunables.
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		QuestionCount: 5,
		TopK:          5,
		MinVerses:     3,
		MaxVerses:     10,
		FallbackLimit: 10,
		MaxTokens:     4000,
		Temperature:   0.3,
	}
}

// LoadResearchConfig reads tunables from path. A missing file yields the
// defaults; a present but malformed file is an error. Unset fields fall back
// to their defaults.
func LoadResearchConfig(path string) (ResearchConfig, error) {
	cfg := DefaultResearchConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return ResearchConfig{}, fmt.Errorf("reading research config: %w", err)
	}

	var loaded ResearchConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return ResearchConfig{}, fmt.Errorf("parsing research config: %w", err)
	}
	applyDefaults(&loaded)
	return loaded, nil
}

func applyDefaults(cfg *ResearchConfig) {
	def := DefaultResearchConfig()
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = def.QuestionCount
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MinVerses <= 0 {
		cfg.MinVerses = def.MinVerses
	}
	if cfg.MaxVerses <= 0 {
		cfg.MaxVerses = def.MaxVerses
	}
	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = def.FallbackLimit
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
}
