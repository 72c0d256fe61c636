package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadResearchConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadResearchConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadResearchConfig failed: %v", err)
	}
	def := DefaultResearchConfig()
	if cfg != def {
		t.Errorf("expected defaults %+v, got %+v", def, cfg)
	}
}

func TestLoadResearchConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.yaml")
	content := "question_count: 3\ntop_k: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadResearchConfig(path)
	if err != nil {
		t.Fatalf("LoadResearchConfig failed: %v", err)
	}

	if cfg.QuestionCount != 3 {
		t.Errorf("expected question_count=3, got %d", cfg.QuestionCount)
	}
	if cfg.TopK != 2 {
		t.Errorf("expected top_k=2, got %d", cfg.TopK)
	}
	if cfg.MaxVerses != DefaultResearchConfig().MaxVerses {
		t.Errorf("expected default max_verses, got %d", cfg.MaxVerses)
	}
}

func TestLoadResearchConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.yaml")
	if err := os.WriteFile(path, []byte("question_count: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadResearchConfig(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
