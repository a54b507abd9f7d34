package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("unexpected ollama_url: %q", cfg.OllamaURL)
	}
	if cfg.SourceLang != "auto" || cfg.TargetLang != "mn" {
		t.Errorf("unexpected language pair: %q to %q", cfg.SourceLang, cfg.TargetLang)
	}
	if cfg.BatchSize != 30 || cfg.ChunkSize != 15 {
		t.Errorf("unexpected batching: batch=%d chunk=%d", cfg.BatchSize, cfg.ChunkSize)
	}
	if cfg.ChunkDelay != 500*time.Millisecond {
		t.Errorf("unexpected chunk delay: %v", cfg.ChunkDelay)
	}
	if cfg.MinFinalBytes != 10000 {
		t.Errorf("unexpected final threshold: %d", cfg.MinFinalBytes)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perebook.yaml")
	data := []byte("model: qwen3:14b\nbatch_size: 10\ninput_dir: /srv/books\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Model != "qwen3:14b" {
		t.Errorf("unexpected model: %q", cfg.Model)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("unexpected batch size: %d", cfg.BatchSize)
	}
	if cfg.InputDir != "/srv/books" {
		t.Errorf("unexpected input dir: %q", cfg.InputDir)
	}
	// Unset keys keep their defaults.
	if cfg.TargetLang != "mn" {
		t.Errorf("unexpected target lang: %q", cfg.TargetLang)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
