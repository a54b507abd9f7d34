// Package config builds the immutable pipeline configuration. It is
// constructed once at process start and passed into every component; nothing
// reads configuration ambiently after that.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable of the pipeline.
type Config struct {
	// External generation service.
	OllamaURL string `mapstructure:"ollama_url"`
	Model     string `mapstructure:"model"`

	// Language pair. SourceLang "auto" enables detection from the first
	// extracted paragraphs.
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	// Folder layout. Each durable artifact is keyed by the book's safe name
	// inside one of these.
	InputDir   string `mapstructure:"input_dir"`
	CacheDir   string `mapstructure:"cache_dir"`
	RefinedDir string `mapstructure:"refined_dir"`
	FinalDir   string `mapstructure:"final_dir"`

	// Fonts for the fixed-layout renderer. Empty paths fall back to a core
	// font, which cannot render non-Latin scripts but keeps output flowing.
	FontRegular string `mapstructure:"font_regular"`
	FontBold    string `mapstructure:"font_bold"`

	// Batching and pacing.
	BatchSize  int           `mapstructure:"batch_size"`
	ChunkSize  int           `mapstructure:"chunk_size"`
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`

	// Per-call bounds. Refinement payloads are larger, hence the longer
	// timeout and context window.
	TranslateTimeout time.Duration `mapstructure:"translate_timeout"`
	RefineTimeout    time.Duration `mapstructure:"refine_timeout"`
	TranslateCtx     int           `mapstructure:"translate_ctx"`
	RefineCtx        int           `mapstructure:"refine_ctx"`
	MaxAttempts      int           `mapstructure:"max_attempts"`

	// Artifact validity thresholds in bytes. Anything at or below the
	// threshold is treated as a truncated leftover and reprocessed.
	MinStructuralBytes int64 `mapstructure:"min_structural_bytes"`
	MinRefinedBytes    int64 `mapstructure:"min_refined_bytes"`
	MinFinalBytes      int64 `mapstructure:"min_final_bytes"`

	// Sentence translation memory. Empty disables caching.
	MemoryDB string `mapstructure:"memory_db"`
}

// Load reads configuration from an optional file (YAML), PEREBOOK_*
// environment variables and built-in defaults, in that order of precedence.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("ollama_url", "http://localhost:11434")
	v.SetDefault("model", "llama3.2")
	v.SetDefault("source_lang", "auto")
	v.SetDefault("target_lang", "mn")
	v.SetDefault("input_dir", "books")
	v.SetDefault("cache_dir", "translation_cache")
	v.SetDefault("refined_dir", "post_processing")
	v.SetDefault("final_dir", "final_processed_books")
	v.SetDefault("font_regular", "")
	v.SetDefault("font_bold", "")
	v.SetDefault("batch_size", 30)
	v.SetDefault("chunk_size", 15)
	v.SetDefault("chunk_delay", 500*time.Millisecond)
	v.SetDefault("translate_timeout", 300*time.Second)
	v.SetDefault("refine_timeout", 500*time.Second)
	v.SetDefault("translate_ctx", 4096)
	v.SetDefault("refine_ctx", 8192)
	v.SetDefault("max_attempts", 5)
	v.SetDefault("min_structural_bytes", 1000)
	v.SetDefault("min_refined_bytes", 1000)
	v.SetDefault("min_final_bytes", 10000)
	v.SetDefault("memory_db", "")

	v.SetEnvPrefix("PEREBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("perebook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
