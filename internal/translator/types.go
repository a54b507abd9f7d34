package translator

import (
	"context"
	"time"
)

// Config holds the connection and pacing parameters for the generation
// service. Translation and refinement calls carry different timeouts and
// context windows because refinement payloads are much larger.
type Config struct {
	BaseURL string
	Model   string

	SourceLang string
	TargetLang string

	TranslateTimeout time.Duration
	RefineTimeout    time.Duration
	TranslateCtx     int
	RefineCtx        int

	// MaxAttempts is the total number of tries per request including the
	// first (1 = no retries).
	MaxAttempts int
}

// Translation is one sentence pair as returned by the service.
type Translation struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Memory is an optional sentence-level translation cache consulted before
// dispatching to the service. Lookup failures degrade to cache misses.
type Memory interface {
	Get(ctx context.Context, source, sourceLang, targetLang string) (string, bool, error)
	Put(ctx context.Context, source, sourceLang, targetLang, target string) error
}
