// Package translator talks to an Ollama-style /api/generate endpoint. All
// service failures are non-fatal: transport errors, bad statuses and
// malformed replies degrade to empty results, and the patcher stage is the
// designated recovery path for anything left untranslated.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Service is a client for the external generation service.
type Service struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
	mem    Memory
}

// New creates a Service. mem may be nil to disable the translation memory.
// Per-call timeouts come from cfg, so the HTTP client itself has none.
func New(cfg Config, log *slog.Logger, mem Memory) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.TranslateTimeout <= 0 {
		cfg.TranslateTimeout = 300 * time.Second
	}
	if cfg.RefineTimeout <= 0 {
		cfg.RefineTimeout = 500 * time.Second
	}
	if cfg.TranslateCtx <= 0 {
		cfg.TranslateCtx = 4096
	}
	if cfg.RefineCtx <= 0 {
		cfg.RefineCtx = 8192
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{},
		log:    log,
		mem:    mem,
	}
}

// WithSourceLang returns a copy of the service translating from the given
// language. Used when the source language was auto-detected per book.
func (s *Service) WithSourceLang(code string) *Service {
	clone := *s
	clone.cfg.SourceLang = code
	return &clone
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Format  string          `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// TranslateBatch sends one request covering all given sentences and returns a
// source-to-target mapping. The mapping may be partial or empty; sentences
// without a match stay untranslated and are repaired later. This method never
// returns an error to the caller.
func (s *Service) TranslateBatch(ctx context.Context, sentences []string, bookTitle, chapterContext string) map[string]string {
	if len(sentences) == 0 {
		return nil
	}

	resolved := make(map[string]string, len(sentences))
	missing := sentences

	if s.mem != nil {
		missing = missing[:0:0]
		for _, sent := range sentences {
			if cached, ok, err := s.mem.Get(ctx, sent, s.cfg.SourceLang, s.cfg.TargetLang); err != nil {
				s.log.Warn("translation memory lookup failed", "error", err)
				missing = append(missing, sent)
			} else if ok {
				resolved[sent] = cached
			} else {
				missing = append(missing, sent)
			}
		}
		if len(missing) == 0 {
			s.log.Debug("batch served entirely from memory", "sentences", len(sentences))
			return resolved
		}
	}

	prompt := s.buildTranslatePrompt(missing, bookTitle, chapterContext)
	raw, err := s.generate(ctx, prompt, s.cfg.TranslateCtx, 0.1, s.cfg.TranslateTimeout)
	if err != nil {
		s.log.Error("batch translation call failed", "error", err, "sentences", len(missing))
		return resolved
	}

	for _, t := range decodeTranslations(extractPayload(raw)) {
		if t.Target == "" {
			continue
		}
		resolved[t.Source] = t.Target
		if s.mem != nil {
			if err := s.mem.Put(ctx, t.Source, s.cfg.SourceLang, s.cfg.TargetLang, t.Target); err != nil {
				s.log.Warn("translation memory write failed", "error", err)
			}
		}
	}
	return resolved
}

// RefineChunk asks the service to polish a chunk of translated lines as one
// ordered list. Returns nil on any failure; the caller keeps the originals.
func (s *Service) RefineChunk(ctx context.Context, lines []string, bookTitle string) []string {
	if len(lines) == 0 {
		return nil
	}

	prompt := s.buildRefinePrompt(lines, bookTitle)
	raw, err := s.generate(ctx, prompt, s.cfg.RefineCtx, 0.2, s.cfg.RefineTimeout)
	if err != nil {
		s.log.Error("refinement call failed", "error", err, "lines", len(lines))
		return nil
	}
	return decodeRefined(extractPayload(raw))
}

// IsAvailable checks the service's tags endpoint.
func (s *Service) IsAvailable(ctx context.Context) error {
	url := strings.TrimSuffix(s.cfg.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("generation service not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}
	return nil
}

// generate performs one /api/generate round-trip with transport-level retry
// and returns the raw response text.
func (s *Service) generate(ctx context.Context, prompt string, numCtx int, temperature float64, timeout time.Duration) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  s.cfg.Model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
		Options: generateOptions{
			Temperature: temperature,
			NumCtx:      numCtx,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	data, err := s.post(ctx, body, timeout)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return resp.Response, nil
}

func (s *Service) buildTranslatePrompt(sentences []string, bookTitle, chapterContext string) string {
	src := languageName(s.cfg.SourceLang)
	tgt := languageName(s.cfg.TargetLang)

	persona := fmt.Sprintf(
		"You are a master %s literary translator. Book: '%s'. Context: %s. "+
			"Translate %s to formal %s. Maintain narrative tone. "+
			`Return ONLY a JSON object: {"translations": [{"source": "...", "target": "..."}]}`,
		tgt, bookTitle, chapterContext, src, tgt)

	return fmt.Sprintf("%s\n\n%s Sentences:\n%s", persona, src, strings.Join(sentences, "\n"))
}

func (s *Service) buildRefinePrompt(lines []string, bookTitle string) string {
	tgt := languageName(s.cfg.TargetLang)

	persona := fmt.Sprintf(
		"You are a master %s book editor. Polishing '%s'. "+
			"Goal: polished, professional %s literature. "+
			"Return one refined entry per input sentence, in order. "+
			`Return JSON: {"refined": ["...", "..."]}`,
		tgt, bookTitle, tgt)

	return fmt.Sprintf("%s\n\nSentences:\n%s", persona, strings.Join(lines, "\n"))
}

// languageName renders an ISO code as an English language name for prompts;
// unknown codes pass through unchanged.
func languageName(code string) string {
	if code == "" || code == "auto" {
		return "the source language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
