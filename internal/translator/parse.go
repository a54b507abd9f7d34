package translator

import (
	"encoding/json"
	"regexp"

	"github.com/valpere/perebook/internal/postprocess"
)

// The generate endpoint wraps its structured payload in free-form model
// output. Recovery is best-effort: grab the first balanced-looking bracket
// span, repair trailing commas, and try to decode it. Anything that fails
// yields nil, which callers treat as "no translations returned".
var (
	bracketSpanRe   = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// extractPayload pulls a JSON document out of a raw model reply. Returns nil
// when no parseable payload can be recovered.
func extractPayload(raw string) []byte {
	cleaned := postprocess.Clean(raw)
	span := bracketSpanRe.FindString(cleaned)
	if span == "" {
		return nil
	}
	repaired := trailingCommaRe.ReplaceAllString(span, "$1")
	if !json.Valid([]byte(repaired)) {
		return nil
	}
	return []byte(repaired)
}

// decodeTranslations decodes a {"translations": [...]} payload. Missing keys
// and entries with empty fields are skipped, not errors.
func decodeTranslations(payload []byte) []Translation {
	if payload == nil {
		return nil
	}
	var envelope struct {
		Translations []Translation `json:"translations"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}
	out := envelope.Translations[:0]
	for _, t := range envelope.Translations {
		if t.Source != "" {
			out = append(out, t)
		}
	}
	return out
}

// decodeRefined decodes a {"refined": [...]} payload.
func decodeRefined(payload []byte) []string {
	if payload == nil {
		return nil
	}
	var envelope struct {
		Refined []string `json:"refined"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}
	return envelope.Refined
}
