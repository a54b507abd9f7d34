// Package book defines the durable document model shared by every pipeline
// stage: an ordered sequence of blocks, each holding bilingual sentence
// segments, serialized as JSON between stages.
package book

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// BlockType classifies a content block.
type BlockType string

const (
	Heading   BlockType = "heading"
	Paragraph BlockType = "paragraph"
	Image     BlockType = "image"
)

// Segment is one sentence's source/target pair. Target stays empty until a
// translation arrives; the patcher and refiner may overwrite it later.
type Segment struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Block is a positioned unit of document content. Page, Text and Sentences
// only exist while Stage 1 is walking the source document; the persisted form
// carries the type, the segments and (for images) the bitmap path.
type Block struct {
	Type    BlockType `json:"type"`
	Content []Segment `json:"content"`
	Path    string    `json:"path,omitempty"`

	Page      int      `json:"-"`
	Text      string   `json:"-"`
	Sentences []string `json:"-"`
}

// Translatable reports whether the block carries text segments.
func (b *Block) Translatable() bool {
	return (b.Type == Heading || b.Type == Paragraph) && len(b.Content) > 0
}

// TargetText joins the non-empty target sentences of the block.
func (b *Block) TargetText() string {
	var parts []string
	for _, seg := range b.Content {
		if seg.Target != "" {
			parts = append(parts, seg.Target)
		}
	}
	return strings.Join(parts, " ")
}

// SourceText joins the source sentences of the block.
func (b *Block) SourceText() string {
	parts := make([]string, 0, len(b.Content))
	for _, seg := range b.Content {
		parts = append(parts, seg.Source)
	}
	return strings.Join(parts, " ")
}

// State is one document's full ordered content, independent of source
// pagination. Blocks are appended in reading order and never reordered.
type State []Block

// Load reads a persisted document state.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	return st, nil
}

// Save rewrites the full state file. Stages persist after every batch flush
// and after every successful patch, so a crash loses at most one batch.
func Save(path string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// ValidFile reports whether path exists and exceeds minSize bytes. Undersized
// files count as absent: they are truncated leftovers of an interrupted run.
func ValidFile(path string, minSize int64) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > minSize
}

var unsafeNameRe = regexp.MustCompile(`[^\w\s-]`)

// SafeName derives a filesystem-safe identifier from a document title.
func SafeName(title string) string {
	cleaned := unsafeNameRe.ReplaceAllString(title, "")
	return strings.ReplaceAll(strings.TrimSpace(cleaned), " ", "_")
}

// EnsureTerminal appends a period to a non-empty sentence that does not end
// with terminal punctuation. Empty strings pass through untouched.
func EnsureTerminal(s string) string {
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
