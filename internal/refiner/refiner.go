// Package refiner implements the second pass of the pipeline: it re-reads
// the translated segments in chunks and asks the model to polish them for
// literary quality. Segments the model fails on keep their draft text.
package refiner

import (
	"context"
	"log/slog"
	"time"

	"github.com/valpere/perebook/internal/book"
)

// Refiner is the chunk polishing dependency.
type Refiner interface {
	RefineChunk(ctx context.Context, lines []string, bookTitle string) []string
}

// Config tunes refinement.
type Config struct {
	// ChunkSize is how many translated blocks go into one refinement call.
	ChunkSize int

	// ChunkDelay paces successive calls so a local model is not hammered.
	ChunkDelay time.Duration

	// MinStateBytes is the size above which an existing refined file counts
	// as a completed refinement.
	MinStateBytes int64
}

type Stage struct {
	rf  Refiner
	cfg Config
	log *slog.Logger
}

func New(rf Refiner, cfg Config, log *slog.Logger) *Stage {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 15
	}
	if cfg.ChunkDelay <= 0 {
		cfg.ChunkDelay = 500 * time.Millisecond
	}
	return &Stage{rf: rf, cfg: cfg, log: log}
}

// segRef addresses one segment inside the state.
type segRef struct {
	block   int
	segment int
}

// Run polishes the translated state at structuralPath into refinedPath. If a
// valid refined file already exists it is loaded and returned unchanged.
// Only segment targets change; sources and segment boundaries stay intact.
// The refined file is written once, after every chunk has been processed, so
// an interrupted run re-enters the stage from the start instead of mistaking
// a half-refined file for a finished one.
func (s *Stage) Run(ctx context.Context, structuralPath, refinedPath, title string) (book.State, error) {
	if book.ValidFile(refinedPath, s.cfg.MinStateBytes) {
		s.log.Info("refined state already present, skipping refinement", "book", title)
		return book.Load(refinedPath)
	}

	st, err := book.Load(structuralPath)
	if err != nil {
		return nil, err
	}

	// Indexes of blocks that actually have text to polish.
	var candidates []int
	for i := range st {
		if st[i].Translatable() && st[i].TargetText() != "" {
			candidates = append(candidates, i)
		}
	}

	chunks := (len(candidates) + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize
	s.log.Info("starting refinement", "book", title, "blocks", len(candidates), "chunks", chunks)

	for start := 0; start < len(candidates); start += s.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + s.cfg.ChunkSize
		if end > len(candidates) {
			end = len(candidates)
		}

		// One line per translated segment across the chunk's blocks.
		var refs []segRef
		var lines []string
		for _, idx := range candidates[start:end] {
			for j := range st[idx].Content {
				if st[idx].Content[j].Target == "" {
					continue
				}
				refs = append(refs, segRef{block: idx, segment: j})
				lines = append(lines, st[idx].Content[j].Target)
			}
		}

		refined := s.rf.RefineChunk(ctx, lines, title)
		if len(refined) != len(lines) {
			s.log.Warn("chunk returned fewer refined lines than sent",
				"book", title, "chunk", start/s.cfg.ChunkSize, "want", len(lines), "got", len(refined))
		}
		// Positional write-back of whatever came back; segments past the
		// end of the returned list keep their drafts.
		n := len(refined)
		if n > len(lines) {
			n = len(lines)
		}
		for i := 0; i < n; i++ {
			if refined[i] == "" {
				continue
			}
			ref := refs[i]
			st[ref.block].Content[ref.segment].Target = book.EnsureTerminal(refined[i])
		}

		if end < len(candidates) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.ChunkDelay):
			}
		}
	}

	if err := book.Save(refinedPath, st); err != nil {
		return nil, err
	}

	s.log.Info("refinement complete", "book", title)
	return st, nil
}
