// Package extractor implements the structural extraction stage: it walks the
// source document page by page, classifies blocks as headings or paragraphs,
// splits paragraphs into sentences and translates them in batches, saving the
// document state after every flush.
package extractor

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/valpere/perebook/internal/book"
	"github.com/valpere/perebook/internal/segmenter"
	"github.com/valpere/perebook/internal/source"
)

// Translator is the batch translation dependency.
type Translator interface {
	TranslateBatch(ctx context.Context, sentences []string, bookTitle, chapterContext string) map[string]string
}

// Config tunes extraction.
type Config struct {
	// BatchSize is the number of accumulated sentences that triggers a
	// translation flush.
	BatchSize int

	// MinStateBytes is the size above which an existing state file counts
	// as a completed extraction.
	MinStateBytes int64

	// HeadingScale is the multiple of the page's mean font size above which
	// a block is a heading.
	HeadingScale float64

	// MaxHeadingRunes caps how long a bold block can be and still count as
	// a heading.
	MaxHeadingRunes int
}

type Extractor struct {
	tr  Translator
	cfg Config
	log *slog.Logger
}

func New(tr Translator, cfg Config, log *slog.Logger) *Extractor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	if cfg.HeadingScale <= 0 {
		cfg.HeadingScale = 1.25
	}
	if cfg.MaxHeadingRunes <= 0 {
		cfg.MaxHeadingRunes = 200
	}
	return &Extractor{tr: tr, cfg: cfg, log: log}
}

// accumulator collects sentences awaiting translation. It is passed to flush
// by value so a flush can never mutate the caller's batch; the caller starts
// a fresh one afterwards.
type accumulator struct {
	sentences []string
}

// Run extracts the document into statePath. If a valid state file already
// exists it is loaded and returned unchanged, so interrupted runs resume at
// the next stage instead of re-translating.
func (e *Extractor) Run(ctx context.Context, doc source.Document, title, statePath string) (book.State, error) {
	if book.ValidFile(statePath, e.cfg.MinStateBytes) {
		e.log.Info("structural state already present, skipping extraction", "book", title)
		return book.Load(statePath)
	}

	var st book.State
	chapter := "Unknown"
	var acc accumulator

	pages := doc.PageCount()
	e.log.Info("starting structural extraction", "book", title, "pages", pages)

	for p := 1; p <= pages; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p%50 == 0 {
			e.log.Info("extraction progress", "book", title, "page", p, "pages", pages)
		}

		page, err := doc.Page(p)
		if err != nil {
			e.log.Warn("failed to read page, skipping", "book", title, "page", p, "error", err)
			continue
		}

		for _, blk := range page.Blocks {
			if blk.Kind == source.KindImage {
				st = append(st, book.Block{Type: book.Image, Path: blk.ImagePath})
				continue
			}

			text := segmenter.Heal(blk.Text)
			if text == "" {
				continue
			}

			blockType := book.Paragraph
			if e.isHeading(blk, text, page.MeanFontSize) {
				blockType = book.Heading
				chapter = text
			}

			sentences := segmenter.Split(text)
			if len(sentences) == 0 {
				if blockType != book.Heading {
					continue
				}
				// Short headings like "IV" survive segmentation whole.
				sentences = []string{text}
			}
			segments := make([]book.Segment, len(sentences))
			for i, s := range sentences {
				segments[i] = book.Segment{Source: s}
			}
			st = append(st, book.Block{Type: blockType, Content: segments})
			acc.sentences = append(acc.sentences, sentences...)

			if len(acc.sentences) >= e.cfg.BatchSize {
				e.flush(ctx, acc, st, title, chapter, statePath)
				acc = accumulator{}
			}
		}
	}

	e.flush(ctx, acc, st, title, chapter, statePath)

	if err := book.Save(statePath, st); err != nil {
		return nil, err
	}
	e.log.Info("structural extraction complete", "book", title, "blocks", len(st))
	return st, nil
}

func (e *Extractor) isHeading(blk source.Block, text string, meanFontSize float64) bool {
	if meanFontSize > 0 && blk.MaxFontSize > e.cfg.HeadingScale*meanFontSize {
		return true
	}
	return blk.Bold && utf8.RuneCountInString(text) < e.cfg.MaxHeadingRunes
}

// flush translates the accumulated sentences and distributes the results into
// st by exact source match, then checkpoints the state. Translation failures
// leave targets empty for the patcher.
func (e *Extractor) flush(ctx context.Context, acc accumulator, st book.State, title, chapter, statePath string) {
	if len(acc.sentences) == 0 {
		return
	}

	translated := e.tr.TranslateBatch(ctx, acc.sentences, title, chapter)
	filled := 0
	for i := range st {
		for j := range st[i].Content {
			seg := &st[i].Content[j]
			if seg.Target != "" {
				continue
			}
			if target, ok := translated[seg.Source]; ok && target != "" {
				seg.Target = book.EnsureTerminal(target)
				filled++
			}
		}
	}

	e.log.Debug("batch flushed", "book", title, "sentences", len(acc.sentences), "translated", filled)

	if err := book.Save(statePath, st); err != nil {
		e.log.Warn("failed to checkpoint state", "book", title, "error", err)
	}
}
