// Package patcher repairs the gaps batch translation leaves behind: any
// segment whose target is still empty or implausibly short gets retranslated
// one sentence at a time, with a checkpoint after every successful repair.
package patcher

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/valpere/perebook/internal/book"
)

// minTargetRunes is the length below which a target counts as a failed
// translation rather than a real one.
const minTargetRunes = 3

// Translator is the single-sentence translation dependency.
type Translator interface {
	TranslateBatch(ctx context.Context, sentences []string, bookTitle, chapterContext string) map[string]string
}

type Patcher struct {
	tr   Translator
	log  *slog.Logger
	save func(string, book.State) error
}

func New(tr Translator, log *slog.Logger) *Patcher {
	return &Patcher{tr: tr, log: log, save: book.Save}
}

// needsPatch reports whether a segment's translation is missing or too short
// to be real.
func needsPatch(seg book.Segment) bool {
	return utf8.RuneCountInString(seg.Target) < minTargetRunes
}

// Run retranslates every broken segment in the state file and returns how
// many were repaired. The state is saved after each successful patch so an
// interrupted run keeps its repairs. Segments that fail again stay empty.
func (p *Patcher) Run(ctx context.Context, statePath, title string) (int, error) {
	st, err := book.Load(statePath)
	if err != nil {
		return 0, err
	}

	broken := 0
	for i := range st {
		for j := range st[i].Content {
			if needsPatch(st[i].Content[j]) {
				broken++
			}
		}
	}
	if broken == 0 {
		p.log.Info("no segments need patching", "book", title)
		return 0, nil
	}
	p.log.Info("patching broken segments", "book", title, "broken", broken)

	patched := 0
	for i := range st {
		for j := range st[i].Content {
			if err := ctx.Err(); err != nil {
				return patched, err
			}
			seg := &st[i].Content[j]
			if !needsPatch(*seg) {
				continue
			}

			translated := p.tr.TranslateBatch(ctx, []string{seg.Source}, title, "Patching")
			target, ok := translated[seg.Source]
			if !ok || utf8.RuneCountInString(target) < minTargetRunes {
				p.log.Warn("segment still untranslated after patch attempt",
					"book", title, "block", i, "sentence", j)
				continue
			}

			seg.Target = book.EnsureTerminal(target)
			patched++
			if err := p.save(statePath, st); err != nil {
				return patched, err
			}
		}
	}

	p.log.Info("patching complete", "book", title, "patched", patched, "remaining", broken-patched)
	return patched, nil
}
