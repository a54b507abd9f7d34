package patcher

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/valpere/perebook/internal/book"
)

type stubTranslator struct {
	answers map[string]string
	calls   int
}

func (t *stubTranslator) TranslateBatch(_ context.Context, sentences []string, _, _ string) map[string]string {
	t.calls++
	out := make(map[string]string)
	for _, s := range sentences {
		if target, ok := t.answers[s]; ok {
			out[s] = target
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedState(t *testing.T, st book.State) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := book.Save(path, st); err != nil {
		t.Fatalf("failed to seed state: %v", err)
	}
	return path
}

func TestRun_PatchesBrokenSegments(t *testing.T) {
	path := seedState(t, book.State{
		{Type: book.Paragraph, Content: []book.Segment{
			{Source: "Already done.", Target: "Аль хэдийн болсон."},
			{Source: "Missing."},
			{Source: "Too short.", Target: "a"},
		}},
		{Type: book.Image, Path: "/tmp/img.png"},
	})

	tr := &stubTranslator{answers: map[string]string{
		"Missing.":   "Алга байна",
		"Too short.": "Хэт богино.",
	}}

	patched, err := New(tr, testLogger()).Run(context.Background(), path, "Book")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if patched != 2 {
		t.Errorf("expected 2 patched, got %d", patched)
	}
	if tr.calls != 2 {
		t.Errorf("expected one call per broken segment, got %d", tr.calls)
	}

	st, err := book.Load(path)
	if err != nil {
		t.Fatalf("failed to reload state: %v", err)
	}
	if st[0].Content[0].Target != "Аль хэдийн болсон." {
		t.Errorf("healthy segment must not change, got %q", st[0].Content[0].Target)
	}
	if st[0].Content[1].Target != "Алга байна." {
		t.Errorf("expected patched target with terminal punctuation, got %q", st[0].Content[1].Target)
	}
	if st[0].Content[2].Target != "Хэт богино." {
		t.Errorf("expected short target replaced, got %q", st[0].Content[2].Target)
	}
}

func TestRun_SavesOncePerPatch(t *testing.T) {
	path := seedState(t, book.State{
		{Type: book.Paragraph, Content: []book.Segment{
			{Source: "First."},
			{Source: "Healthy.", Target: "Эрүүл байна."},
			{Source: "Second."},
			{Source: "Third."},
		}},
	})

	tr := &stubTranslator{answers: map[string]string{
		"First.":  "Нэгдэх.",
		"Second.": "Хоёрдох.",
		"Third.":  "Гуравдах.",
	}}
	p := New(tr, testLogger())

	saves := 0
	p.save = func(path string, st book.State) error {
		saves++
		return book.Save(path, st)
	}

	patched, err := p.Run(context.Background(), path, "Book")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if patched != 3 {
		t.Fatalf("expected 3 patched, got %d", patched)
	}
	if saves != patched {
		t.Errorf("expected one save per successful patch, got %d saves for %d patches", saves, patched)
	}
}

func TestRun_NothingToPatch(t *testing.T) {
	path := seedState(t, book.State{
		{Type: book.Paragraph, Content: []book.Segment{
			{Source: "Fine.", Target: "Сайн байна."},
		}},
	})

	tr := &stubTranslator{}
	patched, err := New(tr, testLogger()).Run(context.Background(), path, "Book")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if patched != 0 || tr.calls != 0 {
		t.Errorf("expected no work, got patched=%d calls=%d", patched, tr.calls)
	}
}

func TestRun_FailedPatchStaysEmpty(t *testing.T) {
	path := seedState(t, book.State{
		{Type: book.Paragraph, Content: []book.Segment{{Source: "Stubborn."}}},
	})

	patched, err := New(&stubTranslator{}, testLogger()).Run(context.Background(), path, "Book")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if patched != 0 {
		t.Errorf("expected 0 patched, got %d", patched)
	}

	st, _ := book.Load(path)
	if st[0].Content[0].Target != "" {
		t.Errorf("expected target to stay empty, got %q", st[0].Content[0].Target)
	}
}

func TestRun_MissingStateFile(t *testing.T) {
	_, err := New(&stubTranslator{}, testLogger()).Run(
		context.Background(), filepath.Join(t.TempDir(), "absent.json"), "Book")
	if err == nil {
		t.Fatal("expected error for missing state file")
	}
}
