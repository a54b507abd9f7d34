package assembler

import (
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/valpere/perebook/internal/book"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func heading(source, target string) book.Block {
	return book.Block{Type: book.Heading, Content: []book.Segment{{Source: source, Target: target}}}
}

func paragraph(source, target string) book.Block {
	return book.Block{Type: book.Paragraph, Content: []book.Segment{{Source: source, Target: target}}}
}

func TestChapters_GroupsByHeading(t *testing.T) {
	st := book.State{
		heading("Chapter One", "Нэгдүгээр бүлэг"),
		paragraph("First.", "Нэгдэх."),
		paragraph("Second.", "Хоёрдох."),
		heading("Chapter Two", "Хоёрдугаар бүлэг"),
		paragraph("Third.", "Гуравдах."),
	}

	chapters := Chapters(st)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Title != "Нэгдүгээр бүлэг" {
		t.Errorf("unexpected first title: %q", chapters[0].Title)
	}
	if len(chapters[0].Blocks) != 3 || len(chapters[1].Blocks) != 2 {
		t.Errorf("unexpected chapter sizes: %d, %d", len(chapters[0].Blocks), len(chapters[1].Blocks))
	}

	// Block order inside chapters matches document order.
	if chapters[0].Index[1] != 1 || chapters[1].Index[1] != 4 {
		t.Errorf("unexpected block indices: %v, %v", chapters[0].Index, chapters[1].Index)
	}
}

func TestChapters_FallbackForLeadingContent(t *testing.T) {
	st := book.State{
		paragraph("Preface text.", "Өмнөх үг."),
		heading("Chapter One", ""),
	}

	chapters := Chapters(st)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[0].Title != "Chapter" {
		t.Errorf("expected fallback title, got %q", chapters[0].Title)
	}
	// Untranslated heading falls back to its source text.
	if chapters[1].Title != "Chapter One" {
		t.Errorf("expected source fallback title, got %q", chapters[1].Title)
	}
}

func TestChapters_Empty(t *testing.T) {
	if got := Chapters(nil); len(got) != 0 {
		t.Errorf("expected no chapters, got %v", got)
	}
}

func TestBlockText_FallsBackToSource(t *testing.T) {
	if got := blockText(paragraph("Source only.", "")); got != "Source only." {
		t.Errorf("expected source fallback, got %q", got)
	}
	if got := blockText(paragraph("Source.", "Target.")); got != "Target." {
		t.Errorf("expected target, got %q", got)
	}
}

func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "book_1_Im0.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestRenderPDF(t *testing.T) {
	dir := t.TempDir()
	img := writeTestImage(t, dir)

	st := book.State{
		heading("Chapter One", "Chapter One Translated"),
		paragraph("A quiet morning.", "A quiet morning indeed."),
		{Type: book.Image, Path: img},
	}

	outPath := filepath.Join(dir, "out.pdf")
	report, err := New(Config{}, testLogger()).RenderPDF(st, "Test Book", outPath)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !report.Clean() {
		t.Errorf("expected clean report, got %v", report.Errors)
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty PDF, err=%v", err)
	}
}

func TestRenderPDF_MissingImageReported(t *testing.T) {
	dir := t.TempDir()
	st := book.State{
		paragraph("Text.", "Translated text."),
		{Type: book.Image, Path: filepath.Join(dir, "absent.png")},
	}

	outPath := filepath.Join(dir, "out.pdf")
	report, err := New(Config{}, testLogger()).RenderPDF(st, "Test Book", outPath)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].BlockIndex != 1 {
		t.Errorf("expected one render error for block 1, got %v", report.Errors)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Error("expected PDF despite missing image")
	}
}

func TestRenderEPUB(t *testing.T) {
	dir := t.TempDir()
	img := writeTestImage(t, dir)

	st := book.State{
		heading("Chapter One", "Chapter One Translated"),
		paragraph("A quiet morning.", "A quiet morning indeed."),
		{Type: book.Image, Path: img},
		heading("Chapter Two", "Chapter Two Translated"),
		paragraph("Evening came.", "Evening came at last."),
	}

	outPath := filepath.Join(dir, "out.epub")
	report, err := New(Config{TargetLang: "mn"}, testLogger()).RenderEPUB(st, "Test Book", outPath)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !report.Clean() {
		t.Errorf("expected clean report, got %v", report.Errors)
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty EPUB, err=%v", err)
	}
}

func TestRenderEPUB_BrokenImageReported(t *testing.T) {
	dir := t.TempDir()
	st := book.State{
		heading("Chapter One", ""),
		{Type: book.Image, Path: filepath.Join(dir, "absent.png")},
		paragraph("Text.", "Translated."),
	}

	outPath := filepath.Join(dir, "out.epub")
	report, err := New(Config{}, testLogger()).RenderEPUB(st, "Test Book", outPath)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].BlockIndex != 1 {
		t.Errorf("expected one render error for block 1, got %v", report.Errors)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Error("expected EPUB despite broken image")
	}
}
