// Package pipeline drives one book through the staged translation flow,
// deciding from the artifacts on disk how much work is left: nothing, final
// assembly only, or the full extract-patch-refine-assemble sequence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/perebook/internal/assembler"
	"github.com/valpere/perebook/internal/book"
	"github.com/valpere/perebook/internal/config"
	"github.com/valpere/perebook/internal/detector"
	"github.com/valpere/perebook/internal/extractor"
	"github.com/valpere/perebook/internal/patcher"
	"github.com/valpere/perebook/internal/refiner"
	"github.com/valpere/perebook/internal/source"
	"github.com/valpere/perebook/internal/translator"
)

// Artifacts are the per-book files the pipeline produces.
type Artifacts struct {
	Structural string
	Refined    string
	FinalPDF   string
	FinalEPUB  string
}

// Thresholds are the minimum sizes below which an artifact counts as a
// truncated leftover rather than a result.
type Thresholds struct {
	Structural int64
	Refined    int64
	Final      int64
}

// Probe abstracts the artifact checks so decisions can be tested without a
// filesystem.
type Probe interface {
	// Size returns an artifact's size and whether it exists.
	Size(path string) (int64, bool)
	Remove(path string) error
}

type osProbe struct{}

func (osProbe) Size(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func (osProbe) Remove(path string) error { return os.Remove(path) }

// Action is the amount of work left for a book.
type Action int

const (
	ActionFull Action = iota
	ActionAssembleOnly
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionAssembleOnly:
		return "assemble-only"
	default:
		return "full"
	}
}

// check returns whether the artifact at path is valid, removing it when it
// exists but is undersized so the producing stage restarts cleanly.
func check(p Probe, path string, minSize int64) bool {
	size, exists := p.Size(path)
	if !exists {
		return false
	}
	if size > minSize {
		return true
	}
	p.Remove(path)
	return false
}

// Decide inspects the artifacts and picks the least work that completes the
// book. Undersized artifacts are deleted and treated as absent.
func Decide(p Probe, a Artifacts, t Thresholds) Action {
	pdfOK := check(p, a.FinalPDF, t.Final)
	_, epubExists := p.Size(a.FinalEPUB)
	if pdfOK && epubExists {
		return ActionSkip
	}

	if check(p, a.Refined, t.Refined) {
		return ActionAssembleOnly
	}

	// Structural is only probed for cleanup: the extractor resumes from a
	// valid file on its own.
	check(p, a.Structural, t.Structural)
	return ActionFull
}

// Driver owns the shared stage components and walks books through them.
type Driver struct {
	cfg   config.Config
	svc   *translator.Service
	det   *detector.Detector
	probe Probe
	log   *slog.Logger
}

func New(cfg config.Config, svc *translator.Service, det *detector.Detector, log *slog.Logger) *Driver {
	return &Driver{cfg: cfg, svc: svc, det: det, probe: osProbe{}, log: log}
}

func (d *Driver) thresholds() Thresholds {
	return Thresholds{
		Structural: d.cfg.MinStructuralBytes,
		Refined:    d.cfg.MinRefinedBytes,
		Final:      d.cfg.MinFinalBytes,
	}
}

// artifacts derives the per-book artifact paths from its safe name.
func (d *Driver) artifacts(safe string) Artifacts {
	return Artifacts{
		Structural: filepath.Join(d.cfg.CacheDir, safe+"_structural.json"),
		Refined:    filepath.Join(d.cfg.RefinedDir, safe+"_refined.json"),
		FinalPDF:   filepath.Join(d.cfg.FinalDir, safe+"_translated.pdf"),
		FinalEPUB:  filepath.Join(d.cfg.FinalDir, safe+"_translated.epub"),
	}
}

// ProcessAll runs every book sequentially. One book's failure, including a
// panic, is logged and the run moves on to the next.
func (d *Driver) ProcessAll(ctx context.Context, pdfPaths []string) {
	for _, path := range pdfPaths {
		if ctx.Err() != nil {
			d.log.Info("run cancelled", "remaining", path)
			return
		}
		d.processSafely(ctx, path)
	}
}

func (d *Driver) processSafely(ctx context.Context, pdfPath string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("book processing panicked", "book", pdfPath, "panic", r)
		}
	}()
	if err := d.ProcessBook(ctx, pdfPath); err != nil {
		d.log.Error("book processing failed", "book", pdfPath, "error", err)
	}
}

// ProcessBook takes one book from source PDF to final outputs, resuming from
// whatever artifacts earlier runs left behind.
func (d *Driver) ProcessBook(ctx context.Context, pdfPath string) error {
	title := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	safe := book.SafeName(title)
	arts := d.artifacts(safe)

	action := Decide(d.probe, arts, d.thresholds())
	d.log.Info("processing book", "book", title, "action", action.String())
	if action == ActionSkip {
		return nil
	}

	if action == ActionFull {
		if err := d.translate(ctx, pdfPath, title, safe, arts); err != nil {
			return err
		}
	}

	return d.assemble(ctx, title, arts)
}

// AssembleBook finishes a book from its structural state file without
// touching the source PDF, refining and rendering only. Books whose final
// outputs already exist are skipped.
func (d *Driver) AssembleBook(ctx context.Context, structuralPath string) error {
	safe := strings.TrimSuffix(filepath.Base(structuralPath), "_structural.json")
	arts := d.artifacts(safe)
	arts.Structural = structuralPath
	title := strings.ReplaceAll(safe, "_", " ")

	if Decide(d.probe, arts, d.thresholds()) == ActionSkip {
		d.log.Info("final outputs already present", "book", title)
		return nil
	}
	return d.assemble(ctx, title, arts)
}

// AssembleAll assembles every state file sequentially, continuing past
// individual failures.
func (d *Driver) AssembleAll(ctx context.Context, statePaths []string) {
	for _, path := range statePaths {
		if ctx.Err() != nil {
			d.log.Info("run cancelled", "remaining", path)
			return
		}
		if err := d.AssembleBook(ctx, path); err != nil {
			d.log.Error("assembly failed", "state", path, "error", err)
		}
	}
}

// translate runs structural extraction and the patch pass.
func (d *Driver) translate(ctx context.Context, pdfPath, title, safe string, arts Artifacts) error {
	for _, dir := range []string{d.cfg.CacheDir, d.cfg.RefinedDir, d.cfg.FinalDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	imageDir := filepath.Join(d.cfg.CacheDir, safe+"_images")
	doc, err := source.OpenPDF(pdfPath, imageDir, d.log)
	if err != nil {
		return err
	}
	defer doc.Close()

	svc := d.svc
	if d.cfg.SourceLang == "auto" {
		svc = svc.WithSourceLang(d.detectLanguage(doc, title))
	}

	ex := extractor.New(svc, extractor.Config{
		BatchSize:     d.cfg.BatchSize,
		MinStateBytes: d.cfg.MinStructuralBytes,
	}, d.log)
	if _, err := ex.Run(ctx, doc, title, arts.Structural); err != nil {
		return err
	}

	if _, err := patcher.New(svc, d.log).Run(ctx, arts.Structural, title); err != nil {
		return err
	}
	return nil
}

// assemble refines the translated state and renders both final formats.
func (d *Driver) assemble(ctx context.Context, title string, arts Artifacts) error {
	if err := os.MkdirAll(d.cfg.FinalDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.cfg.FinalDir, err)
	}

	stage := refiner.New(d.svc, refiner.Config{
		ChunkSize:     d.cfg.ChunkSize,
		ChunkDelay:    d.cfg.ChunkDelay,
		MinStateBytes: d.cfg.MinRefinedBytes,
	}, d.log)
	st, err := stage.Run(ctx, arts.Structural, arts.Refined, title)
	if err != nil {
		return err
	}

	asm := assembler.New(assembler.Config{
		FontRegular: d.cfg.FontRegular,
		FontBold:    d.cfg.FontBold,
		TargetLang:  d.cfg.TargetLang,
	}, d.log)

	// The two renderers are independent: a PDF failure must not cost the
	// reader the EPUB, and vice versa.
	pdfReport, pdfErr := asm.RenderPDF(st, title, arts.FinalPDF)
	epubReport, epubErr := asm.RenderEPUB(st, title, arts.FinalEPUB)
	d.reportBlocks(title, pdfReport, epubReport)

	if pdfErr == nil && !book.ValidFile(arts.FinalPDF, d.cfg.MinFinalBytes) {
		pdfErr = fmt.Errorf("final PDF for %s is undersized", title)
	}
	if err := errors.Join(pdfErr, epubErr); err != nil {
		return err
	}
	d.log.Info("book complete", "book", title, "pdf", arts.FinalPDF, "epub", arts.FinalEPUB)
	return nil
}

func (d *Driver) reportBlocks(title string, reports ...*assembler.Report) {
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		for _, re := range rep.Errors {
			d.log.Warn("block failed to render", "book", title,
				"format", re.Format, "block", re.BlockIndex, "error", re.Err)
		}
	}
}

// detectLanguage samples text from the opening pages to resolve an "auto"
// source language. Detection failure falls back to English.
func (d *Driver) detectLanguage(doc source.Document, title string) string {
	var sample strings.Builder
	for p := 1; p <= doc.PageCount() && p <= 5 && sample.Len() < 2000; p++ {
		page, err := doc.Page(p)
		if err != nil {
			continue
		}
		for _, blk := range page.Blocks {
			if blk.Kind == source.KindText {
				sample.WriteString(blk.Text)
				sample.WriteString(" ")
			}
		}
	}

	if code, ok := d.det.DetectISO(sample.String()); ok {
		d.log.Info("source language detected", "book", title, "lang", code)
		return code
	}
	d.log.Warn("language detection failed, assuming English", "book", title)
	return "en"
}
