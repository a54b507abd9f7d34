package assembler

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/valpere/perebook/internal/book"
)

// Config carries the rendering parameters shared by both output formats.
type Config struct {
	// FontRegular and FontBold are paths to UTF-8 TTF fonts. Empty paths
	// fall back to the builtin Helvetica, which cannot render Cyrillic.
	FontRegular string
	FontBold    string

	// TargetLang is stamped into the EPUB metadata.
	TargetLang string
}

type Assembler struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Assembler {
	return &Assembler{cfg: cfg, log: log}
}

const (
	bookFont     = "book"
	headingSize  = 14.0
	bodySize     = 11.0
	lineHeight   = 6.0
	imageX       = 20.0
	imageWidth   = 170.0
	pageBreakPad = 15.0
)

// blockText picks the text to render: the translation, or the source as a
// visible fallback when a block never got translated.
func blockText(blk book.Block) string {
	if t := blk.TargetText(); t != "" {
		return t
	}
	return blk.SourceText()
}

// RenderPDF writes the fixed-layout PDF. Per-block failures are collected in
// the report; only document-level failures abort.
func (a *Assembler) RenderPDF(st book.State, title, outPath string) (*Report, error) {
	report := &Report{}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, pageBreakPad)

	font := bookFont
	if a.cfg.FontRegular != "" {
		pdf.AddUTF8Font(bookFont, "", a.cfg.FontRegular)
		if a.cfg.FontBold != "" {
			pdf.AddUTF8Font(bookFont, "B", a.cfg.FontBold)
		} else {
			pdf.AddUTF8Font(bookFont, "B", a.cfg.FontRegular)
		}
	} else {
		font = "Helvetica"
	}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(font, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, title, "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	})
	pdf.AddPage()

	for i, blk := range st {
		switch blk.Type {
		case book.Heading:
			pdf.Ln(4)
			pdf.SetFont(font, "B", headingSize)
			pdf.MultiCell(0, lineHeight+2, blockText(blk), "", "C", false)
			pdf.Ln(2)

		case book.Paragraph:
			pdf.SetFont(font, "", bodySize)
			pdf.MultiCell(0, lineHeight, blockText(blk), "", "J", false)
			pdf.Ln(2)

		case book.Image:
			if _, err := os.Stat(blk.Path); err != nil {
				report.add("pdf", i, fmt.Errorf("image missing: %w", err))
				continue
			}
			pdf.ImageOptions(blk.Path, imageX, 0, imageWidth, 0, true,
				fpdf.ImageOptions{ReadDpi: true}, 0, "")
			pdf.Ln(4)
		}

		if pdf.Err() {
			report.add("pdf", i, pdf.Error())
			return report, fmt.Errorf("failed to render PDF for %s: %w", title, pdf.Error())
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return report, fmt.Errorf("failed to write PDF %s: %w", outPath, err)
	}

	a.log.Info("PDF assembled", "book", title, "path", outPath, "errors", len(report.Errors))
	return report, nil
}
