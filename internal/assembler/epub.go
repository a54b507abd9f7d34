package assembler

import (
	"fmt"
	"html"
	"os"
	"strings"

	epub "github.com/go-shiori/go-epub"

	"github.com/valpere/perebook/internal/book"
)

// RenderEPUB writes the reflowable EPUB. Chapters are delimited by heading
// blocks; images that fail to embed are reported and skipped so one broken
// bitmap cannot sink the whole book.
func (a *Assembler) RenderEPUB(st book.State, title, outPath string) (*Report, error) {
	report := &Report{}

	e, err := epub.NewEpub(title)
	if err != nil {
		return report, fmt.Errorf("failed to create EPUB for %s: %w", title, err)
	}
	if a.cfg.TargetLang != "" {
		e.SetLang(a.cfg.TargetLang)
	}

	for n, ch := range Chapters(st) {
		var body strings.Builder
		body.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(ch.Title)))

		for i, blk := range ch.Blocks {
			stateIdx := ch.Index[i]
			switch blk.Type {
			case book.Heading:
				// Already rendered as the chapter title.

			case book.Paragraph:
				body.WriteString(fmt.Sprintf("<p>%s</p>\n", html.EscapeString(blockText(blk))))

			case book.Image:
				// Validate up front: go-epub only reads the file at
				// Write time, where one bad path fails the whole book.
				if _, err := os.Stat(blk.Path); err != nil {
					report.add("epub", stateIdx, fmt.Errorf("image missing: %w", err))
					continue
				}
				internal, err := e.AddImage(blk.Path, "")
				if err != nil {
					report.add("epub", stateIdx, fmt.Errorf("failed to embed image: %w", err))
					continue
				}
				body.WriteString(fmt.Sprintf(`<p><img src="%s" alt=""/></p>`+"\n", internal))
			}
		}

		sectionFile := fmt.Sprintf("chapter_%03d.xhtml", n+1)
		if _, err := e.AddSection(body.String(), ch.Title, sectionFile, ""); err != nil {
			return report, fmt.Errorf("failed to add chapter %q: %w", ch.Title, err)
		}
	}

	if err := e.Write(outPath); err != nil {
		return report, fmt.Errorf("failed to write EPUB %s: %w", outPath, err)
	}

	a.log.Info("EPUB assembled", "book", title, "path", outPath, "errors", len(report.Errors))
	return report, nil
}
