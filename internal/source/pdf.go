package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// rowGapFactor decides when two adjacent text rows belong to different
// blocks: a vertical gap larger than this multiple of the font size starts a
// new block.
const rowGapFactor = 1.8

// pdfDocument reads a PDF with ledongthuc/pdf for text and pdfcpu for
// embedded images.
type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
	title  string
	images map[int][]string
	log    *slog.Logger
}

// OpenPDF opens a PDF book. Embedded images are extracted into imageDir up
// front; extraction failures are logged and the book proceeds text-only.
func OpenPDF(path, imageDir string, log *slog.Logger) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	d := &pdfDocument{
		file:   f,
		reader: r,
		title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		images: map[int][]string{},
		log:    log,
	}

	if imageDir != "" {
		if err := d.extractImages(path, imageDir); err != nil {
			log.Warn("image extraction failed, continuing text-only", "book", d.title, "error", err)
		}
	}

	return d, nil
}

func (d *pdfDocument) PageCount() int { return d.reader.NumPage() }

func (d *pdfDocument) Title() string { return d.title }

func (d *pdfDocument) Close() error { return d.file.Close() }

// Page returns page n (1-based) as merged text blocks followed by the page's
// extracted images.
func (d *pdfDocument) Page(n int) (Page, error) {
	result := Page{Number: n}

	page := d.reader.Page(n)
	if !page.V.IsNull() {
		rows, err := page.GetTextByRow()
		if err != nil {
			return result, fmt.Errorf("failed to read text on page %d: %w", n, err)
		}
		result.Blocks, result.MeanFontSize = mergeRows(rows)
	}

	for _, img := range d.images[n] {
		result.Blocks = append(result.Blocks, Block{Kind: KindImage, ImagePath: img})
	}

	return result, nil
}

// mergeRows groups adjacent text rows into paragraph-level blocks. Rows
// arrive top-to-bottom; a large vertical gap starts a new block.
func mergeRows(rows pdf.Rows) ([]Block, float64) {
	var blocks []Block
	var sb strings.Builder
	var maxSize float64
	var bold bool
	var prevPos int64 = -1

	var sizeSum float64
	var sizeCount int

	flush := func() {
		text := strings.TrimSpace(sb.String())
		if text != "" {
			blocks = append(blocks, Block{
				Kind:        KindText,
				Text:        text,
				MaxFontSize: maxSize,
				Bold:        bold,
			})
		}
		sb.Reset()
		maxSize = 0
		bold = false
	}

	for _, row := range rows {
		var rowText strings.Builder
		var rowSize float64
		rowBold := false

		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			rowText.WriteString(t.S)
			if t.FontSize > rowSize {
				rowSize = t.FontSize
			}
			if strings.Contains(strings.ToLower(t.Font), "bold") {
				rowBold = true
			}
			sizeSum += t.FontSize
			sizeCount++
		}

		text := strings.TrimSpace(rowText.String())
		if text == "" {
			continue
		}

		if prevPos >= 0 && rowSize > 0 {
			gap := float64(prevPos - row.Position)
			if gap > rowGapFactor*rowSize {
				flush()
			}
		}
		prevPos = row.Position

		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(text)
		if rowSize > maxSize {
			maxSize = rowSize
		}
		if rowBold {
			bold = true
		}
	}
	flush()

	var mean float64
	if sizeCount > 0 {
		mean = sizeSum / float64(sizeCount)
	}
	return blocks, mean
}

// pdfcpu names extracted images <base>_<page>_<resource>.<ext>.
var imagePageRe = regexp.MustCompile(`_(\d+)_[^_.]+\.(?:png|jpe?g|tiff?)$`)

func (d *pdfDocument) extractImages(path, imageDir string) error {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return err
	}
	if err := api.ExtractImagesFile(path, imageDir, nil, nil); err != nil {
		return err
	}

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := imagePageRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		d.images[pageNum] = append(d.images[pageNum], filepath.Join(imageDir, e.Name()))
	}
	for page := range d.images {
		sort.Strings(d.images[page])
	}
	return nil
}
