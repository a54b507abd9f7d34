// Package source reads the input book and exposes it as pages of layout
// blocks. The extractor consumes these without knowing anything about the
// underlying file format.
package source

// BlockKind distinguishes text from embedded images.
type BlockKind int

const (
	KindText BlockKind = iota
	KindImage
)

// Block is one layout unit on a page. For text blocks MaxFontSize and Bold
// carry the typographic signals used for heading detection; for image blocks
// ImagePath points at the extracted file.
type Block struct {
	Kind        BlockKind
	Text        string
	MaxFontSize float64
	Bold        bool
	ImagePath   string
}

// Page is one page of the book. MeanFontSize is the average over every text
// span on the page and serves as the baseline for heading detection.
type Page struct {
	Number       int
	MeanFontSize float64
	Blocks       []Block
}

// Document is a page-addressable book. Pages are numbered from 1.
type Document interface {
	PageCount() int
	Page(n int) (Page, error)
	Title() string
	Close() error
}
