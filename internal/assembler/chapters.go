package assembler

import "github.com/valpere/perebook/internal/book"

// Chapter is a heading plus everything up to the next heading. Index keeps
// each block's position in the original state so render failures can be
// reported against it.
type Chapter struct {
	Title  string
	Blocks []book.Block
	Index  []int
}

// fallbackChapterTitle labels content appearing before the first heading.
const fallbackChapterTitle = "Chapter"

// Chapters groups the state into heading-delimited chapters, preserving
// block order exactly. A document that opens without a heading gets a
// fallback first chapter.
func Chapters(st book.State) []Chapter {
	var chapters []Chapter
	current := -1

	for i, blk := range st {
		if blk.Type == book.Heading || current < 0 {
			title := fallbackChapterTitle
			if blk.Type == book.Heading {
				title = blk.TargetText()
				if title == "" {
					title = blk.SourceText()
				}
			}
			chapters = append(chapters, Chapter{Title: title})
			current = len(chapters) - 1
		}
		chapters[current].Blocks = append(chapters[current].Blocks, blk)
		chapters[current].Index = append(chapters[current].Index, i)
	}

	return chapters
}
