// Package assembler implements the final stage: rendering the refined
// document state into a fixed-layout PDF and a reflowable EPUB.
package assembler

import "fmt"

// RenderError records one block that failed to render. Rendering continues
// past it; the report lets the caller decide whether the output is usable.
type RenderError struct {
	BlockIndex int
	Format     string
	Err        error
}

func (e RenderError) Error() string {
	return fmt.Sprintf("%s render failed at block %d: %v", e.Format, e.BlockIndex, e.Err)
}

// Report collects the per-block failures of one rendering run.
type Report struct {
	Errors []RenderError
}

func (r *Report) add(format string, blockIndex int, err error) {
	r.Errors = append(r.Errors, RenderError{BlockIndex: blockIndex, Format: format, Err: err})
}

// Clean reports whether every block rendered.
func (r *Report) Clean() bool {
	return len(r.Errors) == 0
}
