package source

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func row(pos int64, texts ...pdf.Text) *pdf.Row {
	return &pdf.Row{Position: pos, Content: texts}
}

func span(s string, size float64, font string) pdf.Text {
	return pdf.Text{S: s, FontSize: size, Font: font}
}

func TestMergeRows_JoinsAdjacentRows(t *testing.T) {
	rows := pdf.Rows{
		row(700, span("The quick brown", 11, "Times")),
		row(688, span("fox jumps over.", 11, "Times")),
	}

	blocks, mean := mergeRows(rows)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 merged block, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Text != "The quick brown fox jumps over." {
		t.Errorf("unexpected merged text: %q", blocks[0].Text)
	}
	if mean != 11 {
		t.Errorf("expected mean font size 11, got %v", mean)
	}
}

func TestMergeRows_GapStartsNewBlock(t *testing.T) {
	rows := pdf.Rows{
		row(700, span("Chapter One", 16, "Times-Bold")),
		row(640, span("It was a dark night.", 11, "Times")),
	}

	blocks, _ := mergeRows(rows)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if !blocks[0].Bold {
		t.Error("expected first block to be bold")
	}
	if blocks[0].MaxFontSize != 16 {
		t.Errorf("expected max font size 16, got %v", blocks[0].MaxFontSize)
	}
	if blocks[1].Bold {
		t.Error("expected second block to not be bold")
	}
}

func TestMergeRows_Empty(t *testing.T) {
	blocks, mean := mergeRows(nil)
	if len(blocks) != 0 || mean != 0 {
		t.Errorf("expected no blocks and zero mean, got %v, %v", blocks, mean)
	}
}

func TestImagePageRe(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"mybook_3_Im0.png", "3"},
		{"my_book_12_Im1.jpg", "12"},
		{"book_1_Fm0.tiff", "1"},
	}
	for _, tt := range tests {
		m := imagePageRe.FindStringSubmatch(tt.name)
		if m == nil {
			t.Errorf("expected %q to match", tt.name)
			continue
		}
		if m[1] != tt.page {
			t.Errorf("expected page %q from %q, got %q", tt.page, tt.name, m[1])
		}
	}

	if imagePageRe.MatchString("notes.txt") {
		t.Error("expected non-image name to not match")
	}
}
