// Package segmenter splits cleaned paragraph text into sentence units.
//
// Splitting is heuristic: sentence-terminal punctuation followed by
// whitespace ends a sentence unless the preceding word is a known
// abbreviation or a single-letter initial. Missed splits are acceptable;
// spurious splits inside names and titles are what the abbreviation list
// exists to prevent.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence even when followed by a period.
var abbreviations = map[string]struct{}{
	"Mr": {}, "Mrs": {}, "Ms": {}, "Dr": {}, "St": {},
	"a": {}, "p": {}, "v": {}, "vs": {}, "Inc": {}, "Ltd": {}, "Corp": {},
}

var (
	terminalRe   = regexp.MustCompile(`([.!?])\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Heal collapses all runs of whitespace to single spaces and trims the ends.
// Raw PDF text arrives with layout-driven line breaks that mean nothing.
func Heal(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Split segments text into sentences. Every returned sentence is trimmed and
// longer than two characters; shorter fragments are noise from the extractor.
func Split(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	last := 0

	for _, m := range terminalRe.FindAllStringSubmatchIndex(text, -1) {
		chunk := text[last:m[0]]
		punct := text[m[2]:m[3]]
		last = m[1]

		current.WriteString(chunk)
		current.WriteString(punct)

		if isAbbreviation(lastWord(chunk)) {
			// Rejoin: the punctuation belonged to an abbreviation,
			// keep accumulating into the current sentence.
			current.WriteString(" ")
			continue
		}

		emit(&sentences, current.String())
		current.Reset()
	}

	current.WriteString(text[last:])
	emit(&sentences, current.String())

	return sentences
}

func emit(sentences *[]string, s string) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 2 {
		*sentences = append(*sentences, s)
	}
}

// lastWord returns the final whitespace-delimited word of chunk, or "".
func lastWord(chunk string) string {
	words := strings.Fields(chunk)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

// isAbbreviation reports whether word suppresses a sentence split: it is in
// the fixed abbreviation set, or it is a single-letter initial.
func isAbbreviation(word string) bool {
	if word == "" {
		return false
	}
	if _, ok := abbreviations[word]; ok {
		return true
	}
	r, size := utf8.DecodeRuneInString(word)
	return size == len(word) && unicode.IsLetter(r)
}
