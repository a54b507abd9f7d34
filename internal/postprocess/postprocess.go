// Package postprocess scrubs common LLM artifacts from raw generate-endpoint
// replies before the structured payload is extracted from them.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean prepares a raw model reply for JSON payload extraction:
//  1. Thinking / reasoning block removal
//  2. Markdown code-fence unwrapping
//  3. Control character stripping
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = unwrapCodeFence(text)
	text = stripControl(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: code fences ---

// fenceRe matches a reply wrapped entirely in a Markdown code fence, with an
// optional language tag. Models emit these even with format:"json" set.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\n?```$")

func unwrapCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// --- Phase 3: control characters ---

// stripControl drops characters below 0x20 except tab, newline and carriage
// return. Some models leak raw escapes that break the JSON decoder.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x20 || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, text)
}
