// Package extract pulls an embedded "question recap" out of an assistant
// reply. Some platforms are prompted to restate the user's question under a
// recognizable heading before answering; when present, that restatement is
// a usable stand-in for missing user text.
package extract

import (
	"regexp"
	"strings"

	"github.com/chatweave/chatweave/internal/normalize"
)

// Extractor produces a question summary from an assistant message's raw
// text. ok is false when the text carries no recognizable recap, which is
// the normal case for platforms not prompted to restate the question.
type Extractor interface {
	Extract(assistantText string) (summary string, ok bool)
}

// Heuristic recognizes the recap heading conventions observed in real
// exports. ChatGPT emits "## 1. 질문 정리" (sometimes with an escaped dot),
// Gemini prefixes the heading with an emoji, and some templates drop the
// numbering entirely.
type Heuristic struct{}

// NewHeuristic returns the rule-based extractor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

var startPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^##\s*1\\?\.\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s+🧐\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s+⚙️\s*질문\s*정리`),
	regexp.MustCompile(`(?m)^##\s*질문\s*정리`),
}

// End markers in priority order: the next ## heading, a "* * *" break, or a
// horizontal rule. The section runs to whichever comes first.
var endPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^##\s`),
	regexp.MustCompile(`(?m)^\*\s*\*\s*\*\s*$`),
	regexp.MustCompile(`(?m)^---+\s*$`),
}

// Extract returns the normalized text between a recap heading and the next
// section boundary.
func (h *Heuristic) Extract(assistantText string) (string, bool) {
	if assistantText == "" {
		return "", false
	}

	start, found := sectionStart(assistantText)
	if !found {
		return "", false
	}

	section := assistantText[start:]
	section = section[:sectionEnd(section)]

	cleaned := cleanSection(section)
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// sectionStart returns the offset just past the matched heading line.
func sectionStart(text string) (int, bool) {
	for _, pattern := range startPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		lineEnd := strings.IndexByte(text[loc[1]:], '\n')
		if lineEnd == -1 {
			return len(text), true
		}
		return loc[1] + lineEnd + 1, true
	}
	return 0, false
}

func sectionEnd(text string) int {
	end := len(text)
	for _, pattern := range endPatterns {
		if loc := pattern.FindStringIndex(text); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}
	return end
}

var markdownEscapes = strings.NewReplacer(`\*`, "*", `\-`, "-", `\[`, "[", `\]`, "]")

func cleanSection(text string) string {
	text = markdownEscapes.Replace(text)
	return normalize.Normalize(text)
}
