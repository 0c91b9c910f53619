// Package normalize canonicalizes free text for stable comparison and
// hashing. Normalization is deterministic, total, and idempotent: two texts
// a human would call "the same question pasted twice" normalize to the same
// string, while code content is passed through byte-for-byte.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const placeholderFormat = "\x00CODE_BLOCK_%d\x00"

var (
	extraBackticksRe = regexp.MustCompile("(?m)^`{4,}")
	fencedCodeRe     = regexp.MustCompile("(?s)```[^\n]*\n.*?```")
	inlineCodeRe     = regexp.MustCompile("`[^`\n]+`")
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes text: code fences are protected, unicode is
// brought to NFC, line endings become LF, smart quotes become plain quotes,
// interior whitespace runs collapse, blank-line runs collapse to one empty
// line, and the result is trimmed. Empty input stays empty.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var blocks []string
	text = protectCode(text, &blocks)
	text = norm.NFC.String(text)
	text = unifyLineEndings(text)
	text = unifySmartQuotes(text)
	text = collapseWhitespace(text)
	text = restoreCode(text, blocks)
	return text
}

// protectCode swaps fenced and inline code spans for placeholders so the
// whitespace passes cannot touch their content. Runs of four or more
// backticks at line start are first reduced to three (a common export
// artifact).
func protectCode(text string, blocks *[]string) string {
	if !strings.Contains(text, "`") {
		return text
	}

	text = extraBackticksRe.ReplaceAllString(text, "```")

	stash := func(match string) string {
		*blocks = append(*blocks, match)
		return fmt.Sprintf(placeholderFormat, len(*blocks)-1)
	}
	text = fencedCodeRe.ReplaceAllStringFunc(text, stash)
	text = inlineCodeRe.ReplaceAllStringFunc(text, stash)
	return text
}

func restoreCode(text string, blocks []string) string {
	for i, block := range blocks {
		text = strings.Replace(text, fmt.Sprintf(placeholderFormat, i), block, 1)
	}
	return text
}

func unifyLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func unifySmartQuotes(text string) string {
	text = strings.ReplaceAll(text, "“", `"`)
	return strings.ReplaceAll(text, "”", `"`)
}

// collapseWhitespace trims trailing whitespace per line, collapses interior
// space runs after the first non-space rune (leading indentation is list
// structure and stays), drops whitespace-only lines, and squeezes blank-line
// runs down to a single empty line.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseLine(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func collapseLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return ""
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	head, rest := line[:indent], line[indent:]

	var b strings.Builder
	b.Grow(len(line))
	b.WriteString(head)
	inRun := false
	for _, r := range rest {
		if r == ' ' || r == '\t' {
			if !inRun {
				b.WriteByte(' ')
			}
			inRun = true
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
