package parse

import "regexp"

// Platform UIs leak chrome into copied assistant replies. These strips run
// before normalization so the artifacts never reach question matching; the
// raw content keeps them.

var geminiStrips = []struct {
	re   *regexp.Regexp
	repl string
}{
	// "생각하는 과정 표시" thinking-process toggle at the top.
	{regexp.MustCompile(`^생각하는 과정 표시\s*\n+`), ""},
	// "Sheets로 내보내기" link rendered after tables.
	{regexp.MustCompile(`\n+Sheets로 내보내기\s*\n*`), "\n"},
	// "코드 스니펫" label rendered before code blocks.
	{regexp.MustCompile(`\n*코드 스니펫\s*\n+`), "\n\n"},
	// "소스" footer at the end.
	{regexp.MustCompile(`\n+소스\s*$`), ""},
}

var (
	// "27s동안 생각함" thinking-time indicator at the top.
	grokThinking = regexp.MustCompile(`^\d+s동안 생각함\s*\n+`)
	// Favicon image rows and the "N개의 웹페이지" citation footer,
	// optionally interleaved with an "𝕏 게시물" post count.
	grokFooter = regexp.MustCompile(`(?s)(\n*!\[\]\([^)]+\)\s*)+(\n*𝕏 게시물[^\n]*)?(\n*!\[\]\([^)]+\)\s*)*\n*\d+개의 웹페이지[^\n]*$`)
)

func cleanAssistant(platform, text string) string {
	switch platform {
	case "gemini":
		for _, s := range geminiStrips {
			text = s.re.ReplaceAllString(text, s.repl)
		}
	case "grok":
		text = grokThinking.ReplaceAllString(text, "")
		text = grokFooter.ReplaceAllString(text, "")
	}
	return text
}
