package parse

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// Known platforms, in the filename conventions the exports use:
// chatgpt_*.jsonl, claude-*.jsonl, and so on.
var platformPatterns = map[string]*regexp.Regexp{
	"chatgpt": regexp.MustCompile(`(?i)^chatgpt[_-]`),
	"claude":  regexp.MustCompile(`(?i)^claude[_-]`),
	"gemini":  regexp.MustCompile(`(?i)^gemini[_-]`),
	"grok":    regexp.MustCompile(`(?i)^grok[_-]`),
}

// InferPlatform resolves the platform label with priority:
// explicit override, then export metadata, then filename prefix.
func InferPlatform(path, metaPlatform, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if metaPlatform != "" {
		if _, known := platformPatterns[metaPlatform]; known {
			return metaPlatform, nil
		}
	}

	name := filepath.Base(path)
	for platform, pattern := range platformPatterns {
		if pattern.MatchString(name) {
			return platform, nil
		}
	}

	return "", fmt.Errorf(
		"cannot infer platform for %q: add 'platform' to metadata, use a platform-prefixed filename, or pass an override",
		name,
	)
}
