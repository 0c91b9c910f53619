package normalize

import (
	"strings"
	"testing"
)

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if got := Normalize("   \n\t\n  "); got != "" {
		t.Errorf("expected empty output for whitespace, got %q", got)
	}
}

func TestNormalize_LineEndings(t *testing.T) {
	unix := Normalize("first line\nsecond line")
	windows := Normalize("first line\r\nsecond line")
	mac := Normalize("first line\rsecond line")

	if unix != windows || unix != mac {
		t.Errorf("line ending variants should normalize equal: %q / %q / %q", unix, windows, mac)
	}
}

func TestNormalize_TrailingWhitespace(t *testing.T) {
	got := Normalize("a question   \nwith trailing spaces\t\t")
	want := "a question\nwith trailing spaces"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_InteriorSpaces(t *testing.T) {
	got := Normalize("words   separated \t by   runs")
	want := "words separated by runs"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_LeadingIndentKept(t *testing.T) {
	got := Normalize("- item\n  - nested   item")
	want := "- item\n  - nested item"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_BlankRuns(t *testing.T) {
	got := Normalize("para one\n\n\n\n\npara two")
	want := "para one\n\npara two"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_SmartQuotes(t *testing.T) {
	got := Normalize("he said “hello” twice")
	want := `he said "hello" twice`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_FencedCodePreserved(t *testing.T) {
	text := "before\n```go\nx :=   1\ty := 2\n```\nafter"
	got := Normalize(text)
	if !strings.Contains(got, "x :=   1\ty := 2") {
		t.Errorf("code fence content was altered: %q", got)
	}
}

func TestNormalize_InlineCodePreserved(t *testing.T) {
	got := Normalize("run `cmd   --flag` now")
	if !strings.Contains(got, "`cmd   --flag`") {
		t.Errorf("inline code content was altered: %q", got)
	}
}

func TestNormalize_ExtraBackticksReduced(t *testing.T) {
	text := "`````\ncode here\n`````"
	got := Normalize(text)
	if !strings.HasPrefix(got, "```") || strings.HasPrefix(got, "````") {
		t.Errorf("expected fence reduced to three backticks, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"plain question",
		"multi  space\r\nand “quotes”\n\n\n\nand runs",
		"with `inline  code` kept",
		"```\nfence   content\n```",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a, okA := Fingerprint("what is a goroutine?")
	b, okB := Fingerprint("what is a goroutine?")
	if !okA || !okB {
		t.Fatal("expected fingerprints for non-empty text")
	}
	if a != b {
		t.Errorf("same text produced different fingerprints: %s / %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprint_NormalizationEquivalence(t *testing.T) {
	a, _ := Fingerprint("what is   a goroutine?  \r\n")
	b, _ := Fingerprint("what is a goroutine?")
	if a != b {
		t.Errorf("normalization-equivalent texts differ: %s / %s", a, b)
	}
}

func TestFingerprint_DifferentText(t *testing.T) {
	a, _ := Fingerprint("first question")
	b, _ := Fingerprint("second question")
	if a == b {
		t.Error("different texts produced the same fingerprint")
	}
}

func TestFingerprint_EmptyHasNone(t *testing.T) {
	if _, ok := Fingerprint(""); ok {
		t.Error("empty text must not have a fingerprint")
	}
	if _, ok := Fingerprint("  \n\t  "); ok {
		t.Error("whitespace-only text must not have a fingerprint")
	}
}
