package session

import (
	"testing"

	"github.com/chatweave/chatweave/internal/align"
	"github.com/chatweave/chatweave/internal/ir"
)

func TestBuild_KeysAndReferences(t *testing.T) {
	sim := 1.0
	units := map[string]ir.QAUnitIR{
		"chatgpt": {Platform: "chatgpt", ConversationID: "cg-conv"},
		"claude":  {Platform: "claude", ConversationID: "cl-conv"},
	}
	groups := []align.Group{
		{
			Canonical: ir.QAUnit{QAID: "q0000", Platform: "chatgpt", ConversationID: "cg-conv", QuestionFromUser: "first question"},
			Members: []align.Member{
				{Unit: ir.QAUnit{QAID: "q0000", Platform: "chatgpt", ConversationID: "cg-conv", QuestionFromUser: "first question"}, Similarity: &sim},
				{Unit: ir.QAUnit{QAID: "q0000", Platform: "claude", ConversationID: "cl-conv", QuestionFromUser: "first question"}, Similarity: &sim},
			},
		},
		{
			Canonical: ir.QAUnit{QAID: "q0001", Platform: "chatgpt", ConversationID: "cg-conv", QuestionFromUser: "second question"},
			DependsOn: []int{0},
			Members: []align.Member{
				{Unit: ir.QAUnit{QAID: "q0001", Platform: "chatgpt", ConversationID: "cg-conv", QuestionFromUser: "second question"}, Similarity: &sim},
			},
		},
	}

	doc := Build("session-1", []string{"chatgpt", "claude"}, units, groups)

	if doc.Schema != ir.SessionSchema {
		t.Errorf("unexpected schema %s", doc.Schema)
	}
	if doc.SessionID != "session-1" {
		t.Errorf("unexpected session id %s", doc.SessionID)
	}
	if len(doc.Conversations) != 2 || doc.Conversations[1].ConversationID != "cl-conv" {
		t.Errorf("unexpected conversation refs: %+v", doc.Conversations)
	}

	if len(doc.Prompts) != 2 {
		t.Fatalf("expected 2 prompt groups, got %d", len(doc.Prompts))
	}
	if doc.Prompts[0].PromptKey != "p0000" || doc.Prompts[1].PromptKey != "p0001" {
		t.Errorf("unexpected keys: %s, %s", doc.Prompts[0].PromptKey, doc.Prompts[1].PromptKey)
	}
	if doc.Prompts[0].CanonicalPrompt.Text != "first question" {
		t.Errorf("unexpected canonical text %q", doc.Prompts[0].CanonicalPrompt.Text)
	}
	if doc.Prompts[0].CanonicalPrompt.Source.Platform != "chatgpt" {
		t.Errorf("unexpected canonical source %+v", doc.Prompts[0].CanonicalPrompt.Source)
	}
	if doc.Prompts[0].CanonicalPrompt.Language != nil {
		t.Error("language stays null")
	}
	if len(doc.Prompts[1].DependsOn) != 1 || doc.Prompts[1].DependsOn[0] != "p0000" {
		t.Errorf("unexpected depends_on: %v", doc.Prompts[1].DependsOn)
	}
	if len(doc.Prompts[0].PerPlatform) != 2 {
		t.Errorf("expected both members referenced, got %d", len(doc.Prompts[0].PerPlatform))
	}
}

func TestBuild_SummaryFallbackText(t *testing.T) {
	orphan := ir.QAUnit{
		QAID:            "q0000",
		Platform:        "gemini",
		ConversationID:  "gm-conv",
		QuestionSummary: "restated question",
	}
	groups := []align.Group{
		{
			Canonical: orphan,
			Members:   []align.Member{{Unit: orphan, MissingPrompt: true}},
		},
	}
	units := map[string]ir.QAUnitIR{"gemini": {Platform: "gemini", ConversationID: "gm-conv"}}

	doc := Build("s", []string{"gemini"}, units, groups)

	pg := doc.Prompts[0]
	if pg.CanonicalPrompt.Text != "restated question" {
		t.Errorf("canonical text should fall back to the summary, got %q", pg.CanonicalPrompt.Text)
	}
	ref := pg.PerPlatform[0]
	if ref.PromptText != "restated question" {
		t.Errorf("member text should fall back to the summary, got %q", ref.PromptText)
	}
	if !ref.MissingPrompt {
		t.Error("missing_prompt should carry through")
	}
	if ref.PromptSimilarity != nil {
		t.Error("similarity stays nil without a fingerprint")
	}
}

func TestBuild_EmptyGroups(t *testing.T) {
	doc := Build("s", []string{"chatgpt"}, map[string]ir.QAUnitIR{"chatgpt": {ConversationID: "c"}}, nil)

	if len(doc.Prompts) != 0 {
		t.Errorf("expected no prompts, got %d", len(doc.Prompts))
	}
	if doc.Prompts == nil {
		t.Error("prompts should serialize as an empty list, not null")
	}
}
