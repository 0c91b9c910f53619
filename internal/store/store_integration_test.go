//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/chatweave/chatweave/internal/ir"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func integrationSession(sessionID string) ir.SessionIR {
	sim := 1.0
	return ir.SessionIR{
		Schema:    ir.SessionSchema,
		SessionID: sessionID,
		Platforms: []string{"chatgpt", "claude"},
		Conversations: []ir.ConversationRef{
			{Platform: "chatgpt", ConversationID: "cg-conv"},
			{Platform: "claude", ConversationID: "cl-conv"},
		},
		Prompts: []ir.PromptGroup{
			{
				PromptKey: "p0000",
				CanonicalPrompt: ir.CanonicalPrompt{
					Text:   "integration test question",
					Source: ir.CanonicalSource{Platform: "chatgpt", QAID: "q0000"},
				},
				DependsOn: []string{},
				PerPlatform: []ir.PlatformRef{
					{Platform: "chatgpt", QAID: "q0000", ConversationID: "cg-conv", PromptText: "integration test question", PromptSimilarity: &sim},
					{Platform: "claude", QAID: "q0000", ConversationID: "cl-conv", PromptText: "integration test question", PromptSimilarity: &sim, MissingContext: true},
				},
			},
			{
				PromptKey: "p0001",
				CanonicalPrompt: ir.CanonicalPrompt{
					Text:   "follow-up question",
					Source: ir.CanonicalSource{Platform: "chatgpt", QAID: "q0001"},
				},
				DependsOn: []string{"p0000"},
				PerPlatform: []ir.PlatformRef{
					{Platform: "chatgpt", QAID: "q0001", ConversationID: "cg-conv", PromptText: "follow-up question", MissingPrompt: true},
				},
			},
		},
	}
}

func TestIntegration_WriteAndLoadSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "integration-test-" + uuid.New().String()[:8]

	pk, err := s.WriteSession(ctx, uuid.New(), integrationSession(sessionID))
	if err != nil {
		t.Fatalf("WriteSession failed: %v", err)
	}
	if pk == uuid.Nil {
		t.Fatal("expected non-nil session PK")
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM sessions WHERE session_id = $1", sessionID)
	})

	doc, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if doc.Schema != ir.SessionSchema {
		t.Errorf("expected schema round trip, got %q", doc.Schema)
	}
	if len(doc.Platforms) != 2 {
		t.Errorf("expected 2 platforms, got %v", doc.Platforms)
	}
	if len(doc.Prompts) != 2 {
		t.Fatalf("expected 2 prompt groups, got %d", len(doc.Prompts))
	}
	if doc.Prompts[0].PromptKey != "p0000" || doc.Prompts[1].PromptKey != "p0001" {
		t.Errorf("prompt groups out of order: %s, %s", doc.Prompts[0].PromptKey, doc.Prompts[1].PromptKey)
	}

	first := doc.Prompts[0]
	if first.CanonicalPrompt.Text != "integration test question" {
		t.Errorf("canonical text lost: %q", first.CanonicalPrompt.Text)
	}
	if len(first.PerPlatform) != 2 {
		t.Fatalf("expected 2 platform refs, got %d", len(first.PerPlatform))
	}
	claude := first.PerPlatform[1]
	if claude.Platform != "claude" {
		t.Errorf("refs out of order: %q", claude.Platform)
	}
	if claude.PromptSimilarity == nil || *claude.PromptSimilarity != 1.0 {
		t.Errorf("similarity lost: %v", claude.PromptSimilarity)
	}
	if !claude.MissingContext {
		t.Error("missing_context lost")
	}

	second := doc.Prompts[1]
	if len(second.DependsOn) != 1 || second.DependsOn[0] != "p0000" {
		t.Errorf("depends_on lost: %v", second.DependsOn)
	}
	if !second.PerPlatform[0].MissingPrompt {
		t.Error("missing_prompt lost")
	}
	if second.PerPlatform[0].PromptSimilarity != nil {
		t.Errorf("nil similarity should stay null, got %v", second.PerPlatform[0].PromptSimilarity)
	}
}

func TestIntegration_RewriteReplacesSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "integration-test-" + uuid.New().String()[:8]

	if _, err := s.WriteSession(ctx, uuid.New(), integrationSession(sessionID)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM sessions WHERE session_id = $1", sessionID)
	})

	smaller := integrationSession(sessionID)
	smaller.Prompts = smaller.Prompts[:1]
	if _, err := s.WriteSession(ctx, uuid.New(), smaller); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	doc, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if len(doc.Prompts) != 1 {
		t.Errorf("rewrite should replace stale rows, got %d groups", len(doc.Prompts))
	}

	var count int
	err = s.pool.QueryRow(ctx, `
		SELECT count(*) FROM sessions WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one session row, got %d", count)
	}
}
