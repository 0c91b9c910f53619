// Package ir defines the intermediate representation produced by the
// chatweave pipeline: per-platform conversations, question/answer units,
// and cross-platform session alignments. The JSON shapes here are the
// persisted contract and must round-trip losslessly.
package ir

import "time"

// Schema version tags for the three IR documents.
const (
	ConversationSchema = "conversation-ir/v1"
	QAUnitSchema       = "qa-unit-ir/v1"
	SessionSchema      = "multi-model-session-ir/v1"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Meta is the typed extension map carried by every IR entity. Collaborators
// may attach annotations without touching the fixed schema.
type Meta map[string]string

// Message is a single turn in a conversation. RawContent may be the empty
// string but is never absent; NormalizedContent and QueryHash are set only
// when the message carries usable text.
type Message struct {
	ID                string    `json:"id"`
	Index             int       `json:"index"`
	Role              string    `json:"role"`
	Timestamp         time.Time `json:"timestamp"`
	RawContent        string    `json:"raw_content"`
	NormalizedContent string    `json:"normalized_content,omitempty"`
	ContentFormat     string    `json:"content_format"`
	QueryHash         string    `json:"query_hash,omitempty"`
	Meta              Meta      `json:"meta,omitempty"`
}

// Conversation is one platform's parsed message stream.
type Conversation struct {
	Schema         string    `json:"schema"`
	Platform       string    `json:"platform"`
	ConversationID string    `json:"conversation_id"`
	Meta           Meta      `json:"meta,omitempty"`
	Messages       []Message `json:"messages"`
}

// QAUnit is one question/answer pairing within a single platform stream.
// The message index slices partition a contiguous sub-range of the stream;
// either side may be empty (orphan and trailing units).
type QAUnit struct {
	QAID                string   `json:"qa_id"`
	Platform            string   `json:"platform"`
	ConversationID      string   `json:"conversation_id"`
	UserMessageIDs      []string `json:"user_message_ids"`
	AssistantMessageIDs []string `json:"assistant_message_ids"`
	QuestionFromUser    string   `json:"question_from_user,omitempty"`
	QuestionSummary     string   `json:"question_from_assistant_summary,omitempty"`
	UserQueryHash       string   `json:"user_query_hash,omitempty"`
	Meta                Meta     `json:"meta,omitempty"`

	// Stream positions backing the ID slices. Not part of the JSON
	// contract; used for the partition invariant check.
	UserIndices      []int `json:"-"`
	AssistantIndices []int `json:"-"`
}

// QAUnitIR is the ordered QA unit list for one conversation.
type QAUnitIR struct {
	Schema         string   `json:"schema"`
	Platform       string   `json:"platform"`
	ConversationID string   `json:"conversation_id"`
	QAUnits        []QAUnit `json:"qa_units"`
}

// CanonicalSource points at the QA unit whose text labels a prompt group.
type CanonicalSource struct {
	Platform string `json:"platform"`
	QAID     string `json:"qa_id"`
}

// CanonicalPrompt is the representative question for a prompt group.
// Language detection is not implemented; the field stays null on disk.
type CanonicalPrompt struct {
	Text     string          `json:"text"`
	Language *string         `json:"language"`
	Source   CanonicalSource `json:"source"`
}

// PlatformRef is one platform's membership in a prompt group.
// PromptSimilarity is nil when no fingerprint was available for the member.
type PlatformRef struct {
	Platform         string   `json:"platform"`
	QAID             string   `json:"qa_id"`
	ConversationID   string   `json:"conversation_id"`
	PromptText       string   `json:"prompt_text,omitempty"`
	PromptSimilarity *float64 `json:"prompt_similarity"`
	MissingPrompt    bool     `json:"missing_prompt"`
	MissingContext   bool     `json:"missing_context"`
}

// PromptGroup is a cross-platform equivalence class: "the same logical
// question" asked on one or more platforms. At most one member per platform.
type PromptGroup struct {
	PromptKey       string          `json:"prompt_key"`
	CanonicalPrompt CanonicalPrompt `json:"canonical_prompt"`
	DependsOn       []string        `json:"depends_on"`
	PerPlatform     []PlatformRef   `json:"per_platform"`
	Meta            Meta            `json:"meta,omitempty"`
}

// ConversationRef identifies a conversation that contributed to a session.
type ConversationRef struct {
	Platform       string `json:"platform"`
	ConversationID string `json:"conversation_id"`
}

// SessionIR is the aligned view of all platform transcripts that share one
// session directory. Platforms are listed in discovery order, which is the
// order that determined canonical selection.
type SessionIR struct {
	Schema        string            `json:"schema"`
	SessionID     string            `json:"session_id"`
	Platforms     []string          `json:"platforms"`
	Conversations []ConversationRef `json:"conversations"`
	Prompts       []PromptGroup     `json:"prompts"`
	Meta          Meta              `json:"meta,omitempty"`
}
