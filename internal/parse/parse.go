// Package parse reads chat-export JSONL files into the common conversation
// schema. An export starts with a metadata line ({"_meta":true,...})
// followed by one message per line; artifact lines are recognized and
// skipped. Parsing is the only place malformed input is rejected; the
// pipeline downstream assumes a well-typed message stream.
package parse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chatweave/chatweave/internal/ir"
	"github.com/chatweave/chatweave/internal/normalize"
)

// Parse reads a JSONL export into a Conversation. platformOverride forces
// the platform label; pass "" to infer it from metadata or filename.
func Parse(path, platformOverride string) (ir.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return ir.Conversation{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var (
		meta     ir.Meta
		metaRaw  map[string]json.RawMessage
		messages []rawMessage
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lineNum++

		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			return ir.Conversation{}, fmt.Errorf("invalid JSON at line %d: %w", lineNum, err)
		}

		if lineNum == 1 {
			if !boolField(fields, "_meta") {
				return ir.Conversation{}, fmt.Errorf("first line must be metadata with \"_meta\": true")
			}
			metaRaw = fields
			meta = metaFields(fields)
			continue
		}

		if boolField(fields, "_artifact") {
			continue
		}

		msg, err := parseMessage(fields)
		if err != nil {
			return ir.Conversation{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return ir.Conversation{}, fmt.Errorf("scan: %w", err)
	}
	if lineNum == 0 {
		return ir.Conversation{}, fmt.Errorf("empty export file")
	}

	platform, err := InferPlatform(path, stringField(metaRaw, "platform"), platformOverride)
	if err != nil {
		return ir.Conversation{}, err
	}

	conv := ir.Conversation{
		Schema:         ir.ConversationSchema,
		Platform:       platform,
		ConversationID: conversationID(path, stringField(metaRaw, "url")),
		Meta:           meta,
		Messages:       make([]ir.Message, 0, len(messages)),
	}
	for i, msg := range messages {
		conv.Messages = append(conv.Messages, buildMessage(i, msg, platform))
	}
	return conv, nil
}

type rawMessage struct {
	role      string
	content   string
	timestamp string
}

func parseMessage(fields map[string]json.RawMessage) (rawMessage, error) {
	if _, ok := fields["role"]; !ok {
		return rawMessage{}, fmt.Errorf("message missing 'role'")
	}
	if _, ok := fields["content"]; !ok {
		return rawMessage{}, fmt.Errorf("message missing 'content'")
	}

	msg := rawMessage{
		role:      stringField(fields, "role"),
		content:   stringField(fields, "content"),
		timestamp: stringField(fields, "timestamp"),
	}
	if msg.role != ir.RoleUser && msg.role != ir.RoleAssistant {
		return rawMessage{}, fmt.Errorf("unknown role %q", msg.role)
	}
	return msg, nil
}

func buildMessage(index int, msg rawMessage, platform string) ir.Message {
	out := ir.Message{
		ID:            ir.MessageID(index),
		Index:         index,
		Role:          msg.role,
		Timestamp:     parseTimestamp(msg.timestamp),
		RawContent:    msg.content,
		ContentFormat: "markdown",
	}

	content := msg.content
	if msg.role == ir.RoleAssistant && content != "" {
		content = cleanAssistant(platform, content)
	}
	if content != "" {
		out.NormalizedContent = normalize.Normalize(content)
	}
	if msg.role == ir.RoleUser {
		if hash, ok := normalize.Fingerprint(content); ok {
			out.QueryHash = hash
		}
	}
	return out
}

func parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Unparseable timestamps fall back to the epoch rather than
		// failing the whole export.
		return time.Unix(0, 0).UTC()
	}
	return ts
}

// conversationID prefers the conversation ID embedded in the export URL
// (the trailing path segment) and falls back to the filename stem.
func conversationID(path, url string) string {
	if url != "" {
		url = strings.SplitN(url, "?", 2)[0]
		url = strings.TrimRight(url, "/")
		if i := strings.LastIndexByte(url, '/'); i >= 0 && i < len(url)-1 {
			return url[i+1:]
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func boolField(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var v bool
	return json.Unmarshal(raw, &v) == nil && v
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var v string
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

// metaFields keeps the string-valued metadata fields as the conversation's
// extension map. Structured values stay in the raw export.
func metaFields(fields map[string]json.RawMessage) ir.Meta {
	meta := ir.Meta{}
	for key, raw := range fields {
		if key == "_meta" {
			continue
		}
		var v string
		if json.Unmarshal(raw, &v) == nil {
			meta[key] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
