// Package irio reads and writes IR documents as JSON files. Filenames
// encode the document kind and source so a session directory stays
// browsable: {platform}_conv_{id}.json, {platform}_qau_{id}.json,
// mms_{session}.json.
package irio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatweave/chatweave/internal/ir"
)

// WriteConversation writes a conversation IR document and returns its path.
func WriteConversation(conv ir.Conversation, outputDir string) (string, error) {
	name := fmt.Sprintf("%s_conv_%s", conv.Platform, conv.ConversationID)
	return writeJSON(outputDir, name, conv)
}

// WriteQAUnits writes a QA unit IR document and returns its path.
func WriteQAUnits(qa ir.QAUnitIR, outputDir string) (string, error) {
	name := fmt.Sprintf("%s_qau_%s", qa.Platform, qa.ConversationID)
	return writeJSON(outputDir, name, qa)
}

// WriteSession writes a session IR document and returns its path.
func WriteSession(s ir.SessionIR, outputDir string) (string, error) {
	return writeJSON(outputDir, "mms_"+s.SessionID, s)
}

// ReadSession loads a session IR document back from disk.
func ReadSession(path string) (ir.SessionIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.SessionIR{}, fmt.Errorf("read session ir: %w", err)
	}
	var s ir.SessionIR
	if err := json.Unmarshal(data, &s); err != nil {
		return ir.SessionIR{}, fmt.Errorf("parse session ir: %w", err)
	}
	return s, nil
}

func writeJSON(outputDir, baseName string, doc any) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", baseName, err)
	}

	path := uniquePath(outputDir, baseName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", baseName, err)
	}
	return path, nil
}

// uniquePath appends _1, _2, ... when the target already exists, so
// repeated runs never clobber earlier output.
func uniquePath(dir, baseName string) string {
	path := filepath.Join(dir, baseName+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	for counter := 1; ; counter++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.json", baseName, counter))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}
