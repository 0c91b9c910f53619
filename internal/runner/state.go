package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BatchState tracks progress for resumable batch runs. Interrupting a
// batch and rerunning it with the same state file skips the session
// directories already built.
type BatchState struct {
	RunID             string    `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	LastProcessedAt   time.Time `json:"last_processed_at"`
	SessionsProcessed []string  `json:"sessions_processed"`
	SessionsRemaining int       `json:"sessions_remaining"`
	PromptGroupsTotal int       `json:"prompt_groups_total"`
	Errors            []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads batch state from disk, or creates a new one.
func LoadState(path, runID string) (*BatchState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BatchState{
				RunID:     runID,
				StartedAt: time.Now().UTC(),
				path:      path,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s BatchState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = path
	return &s, nil
}

// Save persists the state to disk.
func (s *BatchState) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// IsProcessed reports whether the given session directory is already done.
func (s *BatchState) IsProcessed(sessionDir string) bool {
	for _, done := range s.SessionsProcessed {
		if done == sessionDir {
			return true
		}
	}
	return false
}

// MarkProcessed records a session directory as done.
func (s *BatchState) MarkProcessed(sessionDir string) {
	s.SessionsProcessed = append(s.SessionsProcessed, sessionDir)
}

// AddError records a non-fatal per-session failure.
func (s *BatchState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
