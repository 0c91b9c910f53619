// Package progress persists a step-by-step progress.json next to the
// pipeline output so external tools can watch a long build without parsing
// logs.
package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Step names, in pipeline order.
const (
	StepParse        = "parse"
	StepBuildQA      = "build_qa_ir"
	StepBuildSession = "build_session_ir"
	StepWriteOutput  = "write_output"
)

// Statuses shared by steps and the overall run.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Step is one tracked pipeline stage.
type Step struct {
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Details     map[string]any `json:"details"`
	Error       string         `json:"error,omitempty"`
}

// Tracker writes progress.json into the output directory after every state
// change. Writes are best-effort: a failed progress write never fails the
// pipeline it reports on.
type Tracker struct {
	dir       string
	enabled   bool
	startedAt time.Time
	status    string
	input     map[string]any
	steps     []*Step
	output    map[string]any
	err       string
}

// New returns a tracker rooted at outputDir. A disabled tracker accepts all
// calls and writes nothing (dry runs).
func New(outputDir string, enabled bool) *Tracker {
	t := &Tracker{
		dir:       outputDir,
		enabled:   enabled,
		startedAt: time.Now().UTC(),
		status:    StatusPending,
	}
	for _, name := range []string{StepParse, StepBuildQA, StepBuildSession, StepWriteOutput} {
		t.steps = append(t.steps, &Step{Name: name, Status: StatusPending, Details: map[string]any{}})
	}
	return t
}

// SetInput records what the run is processing.
func (t *Tracker) SetInput(inputType, path string, files []string) {
	t.input = map[string]any{"type": inputType, "path": path, "files": files}
	t.write()
}

// StartStep marks a step in progress.
func (t *Tracker) StartStep(name string, details map[string]any) {
	s := t.step(name)
	now := time.Now().UTC()
	s.Status = StatusInProgress
	s.StartedAt = &now
	mergeDetails(s, details)
	t.status = StatusInProgress
	t.write()
}

// CompleteStep marks a step done.
func (t *Tracker) CompleteStep(name string, details map[string]any) {
	s := t.step(name)
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.CompletedAt = &now
	mergeDetails(s, details)
	t.write()
}

// FailStep marks a step failed and the run with it.
func (t *Tracker) FailStep(name string, errMsg string) {
	s := t.step(name)
	s.Status = StatusError
	s.Error = errMsg
	t.status = StatusError
	t.err = errMsg
	t.write()
}

// Complete marks the whole run done and records the output paths.
func (t *Tracker) Complete(output map[string]any) {
	t.output = output
	t.status = StatusCompleted
	t.write()
}

// Fail marks the whole run failed.
func (t *Tracker) Fail(errMsg string) {
	t.status = StatusError
	t.err = errMsg
	t.write()
}

func (t *Tracker) step(name string) *Step {
	for _, s := range t.steps {
		if s.Name == name {
			return s
		}
	}
	// Unknown step names are a caller bug; surface it immediately.
	panic("progress: unknown step " + name)
}

func mergeDetails(s *Step, details map[string]any) {
	for k, v := range details {
		s.Details[k] = v
	}
}

func (t *Tracker) write() {
	if !t.enabled {
		return
	}

	doc := map[string]any{
		"schema":     "progress/v1",
		"started_at": t.startedAt.Format(time.RFC3339),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"status":     t.status,
		"input":      t.input,
		"steps":      t.steps,
		"output":     t.output,
	}
	if t.err != "" {
		doc["error"] = t.err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(t.dir, "progress.json"), data, 0o644)
}
