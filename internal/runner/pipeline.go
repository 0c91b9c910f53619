// Package runner drives the pipeline: parse a session directory's exports,
// segment each stream into QA units, align the units across platforms, and
// write the resulting IR documents. The batch runner in this package fans
// the same pipeline out over many session directories.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chatweave/chatweave/internal/align"
	"github.com/chatweave/chatweave/internal/events"
	"github.com/chatweave/chatweave/internal/extract"
	"github.com/chatweave/chatweave/internal/ir"
	"github.com/chatweave/chatweave/internal/irio"
	"github.com/chatweave/chatweave/internal/parse"
	"github.com/chatweave/chatweave/internal/progress"
	"github.com/chatweave/chatweave/internal/segment"
	"github.com/chatweave/chatweave/internal/session"
	"github.com/chatweave/chatweave/internal/store"
)

// Pipeline holds the collaborators one session build needs. Store and
// events are optional; nil disables them.
type Pipeline struct {
	extractor extract.Extractor
	aligner   *align.Aligner
	store     *store.Store
	events    *events.Client
	logger    *slog.Logger
	runID     uuid.UUID
	dryRun    bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStore mirrors built sessions into Postgres.
func WithStore(s *store.Store) PipelineOption {
	return func(p *Pipeline) { p.store = s }
}

// WithEvents publishes a session.built event per session.
func WithEvents(c *events.Client) PipelineOption {
	return func(p *Pipeline) { p.events = c }
}

// WithAligner replaces the default exact-fingerprint aligner.
func WithAligner(a *align.Aligner) PipelineOption {
	return func(p *Pipeline) { p.aligner = a }
}

// WithDryRun parses and aligns but writes nothing.
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// NewPipeline builds a pipeline with the heuristic extractor and exact
// matching.
func NewPipeline(logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor: extract.NewHeuristic(),
		aligner:   align.New(),
		logger:    logger,
		runID:     uuid.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID identifies this pipeline instance in events and store rows.
func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// SessionResult summarizes one built session.
type SessionResult struct {
	SessionID    string
	Platforms    []string
	QAUnits      int
	PromptGroups int
	SessionPath  string
}

// BuildSession processes every *.jsonl export in sessionDir and writes the
// conversation, QA unit, and session IR documents under outputDir. The
// session ID is the directory name; file listing order (sorted by name) is
// the platform discovery order and decides canonical selection.
func (p *Pipeline) BuildSession(ctx context.Context, sessionDir, outputDir string) (SessionResult, error) {
	files, err := filepath.Glob(filepath.Join(sessionDir, "*.jsonl"))
	if err != nil {
		return SessionResult{}, fmt.Errorf("list exports: %w", err)
	}
	if len(files) == 0 {
		return SessionResult{}, fmt.Errorf("no jsonl exports in %s", sessionDir)
	}
	sort.Strings(files)

	sessionID := filepath.Base(sessionDir)
	tracker := progress.New(outputDir, !p.dryRun)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	tracker.SetInput("directory", sessionDir, names)

	// Parse.
	tracker.StartStep(progress.StepParse, map[string]any{"files": len(files)})
	var (
		platforms     []string
		conversations []ir.Conversation
		unitsByPlat   = map[string]ir.QAUnitIR{}
	)
	for _, path := range files {
		conv, err := parse.Parse(path, "")
		if err != nil {
			tracker.FailStep(progress.StepParse, err.Error())
			return SessionResult{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		conversations = append(conversations, conv)
		if _, seen := unitsByPlat[conv.Platform]; !seen {
			platforms = append(platforms, conv.Platform)
		}

		// Segment as we go; a later export from the same platform
		// replaces the earlier one for alignment purposes.
		unitsByPlat[conv.Platform] = segment.Segment(conv, p.extractor)
		p.logger.Info("parsed export",
			"session", sessionID,
			"file", filepath.Base(path),
			"platform", conv.Platform,
			"messages", len(conv.Messages),
			"qa_units", len(unitsByPlat[conv.Platform].QAUnits),
		)
	}
	tracker.CompleteStep(progress.StepParse, map[string]any{"platforms": platforms})

	totalUnits := 0
	for _, qa := range unitsByPlat {
		totalUnits += len(qa.QAUnits)
	}
	tracker.StartStep(progress.StepBuildQA, nil)
	tracker.CompleteStep(progress.StepBuildQA, map[string]any{"qa_units_total": totalUnits})

	// Align.
	tracker.StartStep(progress.StepBuildSession, nil)
	groups := p.aligner.Align(platforms, unitsByPlat)
	sessionIR := session.Build(sessionID, platforms, unitsByPlat, groups)
	tracker.CompleteStep(progress.StepBuildSession, map[string]any{"prompt_groups": len(groups)})

	result := SessionResult{
		SessionID:    sessionID,
		Platforms:    platforms,
		QAUnits:      totalUnits,
		PromptGroups: len(groups),
	}

	if p.dryRun {
		p.logger.Info("dry run, skipping output",
			"session", sessionID,
			"prompt_groups", len(groups),
		)
		return result, nil
	}

	// Write.
	tracker.StartStep(progress.StepWriteOutput, nil)
	sessionPath, err := p.writeOutput(ctx, outputDir, conversations, unitsByPlat, platforms, sessionIR)
	if err != nil {
		tracker.FailStep(progress.StepWriteOutput, err.Error())
		return SessionResult{}, err
	}
	result.SessionPath = sessionPath
	tracker.CompleteStep(progress.StepWriteOutput, nil)
	tracker.Complete(map[string]any{"session_ir": sessionPath})

	p.publishSessionBuilt(result)
	return result, nil
}

func (p *Pipeline) writeOutput(
	ctx context.Context,
	outputDir string,
	conversations []ir.Conversation,
	unitsByPlat map[string]ir.QAUnitIR,
	platforms []string,
	sessionIR ir.SessionIR,
) (string, error) {
	convDir := filepath.Join(outputDir, "conversation-ir")
	for _, conv := range conversations {
		if _, err := irio.WriteConversation(conv, convDir); err != nil {
			return "", fmt.Errorf("write conversation ir: %w", err)
		}
	}

	qaDir := filepath.Join(outputDir, "qa-unit-ir")
	for _, platform := range platforms {
		if _, err := irio.WriteQAUnits(unitsByPlat[platform], qaDir); err != nil {
			return "", fmt.Errorf("write qa unit ir: %w", err)
		}
	}

	sessionPath, err := irio.WriteSession(sessionIR, filepath.Join(outputDir, "session-ir"))
	if err != nil {
		return "", fmt.Errorf("write session ir: %w", err)
	}

	if p.store != nil {
		if _, err := p.store.WriteSession(ctx, p.runID, sessionIR); err != nil {
			return "", fmt.Errorf("persist session: %w", err)
		}
	}
	return sessionPath, nil
}

func (p *Pipeline) publishSessionBuilt(result SessionResult) {
	if p.events == nil {
		return
	}
	err := p.events.Publish(events.SubjectSessionBuilt, events.SessionBuilt{
		RunID:        p.runID.String(),
		SessionID:    result.SessionID,
		Platforms:    result.Platforms,
		PromptGroups: result.PromptGroups,
		OutputPath:   result.SessionPath,
		Timestamp:    events.Timestamp(time.Now()),
	})
	if err != nil {
		p.logger.Warn("failed to publish session event", "session", result.SessionID, "error", err)
	}
}
