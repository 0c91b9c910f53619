package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chatweave/chatweave/internal/events"
)

// BatchConfig holds the batch command configuration.
type BatchConfig struct {
	Root           string        // directory whose subdirectories are sessions
	Workers        int           // parallel session builds
	SessionTimeout time.Duration // 0 means no per-session timeout
	StatePath      string        // resumable state file; "" derives one under Root
}

// Batch runs the session pipeline over every session directory under a
// root. Sessions share no state, so they build in parallel; the state file
// makes interrupted runs resumable.
type Batch struct {
	cfg      BatchConfig
	pipeline *Pipeline
	events   *events.Client
	logger   *slog.Logger
}

// NewBatch creates a batch runner. The events client may be nil.
func NewBatch(cfg BatchConfig, p *Pipeline, ev *events.Client, logger *slog.Logger) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(cfg.Root, ".chatweave-batch-state.json")
	}
	return &Batch{cfg: cfg, pipeline: p, events: ev, logger: logger}
}

// Run executes the batch.
func (b *Batch) Run(ctx context.Context) error {
	state, err := LoadState(b.cfg.StatePath, b.pipeline.RunID().String())
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	sessions, err := discoverSessions(b.cfg.Root)
	if err != nil {
		return fmt.Errorf("discover sessions: %w", err)
	}

	var pending []string
	for _, dir := range sessions {
		if !state.IsProcessed(dir) {
			pending = append(pending, dir)
		}
	}
	state.SessionsRemaining = len(pending)
	b.logger.Info("sessions discovered",
		"total", len(sessions),
		"pending", len(pending),
		"workers", b.cfg.Workers,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for _, sessionDir := range pending {
		sessionDir := sessionDir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := b.buildOne(gctx, sessionDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One bad session must not sink the batch.
				b.logger.Error("session build failed", "session", sessionDir, "error", err)
				state.AddError(fmt.Sprintf("%s: %v", sessionDir, err))
			} else {
				state.MarkProcessed(sessionDir)
				state.SessionsRemaining--
				state.PromptGroupsTotal += result.PromptGroups
			}
			if err := state.Save(); err != nil {
				b.logger.Warn("failed to save state", "error", err)
			}
			return nil
		})
	}

	runErr := g.Wait()
	if err := state.Save(); err != nil {
		b.logger.Warn("failed to save state", "error", err)
	}
	b.publishCompleted(state)
	if runErr != nil {
		return runErr
	}

	b.logger.Info("batch finished",
		"processed", len(state.SessionsProcessed),
		"errors", len(state.Errors),
		"prompt_groups", state.PromptGroupsTotal,
	)
	return nil
}

func (b *Batch) buildOne(ctx context.Context, sessionDir string) (SessionResult, error) {
	if b.cfg.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.SessionTimeout)
		defer cancel()
	}
	return b.pipeline.BuildSession(ctx, sessionDir, filepath.Join(sessionDir, "ir"))
}

func (b *Batch) publishCompleted(state *BatchState) {
	if b.events == nil {
		return
	}
	err := b.events.Publish(events.SubjectBatchCompleted, events.BatchCompleted{
		RunID:     state.RunID,
		Sessions:  len(state.SessionsProcessed),
		Errors:    len(state.Errors),
		Timestamp: events.Timestamp(time.Now()),
	})
	if err != nil {
		b.logger.Warn("failed to publish batch event", "error", err)
	}
}

// discoverSessions returns the subdirectories of root that contain at least
// one JSONL export, sorted by name for reproducible processing order.
func discoverSessions(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			sessions = append(sessions, dir)
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}
