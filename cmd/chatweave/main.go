package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chatweave/chatweave/internal/api"
	"github.com/chatweave/chatweave/internal/config"
	"github.com/chatweave/chatweave/internal/events"
	"github.com/chatweave/chatweave/internal/runner"
	"github.com/chatweave/chatweave/internal/store"
)

const usage = `usage: chatweave <command> [flags]

commands:
  build   build IR for one session directory
  batch   build IR for every session directory under a root
  serve   serve built session IR over HTTP
`

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(ctx, cfg, os.Args[2:])
	case "batch":
		err = runBatch(ctx, cfg, os.Args[2:])
	case "serve":
		err = runServe(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("out", "", "output directory (default: <session>/ir)")
	dryRun := fs.Bool("dry-run", false, "align and report without writing output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("build expects exactly one session directory")
	}
	sessionDir := fs.Arg(0)
	outputDir := *out
	if outputDir == "" {
		outputDir = filepath.Join(sessionDir, cfg.OutputDir)
	}

	pipeline, cleanup, err := buildPipeline(ctx, cfg, *dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipeline.BuildSession(ctx, sessionDir, outputDir)
	if err != nil {
		return err
	}
	slog.Info("session built",
		"session", result.SessionID,
		"platforms", result.Platforms,
		"qa_units", result.QAUnits,
		"prompt_groups", result.PromptGroups,
		"output", result.SessionPath,
	)
	return nil
}

func runBatch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	workers := fs.Int("workers", cfg.Workers, "parallel session builds")
	statePath := fs.String("state", "", "state file for resumable runs")
	dryRun := fs.Bool("dry-run", false, "align and report without writing output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("batch expects exactly one root directory")
	}

	pipeline, cleanup, err := buildPipeline(ctx, cfg, *dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	var ev *events.Client
	if cfg.NatsURL != "" {
		ev, err = events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return err
		}
		defer ev.Close()
	}

	batch := runner.NewBatch(runner.BatchConfig{
		Root:           fs.Arg(0),
		Workers:        *workers,
		SessionTimeout: cfg.SessionTimeout,
		StatePath:      *statePath,
	}, pipeline, ev, slog.Default())
	return batch.Run(ctx)
}

func runServe(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "listen port")
	dir := fs.String("dir", "", "session IR directory (default: <output dir>/session-ir)")
	fs.Parse(args)

	sessionDir := *dir
	if sessionDir == "" {
		sessionDir = filepath.Join(cfg.OutputDir, "session-ir")
	}
	return api.NewServer(*port, sessionDir).Start()
}

// buildPipeline wires the optional store and events collaborators from
// config. The returned cleanup closes whatever got opened.
func buildPipeline(ctx context.Context, cfg config.Config, dryRun bool) (*runner.Pipeline, func(), error) {
	var opts []runner.PipelineOption
	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	opts = append(opts, runner.WithDryRun(dryRun))

	if cfg.DatabaseURL != "" && !dryRun {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, runner.WithStore(db))
		slog.Info("database connected")
	}

	if cfg.NatsURL != "" && !dryRun {
		ev, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, ev.Close)
		opts = append(opts, runner.WithEvents(ev))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	return runner.NewPipeline(slog.Default(), opts...), cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()
	return ctx, cancel
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
