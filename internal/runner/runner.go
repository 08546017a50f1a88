// Package runner composes discovery, conversion and mapping export into one
// run: lock, scan, resolve, convert, export, record.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"megbids/internal/config"
	"megbids/internal/discovery"
	"megbids/internal/ledger"
	"megbids/internal/logging"
	"megbids/internal/mapping"
	"megbids/internal/pipeline"
	"megbids/internal/preflight"
	"megbids/internal/recording"
	"megbids/internal/runlock"
	"megbids/internal/services"
)

// Options configures a run.
type Options struct {
	// Logger receives console progress. Nil builds one from the config.
	Logger *slog.Logger
	// Converter replaces the bridge-backed converter.
	Converter recording.Converter
	// SkipPreflight disables the readiness checks before conversion.
	SkipPreflight bool
}

// Result describes a finished (or aborted) run.
type Result struct {
	RunID       string
	Sessions    []discovery.SessionDirectory
	Resolution  discovery.Resolution
	Mapping     *mapping.SequenceMap
	Summary     pipeline.Summary
	MappingPath string
	Status      ledger.RunStatus
	Duration    time.Duration
}

// Run executes one conversion run. SIGINT and SIGTERM stop it between
// subjects; the mapping built so far is still exported.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Result, error) {
	if cfg == nil {
		return Result{}, fmt.Errorf("config is required")
	}
	started := time.Now()

	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return Result{}, fmt.Errorf("ensure directories: %w", err)
	}
	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return Result{}, err
	}
	defer lock.Release()

	failureLog, err := logging.OpenFailureLog(cfg.FailureLogPath())
	if err != nil {
		return Result{}, fmt.Errorf("open failure log: %w", err)
	}
	defer failureLog.Close()

	console := opts.Logger
	if console == nil {
		if console, err = logging.NewFromConfig(cfg); err != nil {
			return Result{}, fmt.Errorf("init logger: %w", err)
		}
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.TeeLogger(console, failureLog.Handler())
	runLogger := logging.WithContext(ctx, logging.NewComponentLogger(logger, "runner"))
	// Ledger bookkeeping outlives cancellation of the run itself.
	bookkeeping := context.WithoutCancel(ctx)

	store, err := ledger.Open(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	if n, err := store.MarkAbandoned(bookkeeping); err == nil && n > 0 {
		runLogger.Info("marked abandoned runs as interrupted", logging.Int64("runs", n))
	}

	result := Result{RunID: runID, MappingPath: cfg.Paths.MappingPath, Mapping: mapping.New()}
	if _, err := store.BeginRun(bookkeeping, ledger.RunStart{
		ID:           runID,
		SearchRoot:   cfg.Paths.SearchRoot,
		OutputRoot:   cfg.Paths.OutputRoot,
		MappingPath:  cfg.Paths.MappingPath,
		NamePattern:  cfg.Discovery.NamePattern,
		SubjectMatch: cfg.Discovery.SubjectMatch,
	}); err != nil {
		return result, err
	}
	runLogger.Info("run started",
		logging.String("search_root", cfg.Paths.SearchRoot),
		logging.String("output_root", cfg.Paths.OutputRoot),
	)

	runErr := execute(ctx, cfg, opts, logger, store, &result)

	result.Status = statusFor(runErr)
	result.Duration = time.Since(started)
	totals := ledger.RunTotals{
		SessionsFound: len(result.Sessions),
		SubjectsTotal: len(result.Resolution.Subjects),
		Converted:     result.Summary.Converted,
		Failed:        len(result.Summary.Failed),
		Skipped:       len(result.Summary.Skipped),
	}
	if err := store.FinishRun(bookkeeping, runID, result.Status, totals, runErr); err != nil {
		logging.WarnWithContext(runLogger, "failed to finish ledger run", "ledger_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history shows this run as still running"),
		)
	}
	runLogger.Info("run finished",
		logging.String("status", string(result.Status)),
		logging.Int("converted", totals.Converted),
		logging.Int("failed", totals.Failed),
		logging.Int("skipped", totals.Skipped),
		logging.Duration("duration", result.Duration),
	)
	return result, runErr
}

func execute(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger, store *ledger.Store, result *Result) error {
	runLogger := logging.WithContext(ctx, logging.NewComponentLogger(logger, "runner"))

	pattern, err := cfg.NamePattern()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "runner", "pattern", "", err)
	}
	mode, err := discovery.ParseMatchMode(cfg.Discovery.SubjectMatch)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "runner", "subject match", "", err)
	}

	sessions, err := discovery.FindSessionDirectories(cfg.Paths.SearchRoot, pattern, logging.NewComponentLogger(logger, "discovery"))
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, discovery.ErrSearchRootNotFound) {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "runner", "scan", "", err)
	}
	result.Sessions = sessions
	for _, session := range sessions {
		runLogger.Debug("session directory", logging.String("path", session.Path))
	}

	resolution, err := discovery.ResolveSubjects(sessions, mode)
	if err != nil {
		return services.Wrap(services.ErrValidation, "runner", "resolve", "", err)
	}
	result.Resolution = resolution
	for _, subject := range resolution.Subjects {
		ignored, ok := resolution.Duplicates[subject]
		if !ok {
			continue
		}
		logging.WarnWithContext(runLogger, "several sessions matched one subject", "duplicate_sessions",
			logging.String(logging.FieldSubject, subject),
			logging.String("kept", resolution.Paths[subject]),
			logging.Any("ignored", ignored),
			logging.String(logging.FieldErrorHint, "tighten discovery.name_pattern"),
			logging.String(logging.FieldImpact, "only the last matched session is converted"),
		)
	}
	runLogger.Info("subjects resolved",
		logging.Int("sessions", len(sessions)),
		logging.Int("subjects", len(resolution.Subjects)),
	)

	if len(resolution.Subjects) > 0 && !opts.SkipPreflight {
		checks := preflight.RunAll(cfg, preflight.Options{SkipConverter: opts.Converter != nil})
		if err := preflight.Err(checks); err != nil {
			return services.Wrap(services.ErrConfiguration, "runner", "preflight", "", err)
		}
	}

	converter := opts.Converter
	if converter == nil {
		converter = recording.NewToolConverter(recording.ToolOptions{
			Command:   cfg.Conversion.ConverterCommand,
			Format:    cfg.Conversion.Format,
			Overwrite: cfg.Conversion.Overwrite,
			Timeout:   time.Duration(cfg.Conversion.TimeoutSeconds) * time.Second,
		})
	}

	p := pipeline.New(converter, pipeline.OptionsFromConfig(cfg), logger, pipeline.WithRecorder(store))
	m, summary, convErr := p.ConvertAll(ctx, resolution.Subjects, resolution.Paths)
	result.Mapping = m
	result.Summary = summary

	exportErr := mapping.Export(m, cfg.Paths.MappingPath)
	if exportErr == nil {
		runLogger.Info("mapping saved",
			logging.String("path", cfg.Paths.MappingPath),
			logging.Int("entries", m.Len()),
		)
	} else {
		exportErr = fmt.Errorf("save mapping: %w", exportErr)
	}
	return errors.Join(convErr, exportErr)
}

func statusFor(err error) ledger.RunStatus {
	switch {
	case err == nil:
		return ledger.RunCompleted
	case errors.Is(err, context.Canceled):
		return ledger.RunInterrupted
	default:
		return ledger.RunFailed
	}
}
