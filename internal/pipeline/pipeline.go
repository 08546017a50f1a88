package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"megbids/internal/bids"
	"megbids/internal/config"
	"megbids/internal/fileutil"
	"megbids/internal/logging"
	"megbids/internal/mapping"
	"megbids/internal/recording"
	"megbids/internal/services"
)

// Options controls where outputs go and how auxiliary files are found.
type Options struct {
	OutputRoot      string
	Task            string
	AnatDirName     string
	ImageExt        string
	TransformSuffix string
	// MissingPolicy is config.MissingPolicySkip or config.MissingPolicyFatal.
	MissingPolicy string
}

// OptionsFromConfig extracts pipeline options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputRoot:      cfg.Paths.OutputRoot,
		Task:            cfg.Conversion.Task,
		AnatDirName:     cfg.Anatomy.DirName,
		ImageExt:        cfg.Anatomy.ImageExt,
		TransformSuffix: cfg.Anatomy.TransformSuffix,
		MissingPolicy:   cfg.Anatomy.MissingPolicy,
	}
}

// Pipeline drives a Converter over a list of subjects.
type Pipeline struct {
	converter recording.Converter
	opts      Options
	logger    *slog.Logger
	recorder  Recorder
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder attaches a Recorder that receives every subject outcome.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New constructs a Pipeline. logger should include the failure log handler.
func New(converter recording.Converter, opts Options, logger *slog.Logger, options ...Option) *Pipeline {
	p := &Pipeline{
		converter: converter,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ConvertAll converts every subject, in sorted order, whose session path is
// in paths. The returned map holds the subjects that converted, numbered
// from 1 in processing order. On a fatal error the partial map is returned
// together with the error.
func (p *Pipeline) ConvertAll(ctx context.Context, subjects []string, paths map[string]string) (*mapping.SequenceMap, Summary, error) {
	if p.converter == nil {
		return mapping.New(), Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "convert", "no converter", nil)
	}
	ordered := slices.Clone(subjects)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	result := mapping.New()
	summary := Summary{Total: len(ordered)}
	next := 1

	for _, subject := range ordered {
		if err := ctx.Err(); err != nil {
			return result, summary, fmt.Errorf("conversion interrupted before %s: %w", subject, err)
		}
		subjectCtx := services.WithSubject(ctx, subject)
		session := paths[subject]

		dest, err := p.convertSubject(subjectCtx, subject, session, next, result)
		if err == nil {
			summary.Converted++
			p.record(subjectCtx, Outcome{Subject: subject, SessionPath: session, Number: next, Status: StatusConverted, OutputDir: dest.Directory()})
			next++
			continue
		}

		status := StatusFailed
		if errors.Is(err, services.ErrNotFound) {
			status = StatusSkipped
		}
		failure := SubjectFailure{Subject: subject, SessionPath: session, Status: status, Err: err}

		if !services.Recoverable(err, p.missingRecoverable(session)) {
			// The number was already exported to the mapping, so the
			// subject stays converted even though the run stops here.
			if number, ok := result.Get(subject); ok {
				summary.Converted++
				p.record(subjectCtx, Outcome{Subject: subject, SessionPath: session, Number: number, Status: StatusConverted, OutputDir: dest.Directory(), Err: err})
				return result, summary, fmt.Errorf("subject %s: %w", subject, err)
			}
			failure.Status = StatusFailed
			summary.add(failure)
			p.record(subjectCtx, Outcome{Subject: subject, SessionPath: session, Status: StatusFailed, Err: err})
			return result, summary, fmt.Errorf("subject %s: %w", subject, err)
		}

		p.reportFailure(subjectCtx, subject, err)
		summary.add(failure)
		p.record(subjectCtx, Outcome{Subject: subject, SessionPath: session, Status: status, Err: err})
	}
	return result, summary, nil
}

// missingRecoverable reports whether an ErrNotFound may be skipped. A subject
// with no bound session is always skipped; absent auxiliary files follow the
// configured policy.
func (p *Pipeline) missingRecoverable(session string) bool {
	if session == "" {
		return true
	}
	return p.opts.MissingPolicy != config.MissingPolicyFatal
}

func (p *Pipeline) convertSubject(ctx context.Context, subject, session string, number int, result *mapping.SequenceMap) (bids.Path, error) {
	logger := logging.WithContext(ctx, p.logger)

	if session == "" {
		return bids.Path{}, services.Wrap(services.ErrNotFound, "pipeline", "resolve", "no session directory bound to subject", nil)
	}
	logger.Info("session located", logging.String("path", session))

	aux, err := p.locateAuxiliary(subject, session)
	if err != nil {
		return bids.Path{}, err
	}
	logger.Info("anatomical files located",
		logging.String("image", aux.image),
		logging.String("transform", aux.transform),
	)

	rec, err := p.converter.Load(ctx, session)
	if err != nil {
		return bids.Path{}, err
	}
	if err := p.converter.Anonymize(rec); err != nil {
		return bids.Path{}, err
	}
	logger.Info(subject + " anonymized")

	dest := bids.NewPath(p.opts.OutputRoot, number, p.opts.Task)
	if err := p.write(ctx, rec, dest); err != nil {
		return bids.Path{}, err
	}

	result.Set(subject, number)

	anatDir := dest.AnatDirectory()
	if _, err := fileutil.CopyInto(aux.image, anatDir, dest.AnatImageName(p.opts.ImageExt)); err != nil {
		return dest, fmt.Errorf("copy anatomical image: %w", err)
	}
	if _, err := fileutil.CopyInto(aux.transform, anatDir, dest.TransformName(p.opts.TransformSuffix)); err != nil {
		return dest, fmt.Errorf("copy transform: %w", err)
	}
	logger.Info("subject converted",
		logging.Int(logging.FieldSubjectNumber, number),
		logging.String("anat_dir", anatDir),
	)
	return dest, nil
}

// write runs the converter and removes a subject directory the failed write
// left behind, so a failed subject never leaves output.
func (p *Pipeline) write(ctx context.Context, rec *recording.Recording, dest bids.Path) error {
	dir := dest.Directory()
	_, statErr := os.Stat(dir)
	existed := statErr == nil

	err := p.converter.Write(ctx, rec, dest)
	if err != nil && !existed {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			p.logger.Warn("failed to remove partial output", logging.String("path", dir), logging.Error(rmErr))
		}
	}
	return err
}

type auxiliaryFiles struct {
	image     string
	transform string
}

// locateAuxiliary finds <dirname(session)>/<anat>/<subject><ext> and its
// transform sibling. Both must exist before anything is written.
func (p *Pipeline) locateAuxiliary(subject, session string) (auxiliaryFiles, error) {
	anatDir := filepath.Join(filepath.Dir(session), p.opts.AnatDirName)
	aux := auxiliaryFiles{
		image:     filepath.Join(anatDir, subject+p.opts.ImageExt),
		transform: filepath.Join(anatDir, subject+p.opts.TransformSuffix),
	}
	for _, path := range []string{aux.image, aux.transform} {
		if err := fileutil.RequireFile(path); err != nil {
			if fileutil.IsNotExist(err) || errors.Is(err, fileutil.ErrNotRegular) {
				return auxiliaryFiles{}, services.Wrap(services.ErrNotFound, "pipeline", "auxiliary files", path, err)
			}
			return auxiliaryFiles{}, fmt.Errorf("check %s: %w", path, err)
		}
	}
	return aux, nil
}

func (p *Pipeline) reportFailure(ctx context.Context, subject string, err error) {
	logger := logging.WithContext(ctx, p.logger)
	logger.Error("operation failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	logger.Info(fmt.Sprintf("%s caused %v", subject, err),
		logging.String(logging.FieldEventType, logging.EventSubjectFailed),
	)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "raise conversion.timeout_seconds or check the recording size"
	case errors.Is(err, services.ErrNotFound):
		return "check the anat directory next to the session recording"
	default:
		return "inspect the recording with the bridge info command"
	}
}

func (p *Pipeline) record(ctx context.Context, outcome Outcome) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordSubject(context.WithoutCancel(ctx), outcome); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "failed to record subject outcome", "ledger_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete for this subject"),
		)
	}
}
