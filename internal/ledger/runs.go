package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// ErrRunNotFound reports an unknown run identifier.
var ErrRunNotFound = errors.New("run not found")

// RunStart holds the inputs recorded when a run begins.
type RunStart struct {
	ID           string
	SearchRoot   string
	OutputRoot   string
	MappingPath  string
	NamePattern  string
	SubjectMatch string
}

// RunTotals are the counts stored when a run finishes.
type RunTotals struct {
	SessionsFound int
	SubjectsTotal int
	Converted     int
	Failed        int
	Skipped       int
}

// Run is one row of run history.
type Run struct {
	RunStart
	RunTotals
	Status       RunStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}

// Duration returns the run's wall time, measured to now while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = "id, search_root, output_root, mapping_path, name_pattern, subject_match, status, started_at, finished_at, sessions_found, subjects_total, converted, failed, skipped, error_message"

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, start RunStart) (*Run, error) {
	if strings.TrimSpace(start.ID) == "" {
		return nil, errors.New("begin run: empty id")
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (
            id, search_root, output_root, mapping_path, name_pattern, subject_match, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		start.ID,
		start.SearchRoot,
		start.OutputRoot,
		start.MappingPath,
		start.NamePattern,
		start.SubjectMatch,
		RunRunning,
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, start.ID)
}

// FinishRun stores the final status and counts of a run. runErr, when set,
// is kept as the run's error message.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, totals RunTotals, runErr error) error {
	var message string
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET
            status = ?, finished_at = ?, sessions_found = ?, subjects_total = ?,
            converted = ?, failed = ?, skipped = ?, error_message = ?
        WHERE id = ?`,
		status,
		formatTime(time.Now()),
		totals.SessionsFound,
		totals.SubjectsTotal,
		totals.Converted,
		totals.Failed,
		totals.Skipped,
		nullableString(message),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// GetRun fetches a run by identifier. A unique prefix of the identifier is
// also accepted.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY started_at LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkAbandoned flags runs still in the running state as interrupted. A run
// only stays running when its process died before FinishRun.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = COALESCE(error_message, 'process exited before the run finished') WHERE status = ?`,
		RunInterrupted, RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		statusStr   string
		startedRaw  string
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.SearchRoot,
		&run.OutputRoot,
		&run.MappingPath,
		&run.NamePattern,
		&run.SubjectMatch,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&run.SessionsFound,
		&run.SubjectsTotal,
		&run.Converted,
		&run.Failed,
		&run.Skipped,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(statusStr)
	run.ErrorMessage = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
