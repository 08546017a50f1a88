package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"megbids/internal/pipeline"
	"megbids/internal/services"
)

// SubjectRecord is the stored outcome of one subject in a run.
type SubjectRecord struct {
	RunID        string
	Subject      string
	SessionPath  string
	Number       int
	Status       pipeline.Status
	OutputDir    string
	ErrorMessage string
	RecordedAt   time.Time
}

// RecordSubject stores outcome under the run identified by the run id in ctx.
// It satisfies pipeline.Recorder.
func (s *Store) RecordSubject(ctx context.Context, outcome pipeline.Outcome) error {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		return errors.New("record subject: no run id in context")
	}
	var message string
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}
	_, err := s.exec(ctx,
		`INSERT INTO run_subjects (
            run_id, subject, session_path, number, status, output_dir, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		outcome.Subject,
		nullableString(outcome.SessionPath),
		nullableInt(outcome.Number),
		outcome.Status,
		nullableString(outcome.OutputDir),
		nullableString(message),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert subject %s: %w", outcome.Subject, err)
	}
	return nil
}

// RunSubjects lists the subject outcomes of a run in processing order.
func (s *Store) RunSubjects(ctx context.Context, runID string) ([]SubjectRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, subject, session_path, number, status, output_dir, error_message, recorded_at
        FROM run_subjects WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run subjects: %w", err)
	}
	defer rows.Close()

	var records []SubjectRecord
	for rows.Next() {
		var (
			rec         SubjectRecord
			session     sql.NullString
			number      sql.NullInt64
			status      string
			outputDir   sql.NullString
			message     sql.NullString
			recordedRaw string
		)
		if err := rows.Scan(&rec.RunID, &rec.Subject, &session, &number, &status, &outputDir, &message, &recordedRaw); err != nil {
			return nil, err
		}
		rec.SessionPath = session.String
		rec.Number = int(number.Int64)
		rec.Status = pipeline.Status(status)
		rec.OutputDir = outputDir.String
		rec.ErrorMessage = message.String
		if recorded, err := parseTimeString(recordedRaw); err == nil {
			rec.RecordedAt = recorded
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
