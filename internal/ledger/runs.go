package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, folder, language, started_at, finished_at, downloaded, not_found, errors, skipped, cancelled"

const entryColumns = "id, run_id, video_path, language, kind, provider, source, release_name, score, step, subtitle_path, error_message, recorded_at"

// StartRun records the beginning of a batch run.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is empty")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, folder, language, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Folder, run.Language, started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, counts Counts, cancelled bool) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, downloaded = ?, not_found = ?, errors = ?, skipped = ?, cancelled = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		counts.Downloaded, counts.NotFound, counts.Errors, counts.Skipped, boolToInt(cancelled),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

// Record appends one per-file outcome to a run.
func (s *Store) Record(ctx context.Context, e Entry) error {
	recorded := e.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO outcomes (
            run_id, video_path, language, kind, provider, source, release_name,
            score, step, subtitle_path, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.VideoPath, e.Language, e.Kind,
		nullableString(e.Provider), nullableString(e.Source), nullableString(e.Release),
		e.Score, nullableString(e.Step), nullableString(e.SubtitlePath), nullableString(e.ErrorMessage),
		recorded.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRun fetches one run by id, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// Entries returns the outcomes of a run in recording order.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
}

// ForVideo returns every recorded outcome for a video, newest first.
func (s *Store) ForVideo(ctx context.Context, videoPath string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM outcomes WHERE video_path = ? ORDER BY id DESC`, videoPath)
}

// Recent returns the latest outcomes across runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
		cancelled   int
	)
	if err := row.Scan(
		&run.ID, &run.Folder, &run.Language, &startedRaw, &finishedRaw,
		&run.Counts.Downloaded, &run.Counts.NotFound, &run.Counts.Errors, &run.Counts.Skipped,
		&cancelled,
	); err != nil {
		return Run{}, err
	}
	run.Cancelled = cancelled != 0
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e           Entry
		provider    sql.NullString
		source      sql.NullString
		release     sql.NullString
		score       sql.NullFloat64
		step        sql.NullString
		subtitle    sql.NullString
		errMessage  sql.NullString
		recordedRaw string
	)
	if err := row.Scan(
		&e.ID, &e.RunID, &e.VideoPath, &e.Language, &e.Kind,
		&provider, &source, &release, &score, &step, &subtitle, &errMessage, &recordedRaw,
	); err != nil {
		return Entry{}, err
	}
	e.Provider = provider.String
	e.Source = source.String
	e.Release = release.String
	e.Score = score.Float64
	e.Step = step.String
	e.SubtitlePath = subtitle.String
	e.ErrorMessage = errMessage.String
	if recorded, err := parseTimeString(recordedRaw); err == nil {
		e.RecordedAt = recorded
	}
	return e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
