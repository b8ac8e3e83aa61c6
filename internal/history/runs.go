package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixy/internal/services"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is what Begin records about a job before it starts.
type Entry struct {
	ID      string
	Input   string
	Output  string
	Model   string
	Encoder string
	WorkDir string
}

// Run is one recorded upscale job.
type Run struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Input        string     `json:"input"`
	Output       string     `json:"output"`
	Model        string     `json:"model,omitempty"`
	Encoder      string     `json:"encoder,omitempty"`
	WorkDir      string     `json:"work_dir,omitempty"`
	Status       Status     `json:"status"`
	Stage        string     `json:"stage,omitempty"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Elapsed is the run duration, measured to now for unfinished runs.
func (r Run) Elapsed(now time.Time) time.Duration {
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, title, input_path, output_path, model, encoder, work_dir, status, stage, error_kind, error_message, started_at, updated_at, finished_at"

// ErrNotFound is returned by Get when no run matches.
var ErrNotFound = errors.New("run not found")

// Begin records a running job. An empty entry.ID gets a random one.
func (s *Store) Begin(ctx context.Context, entry Entry) (*Run, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stamp := now.Format(timeLayout)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		TitleFromPath(entry.Input),
		entry.Input,
		entry.Output,
		nullableString(entry.Model),
		nullableString(entry.Encoder),
		nullableString(entry.WorkDir),
		StatusRunning,
		nil,
		nil,
		nil,
		stamp,
		stamp,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, entry.ID)
}

// UpdateStage records the stage a running job has entered.
func (s *Store) UpdateStage(ctx context.Context, id, stage string) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET stage = ?, updated_at = ? WHERE id = ?`,
		nullableString(stage), time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// Finish marks a run succeeded when runErr is nil and failed otherwise.
func (s *Store) Finish(ctx context.Context, id string, runErr error) error {
	status := StatusSucceeded
	var kind, message any
	if runErr != nil {
		status = StatusFailed
		kind = services.Kind(runErr)
		message = runErr.Error()
	}
	stamp := time.Now().UTC().Format(timeLayout)
	_, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ? WHERE id = ?`,
		status, kind, message, stamp, stamp, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// List returns the most recent runs first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns the run whose id equals or uniquely starts with id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrInvalidArgument, "history", "get", "ambiguous run id prefix "+id, nil)
	}
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		model        sql.NullString
		encoder      sql.NullString
		workDir      sql.NullString
		stage        sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Title,
		&run.Input,
		&run.Output,
		&model,
		&encoder,
		&workDir,
		&status,
		&stage,
		&errorKind,
		&errorMessage,
		&startedRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.Model = model.String
	run.Encoder = encoder.String
	run.WorkDir = workDir.String
	run.Stage = stage.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.StartedAt = parseTime(startedRaw)
	run.UpdatedAt = parseTime(updatedRaw)
	if finishedRaw.Valid {
		finished := parseTime(finishedRaw.String)
		run.FinishedAt = &finished
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
