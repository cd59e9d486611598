package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"relcut/internal/config"
)

// ErrDuplicateRun indicates a non-failed run already exists for the tag.
var ErrDuplicateRun = errors.New("active run already exists for tag")

// ErrIllegalTransition indicates an update tried to move a run against the
// status machine.
var ErrIllegalTransition = errors.New("illegal status transition")

// Store manages publish run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and verifies the
// schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := store.ResetStuck(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewRun inserts a pending run for the given tag.
func (s *Store) NewRun(ctx context.Context, tagName, version, channel string) (*Run, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, errors.New("tag name required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (tag_name, version, channel, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		tagName, version, channel, StatusPending, timestamp, timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRun, tagName)
		}
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a run by its identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// GetByTag fetches the most recent run for a tag, or nil when none exists.
func (s *Store) GetByTag(ctx context.Context, tagName string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		selectColumns+" FROM runs WHERE tag_name = ? ORDER BY id DESC LIMIT 1",
		strings.TrimSpace(tagName),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// Update persists the run's mutable fields, enforcing the status machine.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil || run.ID == 0 {
		return errors.New("run with id required")
	}

	current, err := s.GetByID(ctx, run.ID)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(run.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, run.Status)
	}

	now := time.Now().UTC()
	run.UpdatedAt = now
	if run.Status == StatusPublished && run.PublishedAt == nil {
		ts := now
		run.PublishedAt = &ts
	}
	if run.Status == StatusNotified && run.NotifiedAt == nil {
		ts := now
		run.NotifiedAt = &ts
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, notes_digest = ?, release_url = ?, error_message = ?,
            updated_at = ?, published_at = ?, notified_at = ?
         WHERE id = ?`,
		run.Status,
		nullableString(run.NotesDigest),
		nullableString(run.ReleaseURL),
		nullableString(run.ErrorMessage),
		now.Format(time.RFC3339Nano),
		nullableTime(run.PublishedAt),
		nullableTime(run.NotifiedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %d: %w", run.ID, err)
	}
	return nil
}

// List returns runs newest-first, capped at limit (0 means no cap).
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectColumns + " FROM runs ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// ResetStuck moves runs left in an in-flight status back to their checkpoint.
// Returns the number of runs reset.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	var total int64
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for from, to := range processingCheckpoints {
		res, err := s.db.ExecContext(
			ctx,
			"UPDATE runs SET status = ?, updated_at = ? WHERE status = ?",
			to, timestamp, from,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck %s runs: %w", from, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

// RecentNotification reports whether a notified run for the tag exists inside
// the dedup window.
func (s *Store) RecentNotification(ctx context.Context, tagName string, window time.Duration) (bool, error) {
	if window <= 0 {
		return false, nil
	}
	cutoff := time.Now().UTC().Add(-window).Format(time.RFC3339Nano)
	var count int
	err := s.db.QueryRowContext(
		ctx,
		"SELECT COUNT(1) FROM runs WHERE tag_name = ? AND notified_at IS NOT NULL AND notified_at >= ?",
		strings.TrimSpace(tagName), cutoff,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return count > 0, nil
}

const selectColumns = `SELECT id, tag_name, version, channel, status, notes_digest,
    release_url, error_message, created_at, updated_at, published_at, notified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var notesDigest, releaseURL, errorMessage sql.NullString
	var createdAt, updatedAt string
	var publishedAt, notifiedAt sql.NullString

	err := row.Scan(
		&run.ID, &run.TagName, &run.Version, &run.Channel, &run.Status,
		&notesDigest, &releaseURL, &errorMessage,
		&createdAt, &updatedAt, &publishedAt, &notifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.NotesDigest = notesDigest.String
	run.ReleaseURL = releaseURL.String
	run.ErrorMessage = errorMessage.String
	run.CreatedAt = parseTimestamp(createdAt)
	run.UpdatedAt = parseTimestamp(updatedAt)
	if publishedAt.Valid {
		ts := parseTimestamp(publishedAt.String)
		run.PublishedAt = &ts
	}
	if notifiedAt.Valid {
		ts := parseTimestamp(notifiedAt.String)
		run.NotifiedAt = &ts
	}
	return &run, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
