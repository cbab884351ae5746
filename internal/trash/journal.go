package trash

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current journal schema version. Bump this when the
// schema changes; users will need to delete the journal database afterwards.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNothingToRestore indicates the journal holds no active entries.
var ErrNothingToRestore = errors.New("nothing to restore")

// Entry is one journaled trash move. RestoredAt is nil while the file still
// sits in the trash directory.
type Entry struct {
	ID         int64
	RelPath    string
	TrashPath  string
	SizeBytes  int64
	DeletedAt  time.Time
	RestoredAt *time.Time
}

// Journal persists trash moves in SQLite so deletions survive restarts and
// can be undone in reverse order.
type Journal struct {
	db   *sql.DB
	path string
}

// OpenJournal initializes or connects to the journal database at dbPath and
// verifies its schema.
func OpenJournal(dbPath string) (*Journal, error) {
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

	journal := &Journal{db: db, path: dbPath}
	if err := journal.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return j.createSchema(ctx)
	}

	var version int
	err = j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the journal database to reset)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (j *Journal) createSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Append records one completed trash move and returns the stored entry.
func (j *Journal) Append(ctx context.Context, relPath, trashPath string, sizeBytes int64) (*Entry, error) {
	now := time.Now().UTC()
	res, err := j.db.ExecContext(ctx,
		"INSERT INTO trash_entries (rel_path, trash_path, size_bytes, deleted_at) VALUES (?, ?, ?, ?)",
		relPath, trashPath, sizeBytes, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert trash entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Entry{ID: id, RelPath: relPath, TrashPath: trashPath, SizeBytes: sizeBytes, DeletedAt: now}, nil
}

// Active returns up to limit unrestored entries, most recent first. A
// non-positive limit returns all of them.
func (j *Journal) Active(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, rel_path, trash_path, size_bytes, deleted_at, restored_at
        FROM trash_entries WHERE restored_at IS NULL
        ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trash entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trash entries: %w", err)
	}
	return entries, nil
}

// LatestActive returns the most recent unrestored entry.
func (j *Journal) LatestActive(ctx context.Context) (*Entry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, rel_path, trash_path, size_bytes, deleted_at, restored_at
         FROM trash_entries WHERE restored_at IS NULL
         ORDER BY id DESC LIMIT 1`,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNothingToRestore
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// MarkRestored closes out an entry after its file has been moved back.
func (j *Journal) MarkRestored(ctx context.Context, id int64) error {
	res, err := j.db.ExecContext(ctx,
		"UPDATE trash_entries SET restored_at = ? WHERE id = ? AND restored_at IS NULL",
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("mark restored: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %d", ErrNothingToRestore, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry      Entry
		deletedAt  string
		restoredAt sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.RelPath, &entry.TrashPath, &entry.SizeBytes, &deletedAt, &restoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan trash entry: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, deletedAt)
	if err != nil {
		return nil, fmt.Errorf("parse deleted_at: %w", err)
	}
	entry.DeletedAt = ts
	if restoredAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, restoredAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse restored_at: %w", err)
		}
		entry.RestoredAt = &ts
	}
	return &entry, nil
}
