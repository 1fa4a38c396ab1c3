package snapshot

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	key          TEXT PRIMARY KEY,
	data         BLOB    NOT NULL,
	version      INTEGER NOT NULL,
	last_updated TEXT    NOT NULL
)`

// SQLiteStore persists snapshots in a single SQLite table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating when missing) a SQLite snapshot store
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidArgument("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "open sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "ping sqlite db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "create snapshots table")
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get reads the snapshot for a key
func (s *SQLiteStore) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	var (
		snap Snapshot
		data []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, version, last_updated FROM snapshots WHERE key = ?`,
		input.Key,
	).Scan(&data, &snap.Version, &snap.LastUpdated)
	if err == sql.ErrNoRows {
		return &GetOutput{}, nil
	}
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to read snapshot %s", input.Key)
	}

	snap.Data = data
	return &GetOutput{Snapshot: &snap}, nil
}

// Set upserts the snapshot for a key
func (s *SQLiteStore) Set(ctx context.Context, input SetInput) (*SetOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument(errSnapshotNil)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, version, last_updated)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   data = excluded.data,
		   version = excluded.version,
		   last_updated = excluded.last_updated`,
		input.Key,
		[]byte(input.Snapshot.Data),
		input.Snapshot.Version,
		input.Snapshot.LastUpdated,
	)
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to write snapshot %s", input.Key)
	}

	return &SetOutput{}, nil
}

// Remove deletes the snapshot for a key
func (s *SQLiteStore) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	if input.Key == "" {
		return nil, errors.InvalidArgument(errKeyEmpty)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, input.Key); err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to remove snapshot %s", input.Key)
	}
	return &RemoveOutput{}, nil
}
