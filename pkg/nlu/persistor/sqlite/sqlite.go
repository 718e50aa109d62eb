// Package sqlite archives trained models in a SQLite database. Each persist
// creates an archive row keyed by a ULID; retrieving a model restores the
// most recent archive stored under its project and name.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/persistor"
)

// sqliteArchive implements persistor.Archive using SQLite
type sqliteArchive struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (persistor.Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteArchive{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *sqliteArchive) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS archives (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	model TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_archives_model ON archives(project, model);

CREATE TABLE IF NOT EXISTS archive_files (
	archive_id TEXT NOT NULL,
	path TEXT NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY(archive_id, path),
	FOREIGN KEY(archive_id) REFERENCES archives(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteArchive) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// Persist stores every file of localDir as a new archive of the model
func (s *sqliteArchive) Persist(ctx context.Context, localDir, modelName, projectName string) error {
	files, err := persistor.ReadDir(localDir)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := s.newID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO archives (id, project, model, created_at) VALUES (?, ?, ?, ?)`,
		id, projectName, modelName, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO archive_files (archive_id, path, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, id, f.Path, f.Data); err != nil {
			return fmt.Errorf("insert %s: %w", f.Path, err)
		}
	}

	return tx.Commit()
}

// Retrieve restores the latest archive of the model into targetDir
func (s *sqliteArchive) Retrieve(ctx context.Context, modelName, projectName, targetDir string) error {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM archives WHERE project = ? AND model = ? ORDER BY id DESC LIMIT 1`,
		projectName, modelName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: model %s/%s", internalerr.ErrNotFound, projectName, modelName)
	}
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, data FROM archive_files WHERE archive_id = ? ORDER BY path`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	var files []persistor.File
	for rows.Next() {
		var f persistor.File
		if err := rows.Scan(&f.Path, &f.Data); err != nil {
			return err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return persistor.WriteDir(targetDir, files)
}

// List returns the distinct model names stored for a project, sorted
func (s *sqliteArchive) List(ctx context.Context, projectName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT model FROM archives WHERE project = ? ORDER BY model`, projectName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
