package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/envisage-news/envisage-cli/internal/window"
)

// SQLiteStore implements Store on a local SQLite file, for development and
// single-host deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "docstore: create db dir")
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, eris.Wrap(err, "docstore: open sqlite")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, key)
);
`

// Migrate creates the documents table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "docstore: migrate sqlite")
	}
	return nil
}

// Upsert writes value at key, replacing only that key.
func (s *SQLiteStore) Upsert(ctx context.Context, collection, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return eris.Wrapf(err, "docstore: marshal %s.%s", collection, key)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		collection, key, string(data), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return eris.Wrapf(err, "docstore: upsert %s.%s", collection, key)
	}
	return nil
}

// Get unmarshals the value at key into out.
func (s *SQLiteStore) Get(ctx context.Context, collection, key string, out any) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "docstore: get %s.%s", collection, key)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(data), out); err != nil {
			return false, eris.Wrapf(err, "docstore: unmarshal %s.%s", collection, key)
		}
	}
	return true, nil
}

// Exists reports whether key is present.
func (s *SQLiteStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "docstore: exists %s.%s", collection, key)
	}
	return true, nil
}

// ListWindows extracts every window-shaped id appearing in the collection's
// keys.
func (s *SQLiteStore) ListWindows(ctx context.Context, collection string) ([]window.ID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE collection = ?`, collection,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: list windows in %s", collection)
	}
	defer rows.Close()

	seen := make(map[window.ID]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "docstore: scan key")
		}
		if m := window.Pattern.FindString(key); m != "" {
			seen[window.ID(m)] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "docstore: iterate keys")
	}
	return sortedWindows(seen), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
