package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/window"
)

// PostgresStore implements Store on a single JSONB documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "docstore: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
);

CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);
`

// Migrate creates the documents table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "docstore: migrate")
	}
	return nil
}

// Upsert writes value at key, replacing only that key.
func (s *PostgresStore) Upsert(ctx context.Context, collection, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return eris.Wrapf(err, "docstore: marshal %s.%s", collection, key)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, key, value, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		collection, key, data,
	)
	if err != nil {
		return eris.Wrapf(err, "docstore: upsert %s.%s", collection, key)
	}
	return nil
}

// Get unmarshals the value at key into out.
func (s *PostgresStore) Get(ctx context.Context, collection, key string, out any) (bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM documents WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&data)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "docstore: get %s.%s", collection, key)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return false, eris.Wrapf(err, "docstore: unmarshal %s.%s", collection, key)
		}
	}
	return true, nil
}

// Exists reports whether key is present.
func (s *PostgresStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM documents WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "docstore: exists %s.%s", collection, key)
	}
	return true, nil
}

// ListWindows extracts every window-shaped id appearing in the collection's
// keys.
func (s *PostgresStore) ListWindows(ctx context.Context, collection string) ([]window.ID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM documents WHERE collection = $1`, collection,
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

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func sortedWindows(seen map[window.ID]bool) []window.ID {
	out := make([]window.ID, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
