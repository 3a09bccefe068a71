// Package replicate mirrors each window's web document into the relational
// store the public site reads from.
package replicate

import (
	"context"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// DB is the subset of pgxpool.Pool the replicator needs; pgxmock satisfies
// it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Replicator writes summary_data and news_items rows.
type Replicator struct {
	db DB
}

// Connect opens a pool against the replica database.
func Connect(ctx context.Context, cfg config.ReplicaConfig) (*Replicator, error) {
	pool, err := pgxpool.New(ctx, cfg.URL())
	if err != nil {
		return nil, eris.Wrap(err, "replicate: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "replicate: ping")
	}
	return &Replicator{db: pool}, nil
}

// NewWithDB wraps an existing connection, for tests.
func NewWithDB(db DB) *Replicator {
	return &Replicator{db: db}
}

// Close releases the pool.
func (r *Replicator) Close() {
	r.db.Close()
}

const migrateSQL = `
CREATE TABLE IF NOT EXISTS summary_data (
	date                  TEXT PRIMARY KEY,
	overall_introduction  TEXT NOT NULL,
	overall_conclusion    TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS news_items (
	id             SERIAL PRIMARY KEY,
	summary_date   TEXT NOT NULL REFERENCES summary_data(date) ON DELETE CASCADE,
	title          TEXT NOT NULL,
	summary        TEXT NOT NULL,
	image          TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	date           TEXT NOT NULL,
	slug           TEXT NOT NULL,
	views          INTEGER NOT NULL DEFAULT 0,
	is_read        BOOLEAN NOT NULL DEFAULT FALSE,
	article_count  INTEGER NOT NULL DEFAULT 0,
	source_count   INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (summary_date, category)
);`

// Migrate creates the replica tables when absent.
func (r *Replicator) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, migrateSQL); err != nil {
		return eris.Wrap(err, "replicate: migrate")
	}
	return nil
}

const upsertSummarySQL = `
INSERT INTO summary_data (date, overall_introduction, overall_conclusion)
VALUES ($1, $2, $3)
ON CONFLICT (date) DO UPDATE SET
	overall_introduction = EXCLUDED.overall_introduction,
	overall_conclusion   = EXCLUDED.overall_conclusion,
	updated_at           = NOW()`

const upsertItemSQL = `
INSERT INTO news_items (
	summary_date, title, summary, image, category, date, slug,
	views, is_read, article_count, source_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (summary_date, category) DO UPDATE SET
	title         = EXCLUDED.title,
	summary       = EXCLUDED.summary,
	image         = EXCLUDED.image,
	date          = EXCLUDED.date,
	slug          = EXCLUDED.slug,
	views         = EXCLUDED.views,
	is_read       = EXCLUDED.is_read,
	article_count = EXCLUDED.article_count,
	source_count  = EXCLUDED.source_count,
	updated_at    = NOW()`

// UpdateForDate replicates one window's web document in a single
// transaction: the parent summary row first, then every news item. Any
// failure rolls the whole window back. Rows are keyed by the full window
// id, not the date part, so a day's morning and evening windows coexist.
func (r *Replicator) UpdateForDate(ctx context.Context, w window.ID, doc model.WebDoc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "replicate: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertSummarySQL,
		w.String(), doc.OverallIntroduction, doc.OverallConclusion); err != nil {
		return eris.Wrapf(err, "replicate: upsert summary %s", w)
	}

	for _, item := range doc.NewsItems {
		if _, err := tx.Exec(ctx, upsertItemSQL,
			w.String(),
			item.Title,
			item.Summary,
			itemImage(item),
			item.Category,
			item.Date,
			Slug(item.Title),
			item.Views,
			item.IsRead,
			item.ArticleCount,
			item.SourceCount,
		); err != nil {
			return eris.Wrapf(err, "replicate: upsert item %q for %s", item.Category, w)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "replicate: commit %s", w)
	}
	return nil
}

// itemImage prefers the first stored thumbnail over the placeholder.
func itemImage(item model.NewsItem) string {
	if item.Images != nil && len(*item.Images) > 0 {
		return (*item.Images)[0]
	}
	return item.Image
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a URL slug from a title: lowercase, non-alphanumeric runs
// collapsed to single hyphens.
func Slug(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
