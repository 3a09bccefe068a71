// Package docstore is the keyed document database every pipeline stage
// checkpoints into. Documents live in logical collections and are addressed
// by dotted keys such as "Result.2026-03-01_06:00"; an upsert replaces only
// its own key, so a stage re-run overwrites only that stage's slot.
package docstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// Collection names used by the pipeline.
const (
	CollectionPipeline = "gemini_api"
	CollectionWeb      = "envisage_web"
)

// Key builders for the per-window document slots.
func CategorizedKey(w window.ID) string { return w.String() }
func ResultKey(w window.ID) string      { return "Result." + w.String() }
func SummaryKey(w window.ID) string     { return "Summary." + w.String() }
func WebKey(w window.ID) string         { return "envisage_web." + w.String() }

// Store is the persistence interface the pipeline assumes. It need not be
// transactional across stages.
type Store interface {
	// Upsert writes value at key in collection, leaving other keys intact.
	Upsert(ctx context.Context, collection, key string, value any) error

	// Get unmarshals the value at key into out. The bool reports presence.
	Get(ctx context.Context, collection, key string, out any) (bool, error)

	// Exists reports whether key is present in collection.
	Exists(ctx context.Context, collection, key string) (bool, error)

	// ListWindows returns every window id that appears in any key of the
	// collection, deduplicated, in ascending order.
	ListWindows(ctx context.Context, collection string) ([]window.ID, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by the config driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("docstore: unknown driver %q", cfg.Driver)
	}
}
