package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_UpsertGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := model.SummaryDoc{
		OverallIntroduction: "intro",
		Categories: map[string]model.CategorySummary{
			"Politics": {Title: "T", Summary: "S", ArticleCount: 2, SourceCount: 1},
		},
		OverallConclusion: "outro",
	}
	key := SummaryKey("2026-03-01_06:00")
	require.NoError(t, s.Upsert(ctx, CollectionPipeline, key, doc))

	var got model.SummaryDoc
	found, err := s.Get(ctx, CollectionPipeline, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc, got)
}

func TestSQLite_GetAbsent(t *testing.T) {
	s := newTestStore(t)

	var out map[string]any
	found, err := s.Get(context.Background(), CollectionPipeline, "Result.2026-03-01_06:00", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLite_UpsertReplacesOnlyItsKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := window.ID("2026-03-01_06:00")

	require.NoError(t, s.Upsert(ctx, CollectionPipeline, CategorizedKey(w), map[string]string{"v": "1"}))
	require.NoError(t, s.Upsert(ctx, CollectionPipeline, ResultKey(w), map[string]string{"v": "2"}))
	require.NoError(t, s.Upsert(ctx, CollectionPipeline, ResultKey(w), map[string]string{"v": "3"}))

	var cat, res map[string]string
	_, err := s.Get(ctx, CollectionPipeline, CategorizedKey(w), &cat)
	require.NoError(t, err)
	_, err = s.Get(ctx, CollectionPipeline, ResultKey(w), &res)
	require.NoError(t, err)

	assert.Equal(t, "1", cat["v"])
	assert.Equal(t, "3", res["v"])
}

func TestSQLite_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, CollectionWeb, "envisage_web.2026-03-01_18:00")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Upsert(ctx, CollectionWeb, "envisage_web.2026-03-01_18:00", model.WebDoc{}))

	ok, err = s.Exists(ctx, CollectionWeb, "envisage_web.2026-03-01_18:00")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_ListWindows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"2026-03-01_06:00",
		"Result.2026-03-01_06:00",
		"Summary.2026-03-02_18:00",
		"not-a-window",
	}
	for _, k := range keys {
		require.NoError(t, s.Upsert(ctx, CollectionPipeline, k, map[string]int{}))
	}

	windows, err := s.ListWindows(ctx, CollectionPipeline)
	require.NoError(t, err)
	assert.Equal(t, []window.ID{"2026-03-01_06:00", "2026-03-02_18:00"}, windows)

	// Other collections are unaffected.
	empty, err := s.ListWindows(ctx, CollectionWeb)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestKeyBuilders(t *testing.T) {
	w := window.ID("2026-03-01_06:00")
	assert.Equal(t, "2026-03-01_06:00", CategorizedKey(w))
	assert.Equal(t, "Result.2026-03-01_06:00", ResultKey(w))
	assert.Equal(t, "Summary.2026-03-01_06:00", SummaryKey(w))
	assert.Equal(t, "envisage_web.2026-03-01_06:00", WebKey(w))
}
