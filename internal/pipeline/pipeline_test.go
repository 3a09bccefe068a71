package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envisage-news/envisage-cli/internal/docstore"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/sources"
	"github.com/envisage-news/envisage-cli/internal/window"
)

type stubScraper struct {
	calls int
	items map[string]model.ScrapeItem
	err   error
}

func (s *stubScraper) ScrapeSeed(_ context.Context, seedURL string, _ window.ID) (map[string]model.ScrapeItem, error) {
	s.calls++
	return s.items, s.err
}

type stubFilter struct{}

func (stubFilter) Apply(_ context.Context, seedMap model.ScrapeMap) (model.Mask, error) {
	mask := make(model.Mask)
	for seed, articles := range seedMap {
		mask[seed] = make(map[string]int)
		for u, item := range articles {
			if item.OK() {
				mask[seed][u] = 1
			}
		}
	}
	return mask, nil
}

type stubClassifier struct {
	err error
}

func (s *stubClassifier) Classify(_ context.Context, seedMap model.ScrapeMap, mask model.Mask) (model.Categorized, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(model.Categorized)
	for seed, articles := range seedMap {
		for u, item := range articles {
			if mask[seed][u] != 1 {
				continue
			}
			if out["Politics"] == nil {
				out["Politics"] = map[string]map[string]model.Article{}
			}
			if out["Politics"][seed] == nil {
				out["Politics"][seed] = map[string]model.Article{}
			}
			out["Politics"][seed][u] = *item.Article
		}
	}
	return out.Clean(), nil
}

type stubSummarizer struct {
	pass1Calls int
	pass2Calls int
}

func (s *stubSummarizer) Pass1(_ context.Context, categorized model.Categorized) (model.ResultDoc, error) {
	s.pass1Calls++
	result := make(model.ResultDoc)
	for cat, seeds := range categorized {
		result[cat] = map[string][]model.ArticleSummary{}
		for seed, articles := range seeds {
			for u, a := range articles {
				result[cat][seed] = append(result[cat][seed], model.ArticleSummary{
					Link: u, Title: a.Title, Content: a.Body, Summary: "sum",
				})
			}
		}
	}
	return result, nil
}

func (s *stubSummarizer) Pass2(_ context.Context, _ window.ID, result model.ResultDoc) (model.SummaryDoc, error) {
	s.pass2Calls++
	doc := model.SummaryDoc{Categories: map[string]model.CategorySummary{}}
	empty := true
	for cat, seeds := range result {
		n := 0
		for _, list := range seeds {
			n += len(list)
		}
		if n == 0 {
			continue
		}
		empty = false
		doc.Categories[cat] = model.CategorySummary{Title: cat + " Today", Summary: "s", ArticleCount: n, SourceCount: len(seeds)}
	}
	if empty {
		return model.SummaryDoc{
			OverallIntroduction: model.NoContentIntroduction,
			Categories:          map[string]model.CategorySummary{},
		}, nil
	}
	doc.OverallIntroduction = "intro"
	return doc, nil
}

type stubThumbs struct {
	calls int
}

func (s *stubThumbs) Process(_ context.Context, _ window.ID, doc model.WebDoc) (model.WebDoc, error) {
	s.calls++
	for i := range doc.NewsItems {
		urls := []string{"https://storage.example.com/img.jpg"}
		doc.NewsItems[i].Images = &urls
	}
	return doc, nil
}

type stubReplicator struct {
	calls int
	last  model.WebDoc
}

func (s *stubReplicator) UpdateForDate(_ context.Context, _ window.ID, doc model.WebDoc) error {
	s.calls++
	s.last = doc
	return nil
}

func newStore(t *testing.T) docstore.Store {
	t.Helper()
	store, err := docstore.NewSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func goodScraper() *stubScraper {
	return &stubScraper{items: map[string]model.ScrapeItem{
		"https://e.com/story": {Article: &model.Article{Title: "T", Body: "long enough body text"}},
	}}
}

func testGroups() sources.Groups {
	return sources.Groups{"world": {"https://seed.example.com/"}}
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	w, err := window.Parse("2026-03-01_06:00")
	require.NoError(t, err)

	store := newStore(t)
	scr := goodScraper()
	sum := &stubSummarizer{}
	th := &stubThumbs{}
	rep := &stubReplicator{}

	p := New(store, scr, stubFilter{}, &stubClassifier{}, sum, th, rep, testGroups())
	require.NoError(t, p.Run(ctx, w))

	for _, key := range []string{
		docstore.CategorizedKey(w),
		docstore.ResultKey(w),
		docstore.SummaryKey(w),
	} {
		ok, err := store.Exists(ctx, docstore.CollectionPipeline, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	ok, err := store.Exists(ctx, docstore.CollectionWeb, docstore.WebKey(w))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, th.calls)
	assert.Equal(t, 1, rep.calls)
	require.Len(t, rep.last.NewsItems, 1)
	require.NotNil(t, rep.last.NewsItems[0].Images)
	assert.Len(t, *rep.last.NewsItems[0].Images, 1)
}

func TestRun_ResumesFromCheckpoints(t *testing.T) {
	ctx := context.Background()
	w, _ := window.Parse("2026-03-01_06:00")
	store := newStore(t)
	scr := goodScraper()
	sum := &stubSummarizer{}

	p := New(store, scr, stubFilter{}, &stubClassifier{}, sum, &stubThumbs{}, &stubReplicator{}, testGroups())
	require.NoError(t, p.Run(ctx, w))
	require.Equal(t, 1, scr.calls)
	require.Equal(t, 1, sum.pass1Calls)

	// Second run finds every checkpoint and re-runs nothing but replication.
	rep := &stubReplicator{}
	p2 := New(store, scr, stubFilter{}, &stubClassifier{}, sum, &stubThumbs{}, rep, testGroups())
	require.NoError(t, p2.Run(ctx, w))
	assert.Equal(t, 1, scr.calls)
	assert.Equal(t, 1, sum.pass1Calls)
	assert.Equal(t, 1, sum.pass2Calls)
	assert.Equal(t, 1, rep.calls)
}

func TestRun_EmptyWindowWritesSentinelOnly(t *testing.T) {
	ctx := context.Background()
	w, _ := window.Parse("2026-03-01_18:00")
	store := newStore(t)
	scr := &stubScraper{items: map[string]model.ScrapeItem{}}
	th := &stubThumbs{}
	rep := &stubReplicator{}

	p := New(store, scr, stubFilter{}, &stubClassifier{}, &stubSummarizer{}, th, rep, testGroups())
	require.NoError(t, p.Run(ctx, w))

	var summary model.SummaryDoc
	found, err := store.Get(ctx, docstore.CollectionPipeline, docstore.SummaryKey(w), &summary)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.NoContentIntroduction, summary.OverallIntroduction)
	assert.True(t, summary.Empty())

	// No web view for an empty window, hence no thumbnails or replication.
	ok, err := store.Exists(ctx, docstore.CollectionWeb, docstore.WebKey(w))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, th.calls)
	assert.Zero(t, rep.calls)
}

func TestRun_StageFailureLeavesEarlierCheckpoints(t *testing.T) {
	ctx := context.Background()
	w, _ := window.Parse("2026-03-01_06:00")
	store := newStore(t)

	p := New(store, goodScraper(), stubFilter{}, &stubClassifier{err: assert.AnError},
		&stubSummarizer{}, &stubThumbs{}, &stubReplicator{}, testGroups())
	err := p.Run(ctx, w)
	require.Error(t, err)

	ok, err2 := store.Exists(ctx, docstore.CollectionPipeline, docstore.CategorizedKey(w))
	require.NoError(t, err2)
	assert.False(t, ok)
}

func TestRun_AllSourceGroupsFailing(t *testing.T) {
	ctx := context.Background()
	w, _ := window.Parse("2026-03-01_06:00")
	store := newStore(t)
	scr := &stubScraper{err: assert.AnError}

	p := New(store, scr, stubFilter{}, &stubClassifier{}, &stubSummarizer{},
		&stubThumbs{}, &stubReplicator{}, testGroups())
	assert.Error(t, p.Run(ctx, w))
}
