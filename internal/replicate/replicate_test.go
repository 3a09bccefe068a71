package replicate

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

func testWebDoc() model.WebDoc {
	images := []string{"https://storage.example.com/w/1_Politics/politics_0.jpg"}
	return model.WebDoc{
		Date:                "2026-03-01",
		OverallIntroduction: "intro",
		OverallConclusion:   "outro",
		NewsItems: []model.NewsItem{
			{
				ID: 1, Title: "Votes Counted", Summary: "p", Image: "/placeholder.svg",
				Category: "Politics", Date: "2026-03-01", Views: 1234,
				ArticleCount: 3, SourceCount: 2, Images: &images,
			},
			{
				ID: 2, Title: "Lab Notes", Summary: "s", Image: "/placeholder.svg",
				Category: "Science", Date: "2026-03-01", Views: 2345,
				ArticleCount: 1, SourceCount: 1,
			},
		},
	}
}

func TestUpdateForDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, err := window.Parse("2026-03-01_06:00")
	require.NoError(t, err)
	doc := testWebDoc()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO summary_data").
		WithArgs("2026-03-01_06:00", "intro", "outro").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO news_items").
		WithArgs("2026-03-01_06:00", "Votes Counted", "p",
			"https://storage.example.com/w/1_Politics/politics_0.jpg",
			"Politics", "2026-03-01", "votes-counted", 1234, false, 3, 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO news_items").
		WithArgs("2026-03-01_06:00", "Lab Notes", "s", "/placeholder.svg",
			"Science", "2026-03-01", "lab-notes", 2345, false, 1, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	r := NewWithDB(mock)
	require.NoError(t, r.UpdateForDate(context.Background(), w, doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateForDate_SameDayWindowsKeyedSeparately(t *testing.T) {
	// The morning and evening windows of one day must land on distinct
	// summary_data keys; keying by the date part alone would make the
	// evening run overwrite the morning rows.
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	doc := model.WebDoc{
		Date:                "2026-03-01",
		OverallIntroduction: "intro",
		NewsItems: []model.NewsItem{
			{ID: 1, Title: "Votes Counted", Summary: "p", Image: "/placeholder.svg",
				Category: "Politics", Date: "2026-03-01", Views: 1234,
				ArticleCount: 3, SourceCount: 2},
		},
	}

	for _, id := range []string{"2026-03-01_06:00", "2026-03-01_18:00"} {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO summary_data").
			WithArgs(id, "intro", "").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO news_items").
			WithArgs(id, "Votes Counted", "p", "/placeholder.svg",
				"Politics", "2026-03-01", "votes-counted", 1234, false, 3, 2).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
	}

	r := NewWithDB(mock)
	for _, id := range []string{"2026-03-01_06:00", "2026-03-01_18:00"} {
		w, err := window.Parse(id)
		require.NoError(t, err)
		require.NoError(t, r.UpdateForDate(context.Background(), w, doc))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateForDate_RollbackOnItemFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, _ := window.Parse("2026-03-01_06:00")
	doc := testWebDoc()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO summary_data").
		WithArgs("2026-03-01_06:00", "intro", "outro").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO news_items").
		WithArgs("2026-03-01_06:00", "Votes Counted", "p",
			"https://storage.example.com/w/1_Politics/politics_0.jpg",
			"Politics", "2026-03-01", "votes-counted", 1234, false, 3, 2).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	r := NewWithDB(mock)
	err = r.UpdateForDate(context.Background(), w, doc)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS summary_data").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	r := NewWithDB(mock)
	require.NoError(t, r.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "votes-counted", Slug("Votes Counted"))
	assert.Equal(t, "markets-up-2-on-news", Slug("Markets up 2% on news!"))
	assert.Equal(t, "a-b", Slug("--A  b--"))
	assert.Equal(t, "", Slug("«»"))
}

func TestItemImage(t *testing.T) {
	images := []string{"first", "second"}
	assert.Equal(t, "first", itemImage(model.NewsItem{Image: "ph", Images: &images}))

	empty := []string{}
	assert.Equal(t, "ph", itemImage(model.NewsItem{Image: "ph", Images: &empty}))
	assert.Equal(t, "ph", itemImage(model.NewsItem{Image: "ph"}))
}
