package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func TestCurrent_Daytime(t *testing.T) {
	got := Current(local(2026, 3, 1, 11, 30))
	assert.Equal(t, ID("2026-03-01_18:00"), got)
}

func TestCurrent_Evening(t *testing.T) {
	got := Current(local(2026, 3, 1, 21, 0))
	assert.Equal(t, ID("2026-03-02_06:00"), got)
}

func TestCurrent_EarlyMorning(t *testing.T) {
	got := Current(local(2026, 3, 1, 3, 15))
	assert.Equal(t, ID("2026-03-01_06:00"), got)
}

func TestCurrent_ExactBoundaries(t *testing.T) {
	// Exactly 06:00 belongs to the daytime window; exactly 18:00 rolls to
	// the next morning.
	assert.Equal(t, ID("2026-03-01_18:00"), Current(local(2026, 3, 1, 6, 0)))
	assert.Equal(t, ID("2026-03-02_06:00"), Current(local(2026, 3, 1, 18, 0)))
}

func TestCurrent_PureWithinWindow(t *testing.T) {
	base := local(2026, 3, 1, 9, 0)
	w := Current(base)
	for _, eps := range []time.Duration{time.Second, time.Hour, 8 * time.Hour} {
		assert.Equal(t, w, Current(base.Add(eps)))
	}
}

func TestCurrent_MonthRollover(t *testing.T) {
	got := Current(local(2026, 2, 28, 23, 0))
	assert.Equal(t, ID("2026-03-01_06:00"), got)
}

func TestParse_Valid(t *testing.T) {
	w, err := Parse("2026-03-01_06:00")
	require.NoError(t, err)
	assert.Equal(t, ID("2026-03-01_06:00"), w)
}

func TestParse_RejectsNonBoundaryHour(t *testing.T) {
	_, err := Parse("2026-03-01_12:00")
	assert.Error(t, err)
}

func TestParse_RejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-window")
	assert.Error(t, err)
}

func TestDateAndHour(t *testing.T) {
	w := ID("2026-03-01_18:00")
	assert.Equal(t, "2026-03-01", w.Date())
	assert.Equal(t, 18, w.Hour())
	assert.Equal(t, 6, ID("2026-03-01_06:00").Hour())
}

func TestBounds_Morning(t *testing.T) {
	start, end := ID("2026-03-01_06:00").Bounds()
	assert.Equal(t, local(2026, 2, 28, 18, 0), start)
	assert.Equal(t, local(2026, 3, 1, 6, 0), end)
}

func TestBounds_MorningStartAtWallClockEvening(t *testing.T) {
	// The morning start is the previous day's 18:00 wall clock, including
	// on the days common DST transitions fall on.
	for _, id := range []ID{
		"2026-03-08_06:00", // US spring forward
		"2026-03-29_06:00", // EU spring forward
		"2026-10-25_06:00", // EU fall back
		"2026-11-01_06:00", // US fall back
	} {
		start, end := id.Bounds()
		prev := end.AddDate(0, 0, -1)
		assert.Equal(t, local(prev.Year(), prev.Month(), prev.Day(), 18, 0), start, id)
	}
}

func TestBounds_Evening(t *testing.T) {
	start, end := ID("2026-03-01_18:00").Bounds()
	assert.Equal(t, local(2026, 3, 1, 6, 0), start)
	assert.Equal(t, local(2026, 3, 1, 18, 0), end)
}

func TestContains_InclusiveEnds(t *testing.T) {
	w := ID("2026-03-01_18:00")
	assert.True(t, w.Contains(local(2026, 3, 1, 6, 0)))
	assert.True(t, w.Contains(local(2026, 3, 1, 18, 0)))
	assert.True(t, w.Contains(local(2026, 3, 1, 12, 0)))
	assert.False(t, w.Contains(local(2026, 3, 1, 5, 59)))
	assert.False(t, w.Contains(local(2026, 3, 1, 18, 1)))
}

func TestContains_StripsTimezone(t *testing.T) {
	// A parsed article date carrying a UTC offset is compared by its wall
	// clock components only.
	w := ID("2026-03-01_18:00")
	loc := time.FixedZone("X", 11*3600)
	assert.True(t, w.Contains(time.Date(2026, 3, 1, 12, 0, 0, 0, loc)))
}

func TestPeriodPhrase(t *testing.T) {
	assert.Equal(t, "overnight to early morning", ID("2026-03-01_06:00").PeriodPhrase())
	assert.Equal(t, "morning to evening", ID("2026-03-01_18:00").PeriodPhrase())
}

func TestPathComponent(t *testing.T) {
	assert.Equal(t, "2026-03-01_0600", ID("2026-03-01_06:00").PathComponent())
}

func TestPattern(t *testing.T) {
	keys := []string{
		"2026-03-01_06:00",
		"Result.2026-03-01_18:00",
		"envisage_web.2026-03-01_06:00",
	}
	for _, k := range keys {
		assert.True(t, Pattern.MatchString(k), k)
	}
	assert.False(t, Pattern.MatchString("Result.2026-03-01_12:00"))
}
