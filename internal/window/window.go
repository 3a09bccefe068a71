// Package window derives and manipulates the half-day run window
// identifiers that key every document the pipeline produces.
package window

import (
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ID names a half-day run window in the form "YYYY-MM-DD_HH:MM", where the
// time part is either 06:00 (the overnight window, covering the preceding
// 18:00 through this 06:00) or 18:00 (the daytime window, covering this
// 06:00 through this 18:00). All comparisons are in host-local time.
type ID string

const (
	layoutDate = "2006-01-02"
	layout     = "2006-01-02_15:04"

	// MorningHour and EveningHour are the two daily boundary hours.
	MorningHour = 6
	EveningHour = 18
)

// Pattern matches a window-shaped string anywhere inside a document key.
var Pattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_(?:06|18):00`)

// Current derives the window that wall-clock time now falls into.
//
//	 6 <= h < 18  -> today 18:00
//	h >= 18       -> tomorrow 06:00
//	h <  6        -> today 06:00
//
// Exactly 06:00 maps to today 18:00; exactly 18:00 maps to tomorrow 06:00.
func Current(now time.Time) ID {
	h := now.Hour()
	switch {
	case h >= EveningHour:
		next := now.AddDate(0, 0, 1)
		return fromParts(next, MorningHour)
	case h >= MorningHour:
		return fromParts(now, EveningHour)
	default:
		return fromParts(now, MorningHour)
	}
}

// Parse validates and returns a window ID from its string form.
func Parse(s string) (ID, error) {
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return "", eris.Wrapf(err, "window: parse %q", s)
	}
	if h := t.Hour(); h != MorningHour && h != EveningHour {
		return "", eris.Errorf("window: hour %02d:00 is not a window boundary", h)
	}
	if t.Minute() != 0 {
		return "", eris.Errorf("window: %q has non-zero minutes", s)
	}
	return ID(s), nil
}

func fromParts(day time.Time, hour int) ID {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.Local)
	return ID(t.Format(layout))
}

// Date returns the date part (before the underscore).
func (w ID) Date() string {
	return strings.SplitN(string(w), "_", 2)[0]
}

// Hour returns the boundary hour, 6 or 18.
func (w ID) Hour() int {
	if strings.HasSuffix(string(w), "18:00") {
		return EveningHour
	}
	return MorningHour
}

// Time returns the window's end boundary as a local time.
func (w ID) Time() time.Time {
	t, _ := time.ParseInLocation(layout, string(w), time.Local)
	return t
}

// Bounds returns the inclusive [start, end] interval the window covers.
// The 06:00 window spans the previous day's 18:00 through this 06:00;
// the 18:00 window spans this day's 06:00 through 18:00.
func (w ID) Bounds() (start, end time.Time) {
	end = w.Time()
	if w.Hour() == MorningHour {
		// Built from wall-clock parts, not end.Add(-12h), so the boundary
		// stays at 18:00 across DST transitions.
		start = time.Date(end.Year(), end.Month(), end.Day()-1, EveningHour, 0, 0, 0, time.Local)
	} else {
		start = time.Date(end.Year(), end.Month(), end.Day(), MorningHour, 0, 0, 0, time.Local)
	}
	return start, end
}

// Contains reports whether t falls inside the window's inclusive interval.
// The comparison is timezone-naive: t's wall-clock components are read in
// whatever location it carries and compared against local bounds. This
// mirrors the upstream behavior and is a known source of off-by-hours
// results near boundaries.
func (w ID) Contains(t time.Time) bool {
	naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
	start, end := w.Bounds()
	return !naive.Before(start) && !naive.After(end)
}

// PeriodPhrase names the span covered, for use in generated prose.
func (w ID) PeriodPhrase() string {
	if w.Hour() == MorningHour {
		return "overnight to early morning"
	}
	return "morning to evening"
}

// PathComponent returns the ID with the colon removed, safe for use as a
// filesystem directory name (e.g. "2026-03-01_0600").
func (w ID) PathComponent() string {
	return strings.ReplaceAll(string(w), ":", "")
}

func (w ID) String() string { return string(w) }
