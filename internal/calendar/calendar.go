// Package calendar derives the per-cell state of a month view from the
// tasks stored for that month.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"caltodo/internal/dates"
	"caltodo/internal/storage"
)

var ErrInvalidGranularity = errors.New("calendar: invalid overdue granularity")

// Marker is the status colour of a day cell.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerHasTasks
	MarkerOverdue
)

func (m Marker) String() string {
	switch m {
	case MarkerHasTasks:
		return "has-tasks"
	case MarkerOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// Granularity selects how a day is compared against the clock when
// deciding whether open tasks are overdue.
type Granularity string

const (
	// GranularityDate treats a day as overdue once it is strictly before
	// today.
	GranularityDate Granularity = "date"
	// GranularityTimestamp compares the day's midnight with now, so today
	// turns overdue as soon as the day has started.
	GranularityTimestamp Granularity = "timestamp"
)

func ParseGranularity(v string) (Granularity, error) {
	switch g := Granularity(v); g {
	case GranularityDate, GranularityTimestamp:
		return g, nil
	case "":
		return GranularityDate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, v)
	}
}

// Past reports whether day lies before now under g.
func (g Granularity) Past(day dates.Date, now time.Time) bool {
	if g == GranularityTimestamp {
		return day.Time(now.Location()).Before(now)
	}
	return day.Before(dates.FromTime(now))
}

// MarkerFor computes the marker of a single day. Overdue wins over
// has-tasks; completed tasks never make a day overdue.
func MarkerFor(day dates.Date, tasks []storage.Task, now time.Time, g Granularity) Marker {
	if len(tasks) == 0 {
		return MarkerNone
	}
	if g.Past(day, now) {
		for _, t := range tasks {
			if !t.Completed {
				return MarkerOverdue
			}
		}
	}
	return MarkerHasTasks
}

// Cell is one slot of the 6x7 grid. Day is 0 for slots outside the month.
type Cell struct {
	Day     int
	Enabled bool
	Marker  Marker
	Today   bool
}

type Month struct {
	Year  int
	Month time.Month
	Title string
	Cells [6][7]Cell
}

// Build lays out the month with markers computed from byDay, the month's
// tasks keyed by day.
func Build(year int, month time.Month, byDay map[int][]storage.Task, now time.Time, g Granularity) Month {
	out := Month{
		Year:  year,
		Month: month,
		Title: dates.Title(year, month),
	}
	today := dates.FromTime(now)
	grid := dates.MonthGrid(year, month)
	for r, week := range grid {
		for c, day := range week {
			if day == 0 {
				continue
			}
			d := dates.New(year, month, day)
			out.Cells[r][c] = Cell{
				Day:     day,
				Enabled: true,
				Marker:  MarkerFor(d, byDay[day], now, g),
				Today:   d == today,
			}
		}
	}
	return out
}

// Find returns the grid position of day, or false when day is not part of
// the month.
func (m Month) Find(day int) (row, col int, ok bool) {
	if day <= 0 {
		return 0, 0, false
	}
	for r, week := range m.Cells {
		for c, cell := range week {
			if cell.Enabled && cell.Day == day {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}
