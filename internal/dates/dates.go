// Package dates holds the calendar arithmetic used by the month view.
package dates

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// WeekdayLabels is the header row of a Monday-first grid.
var WeekdayLabels = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func New(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime truncates t to its calendar day in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse reads a YYYY-MM-DD date.
func Parse(v string) (Date, error) {
	t, err := time.Parse(layout, v)
	if err != nil {
		return Date{}, err
	}
	return FromTime(t), nil
}

func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysIn(d.Year, d.Month)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthGrid lays the month out in six Monday-first weeks. Cells outside
// the month hold 0.
func MonthGrid(year int, month time.Month) [6][7]int {
	var grid [6][7]int
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	days := DaysIn(year, month)
	for day := 1; day <= days; day++ {
		cell := offset + day - 1
		grid[cell/7][cell%7] = day
	}
	return grid
}

// Prev returns the month before (year, month).
func Prev(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// Next returns the month after (year, month).
func Next(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// Title renders "January 2024".
func Title(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
