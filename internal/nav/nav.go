// Package nav computes the ranges shown after paging or clicking through
// the calendar.
package nav

import (
	"time"

	"github.com/cpuguy83/calview/internal/calmath"
)

// Page is the visible range together with the settings paging depends on.
type Page struct {
	Start time.Time
	End   time.Time

	// DayMode is set when the view shows a single day.
	DayMode bool

	Loc            *time.Location
	FirstDayOfWeek int

	// FirstVisibleDay and LastVisibleDay bound the rendered days of the
	// week, counted from FirstDayOfWeek.
	FirstVisibleDay int
	LastVisibleDay  int
}

func (p Page) step() int {
	if p.DayMode {
		return 1
	}
	return 7
}

// visible reports whether t falls on a rendered day of the week.
func (p Page) visible(t time.Time) bool {
	dow := calmath.LocalizedDayOfWeek(t, p.Loc, p.FirstDayOfWeek)
	return p.FirstVisibleDay <= dow && dow <= p.LastVisibleDay
}

// Forward returns the next page.
func Forward(p Page) Page {
	return shift(p, 1)
}

// Backward returns the previous page.
func Backward(p Page) Page {
	return shift(p, -1)
}

func shift(p Page, dir int) Page {
	days := dir * p.step()
	if p.DayMode {
		// At most a week of extra steps: a valid visible window always
		// contains at least one day.
		for i := 0; i < 7 && !p.visible(p.Start.AddDate(0, 0, days)); i++ {
			days += dir
		}
	}
	p.Start = p.Start.In(p.Loc).AddDate(0, 0, days)
	p.End = p.End.In(p.Loc).AddDate(0, 0, days)
	return p
}

// Week returns the range of the given ISO week, snapped to the first day of
// week in loc: start of its first day through end of its last.
func Week(year, week int, loc *time.Location, firstDayOfWeek int) (start, end time.Time) {
	monday := calmath.ISOWeekStart(year, week, loc)
	first := calmath.FirstDateOfWeek(monday, loc, firstDayOfWeek)
	return calmath.StartOfDay(first, loc), calmath.EndOfDay(first.AddDate(0, 0, 6), loc)
}

// Day returns the range covering the single day containing t in loc.
func Day(t time.Time, loc *time.Location) (start, end time.Time) {
	return calmath.StartOfDay(t, loc), calmath.EndOfDay(t, loc)
}
