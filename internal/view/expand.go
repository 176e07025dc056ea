package view

import (
	"time"

	"github.com/cpuguy83/calview/internal/calmath"
)

// MaxDays is the longest visible range, in calendar days.
const MaxDays = 60

// Range is a visible range expanded to whole days, and to whole weeks when
// it spans more than seven days.
type Range struct {
	Start time.Time
	End   time.Time

	// Days is the inclusive calendar-day count of the expanded range.
	Days int

	// FullWeek is set when the raw range exceeded a week and was snapped
	// to week boundaries.
	FullWeek bool
}

// CurrentWeek returns the week containing now, from the start of its first
// day to the end of its last.
func CurrentWeek(now time.Time, loc *time.Location, firstDayOfWeek int) (start, end time.Time) {
	start = calmath.StartOfDay(calmath.FirstDateOfWeek(now, loc, firstDayOfWeek), loc)
	end = calmath.EndOfDay(calmath.LastDateOfWeek(now, loc, firstDayOfWeek), loc)
	return start, end
}

// ExpandRange validates [start, end] and expands it for display. When both
// bounds are zero the week containing now is used. An end before the start
// is raised to the start.
//
// The MaxDays limit applies to the raw range, so week expansion may return
// up to MaxDays+6 days.
func ExpandRange(start, end time.Time, loc *time.Location, firstDayOfWeek int, now time.Time) (Range, error) {
	switch {
	case start.IsZero() && end.IsZero():
		start, end = CurrentWeek(now, loc, firstDayOfWeek)
	case start.IsZero():
		return Range{}, &MissingBoundError{Missing: "start"}
	case end.IsZero():
		return Range{}, &MissingBoundError{Missing: "end"}
	}
	if end.Before(start) {
		end = start
	}

	raw := calmath.DaysInclusive(start, end, loc)
	if raw > MaxDays {
		return Range{}, &RangeTooLargeError{Days: raw}
	}

	r := Range{FullWeek: raw > 7}
	if r.FullWeek {
		start = calmath.FirstDateOfWeek(start, loc, firstDayOfWeek)
		end = calmath.LastDateOfWeek(end, loc, firstDayOfWeek)
	}
	r.Start = calmath.StartOfDay(start, loc)
	r.End = calmath.EndOfDay(end, loc)
	r.Days = calmath.DaysInclusive(r.Start, r.End, loc)
	return r, nil
}
