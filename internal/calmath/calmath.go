// Package calmath provides timezone and week-start aware date arithmetic.
//
// Every function takes the location and first day of week explicitly and
// returns new values; nothing in this package holds calendar state.
package calmath

import (
	"fmt"
	"time"
)

// Day-of-week numbers, Sunday first, as exchanged with the rendering client.
const (
	Sunday    = 1
	Monday    = 2
	Tuesday   = 3
	Wednesday = 4
	Thursday  = 5
	Friday    = 6
	Saturday  = 7
)

// DateLayout is the date-only wire layout.
const DateLayout = "2006-01-02"

// DayOfWeek returns the day of week of t in loc, 1 (Sunday) through 7 (Saturday).
func DayOfWeek(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday()) + 1
}

// Localize reindexes a Sunday-first day of week so that firstDayOfWeek becomes 1.
func Localize(dayOfWeek, firstDayOfWeek int) int {
	return (dayOfWeek-firstDayOfWeek+7)%7 + 1
}

// LocalizedDayOfWeek returns the day of week of t counted from firstDayOfWeek.
func LocalizedDayOfWeek(t time.Time, loc *time.Location, firstDayOfWeek int) int {
	return Localize(DayOfWeek(t, loc), firstDayOfWeek)
}

// StartOfDay returns 00:00:00.000 of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of the day containing t in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// FirstDateOfWeek walks back from t until the day of week equals
// firstDayOfWeek. The time of day is preserved.
func FirstDateOfWeek(t time.Time, loc *time.Location, firstDayOfWeek int) time.Time {
	t = t.In(loc)
	for i := 0; i < 7 && DayOfWeek(t, loc) != firstDayOfWeek; i++ {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// LastDateOfWeek rolls forward from the day after t until the next week
// starts, then steps back one day.
func LastDateOfWeek(t time.Time, loc *time.Location, firstDayOfWeek int) time.Time {
	t = t.In(loc).AddDate(0, 0, 1)
	for i := 0; i < 7 && DayOfWeek(t, loc) != firstDayOfWeek; i++ {
		t = t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 0, -1)
}

// MinuteOfDay returns hour*60+minute of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	t = t.In(loc)
	return t.Hour()*60 + t.Minute()
}

// DaysInclusive counts the calendar days from start to end in loc, both
// included. It returns a value below 1 when end falls on an earlier day.
func DaysInclusive(start, end time.Time, loc *time.Location) int {
	return DateOf(end, loc).Sub(DateOf(start, loc)) + 1
}

// ISOWeek returns the ISO 8601 year and week number of t in loc.
func ISOWeek(t time.Time, loc *time.Location) (year, week int) {
	return t.In(loc).ISOWeek()
}

// ISOWeekStart returns midnight of the Monday that starts the given ISO week.
func ISOWeekStart(year, week int, loc *time.Location) time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

// Date is a civil date without a location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// EveryDay is the sentinel key used for entries that apply to all days.
var EveryDay = Date{}

// DateOf returns the civil date of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	t = t.In(loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

// IsZero reports whether d is the EveryDay sentinel.
func (d Date) IsZero() bool {
	return d == EveryDay
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n), time.UTC)
}

// Sub returns the number of calendar days from o to d.
func (d Date) Sub(o Date) int {
	return int(d.In(time.UTC).Sub(o.In(time.UTC)) / (24 * time.Hour))
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	return d.Sub(o) < 0
}

func (d Date) String() string {
	if d.IsZero() {
		return "*"
	}
	return d.In(time.UTC).Format(DateLayout)
}
