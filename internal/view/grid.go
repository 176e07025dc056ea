package view

import (
	"slices"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/wire"

	"golang.org/x/text/language"
)

// Day is the client record for one rendered day.
type Day struct {
	Date         string  `json:"date"`
	Caption      string  `json:"caption"`
	DayOfWeek    int     `json:"dayOfWeek"`
	Week         int     `json:"week"`
	YearOfWeek   int     `json:"yearOfWeek"`
	BlockedSlots []int64 `json:"blockedSlots"`
}

// GridInput is everything the day grid depends on.
type GridInput struct {
	Start          time.Time
	End            time.Time
	Loc            *time.Location
	Locale         language.Tag
	FirstDayOfWeek int

	// CaptionLayout is a Go time layout for day captions. Empty selects the
	// locale's short date layout.
	CaptionLayout string

	Now       time.Time
	Blocked   *BlockedTimes
	Providers []action.Provider
}

// GridResult is the rendered day grid and the actions offered on it.
type GridResult struct {
	Range   Range
	Days    []Day
	Mode    Mode
	Actions map[action.DateRange][]action.Action
}

// BuildDayGrid expands the range and walks it one calendar day at a time,
// collecting a Day per date and the actions of every provider. Month views
// ask providers once per day; day and week views once per half hour.
func BuildDayGrid(in GridInput) (GridResult, error) {
	loc := in.Loc
	r, err := ExpandRange(in.Start, in.End, loc, in.FirstDayOfWeek, in.Now)
	if err != nil {
		return GridResult{}, err
	}

	layout := in.CaptionLayout
	if layout == "" {
		layout = calmath.DefaultCaptionLayout(in.Locale)
	}

	res := GridResult{
		Range:   r,
		Days:    make([]Day, 0, r.Days),
		Actions: make(map[action.DateRange][]action.Action),
	}

	last := calmath.DateOf(r.End, loc)
	d := calmath.DateOf(r.Start, loc)
	for i := 0; i < r.Days && !last.Before(d); i++ {
		t := d.In(loc)
		year, week := calmath.ISOWeek(t, loc)

		res.Days = append(res.Days, Day{
			Date:         d.String(),
			Caption:      calmath.FormatCaption(t, layout, in.Locale),
			DayOfWeek:    calmath.LocalizedDayOfWeek(t, loc, in.FirstDayOfWeek),
			Week:         week,
			YearOfWeek:   year,
			BlockedSlots: in.Blocked.Slots(d),
		})

		// Slots run to one second before the next midnight.
		dayEnd := t.AddDate(0, 0, 1).Add(-time.Second)
		for _, p := range in.Providers {
			if r.FullWeek {
				collectActions(res.Actions, p, t, dayEnd, loc)
				continue
			}
			for s := t; s.Before(dayEnd); s = s.Add(wire.SlotDuration) {
				collectActions(res.Actions, p, s, s.Add(wire.SlotDuration), loc)
			}
		}

		d = d.AddDays(1)
	}

	res.Mode = ModeFor(len(res.Days))
	return res, nil
}

// collectActions asks p for the actions of [start, end] and merges them
// into m. Empty answers leave no entry.
func collectActions(m map[action.DateRange][]action.Action, p action.Provider, start, end time.Time, loc *time.Location) {
	key := action.NewDateRange(start, end, loc)
	for _, a := range p.Actions(key) {
		if !slices.Contains(m[key], a) {
			m[key] = append(m[key], a)
		}
	}
}
