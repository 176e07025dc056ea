package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calmath"

	"golang.org/x/text/language"
)

type stubProvider struct {
	actions func(r action.DateRange) []action.Action
	asked   int
	handled []action.Target
}

func (p *stubProvider) Actions(r action.DateRange) []action.Action {
	p.asked++
	if p.actions == nil {
		return nil
	}
	return p.actions(r)
}

func (p *stubProvider) HandleAction(_ context.Context, _ action.Action, target action.Target) {
	p.handled = append(p.handled, target)
}

func always(a ...action.Action) func(action.DateRange) []action.Action {
	return func(action.DateRange) []action.Action { return a }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandRangeWithinLimit(t *testing.T) {
	base := date(2024, 1, 1)
	for fdow := calmath.Sunday; fdow <= calmath.Saturday; fdow++ {
		for offset := 0; offset < 7; offset++ {
			for n := 1; n <= MaxDays; n++ {
				start := base.AddDate(0, 0, offset)
				end := calmath.EndOfDay(start.AddDate(0, 0, n-1), time.UTC)

				grid, err := BuildDayGrid(GridInput{Start: start, End: end, Loc: time.UTC, Locale: language.BritishEnglish, FirstDayOfWeek: fdow})
				if err != nil {
					t.Fatalf("fdow=%d start=%v days=%d: %v", fdow, start, n, err)
				}
				if len(grid.Days) != grid.Range.Days {
					t.Fatalf("days=%d: grid has %d days, expanded range has %d", n, len(grid.Days), grid.Range.Days)
				}
				if want := ModeFor(grid.Range.Days); grid.Mode != want {
					t.Fatalf("days=%d: mode %v, want %v", n, grid.Mode, want)
				}
				if n <= 7 && grid.Range.Days != n {
					t.Fatalf("days=%d: range was expanded to %d days", n, grid.Range.Days)
				}
			}
		}
	}
}

func TestModeFor(t *testing.T) {
	tests := []struct {
		n    int
		want Mode
	}{
		{0, ModeMonth},
		{1, ModeDay},
		{2, ModeWeek},
		{7, ModeWeek},
		{8, ModeMonth},
		{42, ModeMonth},
	}
	for _, tt := range tests {
		if got := ModeFor(tt.n); got != tt.want {
			t.Errorf("ModeFor(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNineDayRangeExpandsToWholeWeeks(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		start := date(2024, 1, 1).AddDate(0, 0, offset)
		end := start.AddDate(0, 0, 8)

		r, err := ExpandRange(start, end, time.UTC, calmath.Monday, time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		if r.Days%7 != 0 || r.Days < 14 || r.Days > MaxDays {
			t.Errorf("start %v: expanded to %d days", start, r.Days)
		}
		if r.Start.After(start) || r.End.Before(end) {
			t.Errorf("start %v: [%v, %v] does not contain the raw range", start, r.Start, r.End)
		}
		if calmath.DayOfWeek(r.Start, time.UTC) != calmath.Monday {
			t.Errorf("start %v: expanded start %v is not a Monday", start, r.Start)
		}
		if !r.FullWeek {
			t.Errorf("start %v: FullWeek not set", start)
		}
	}
}

func TestExpandRangeErrors(t *testing.T) {
	start := date(2024, 1, 1)

	_, err := ExpandRange(start, start.AddDate(0, 0, 60), time.UTC, calmath.Monday, time.Time{})
	var tooLarge *RangeTooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Days != 61 {
		t.Errorf("61 day range: err = %v, want RangeTooLargeError{61}", err)
	}

	tests := []struct {
		name       string
		start, end time.Time
		missing    string
	}{
		{"only start", start, time.Time{}, "end"},
		{"only end", time.Time{}, start, "start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandRange(tt.start, tt.end, time.UTC, calmath.Monday, time.Time{})
			var missing *MissingBoundError
			if !errors.As(err, &missing) || missing.Missing != tt.missing {
				t.Errorf("err = %v, want MissingBoundError{%q}", err, tt.missing)
			}
		})
	}
}

func TestExpandRangeRaisesEndToStart(t *testing.T) {
	start := date(2024, 1, 10)
	r, err := ExpandRange(start, date(2024, 1, 3), time.UTC, calmath.Monday, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Days != 1 || !r.Start.Equal(start) {
		t.Errorf("ExpandRange(end < start) = %d days from %v, want 1 from %v", r.Days, r.Start, start)
	}

	g, err := BuildDayGrid(GridInput{Start: start, End: date(2024, 1, 3), Loc: time.UTC, Locale: language.BritishEnglish, FirstDayOfWeek: calmath.Monday})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Days) != 1 {
		t.Errorf("BuildDayGrid(end < start) built %d days", len(g.Days))
	}
}

func TestBuildDayGridRecords(t *testing.T) {
	var blocked BlockedTimes
	blocked.Add(calmath.EveryDay, 0, SlotMillis)
	blocked.Add(calmath.Date{Year: 2024, Month: time.January, Day: 2}, 12*2*SlotMillis, 13*2*SlotMillis)

	grid, err := BuildDayGrid(GridInput{
		Start:          date(2024, 1, 1),
		End:            date(2024, 1, 3),
		Loc:            time.UTC,
		Locale:         language.AmericanEnglish,
		FirstDayOfWeek: calmath.Sunday,
		CaptionLayout:  "Mon 1/2",
		Blocked:        &blocked,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(grid.Days) != 3 || grid.Mode != ModeWeek {
		t.Fatalf("got %d days in %v mode, want 3 in week mode", len(grid.Days), grid.Mode)
	}

	d := grid.Days[1]
	if d.Date != "2024-01-02" || d.Caption != "Tue 1/2" {
		t.Errorf("day 1 = %q %q", d.Date, d.Caption)
	}
	if d.DayOfWeek != 3 {
		t.Errorf("Tuesday with Sunday first is localized day %d, want 3", d.DayOfWeek)
	}
	if d.Week != 1 || d.YearOfWeek != 2024 {
		t.Errorf("week = %d/%d, want 1/2024", d.Week, d.YearOfWeek)
	}
	want := []int64{0, 24 * SlotMillis, 25 * SlotMillis}
	if len(d.BlockedSlots) != len(want) {
		t.Fatalf("blocked slots = %v, want %v", d.BlockedSlots, want)
	}
	for i := range want {
		if d.BlockedSlots[i] != want[i] {
			t.Errorf("blocked slots = %v, want %v", d.BlockedSlots, want)
		}
	}
	if got := grid.Days[0].BlockedSlots; len(got) != 1 || got[0] != 0 {
		t.Errorf("day without own blocks = %v, want [0]", got)
	}
}

func TestBuildDayGridActionGranularity(t *testing.T) {
	remind := action.Action{ID: "remind", Caption: "Remind me"}

	tests := []struct {
		name       string
		start, end time.Time
		wantKeys   int
	}{
		{"week view asks per half hour", date(2024, 1, 1), date(2024, 1, 7), 7 * 48},
		{"day view asks per half hour", date(2024, 1, 1), date(2024, 1, 1), 48},
		{"month view asks per day", date(2024, 1, 1), date(2024, 1, 31), 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{actions: always(remind)}
			grid, err := BuildDayGrid(GridInput{Start: tt.start, End: tt.end, Loc: time.UTC, Locale: language.BritishEnglish, FirstDayOfWeek: calmath.Monday, Providers: []action.Provider{p}})
			if err != nil {
				t.Fatal(err)
			}
			if len(grid.Actions) != tt.wantKeys || p.asked != tt.wantKeys {
				t.Errorf("got %d keys after %d requests, want %d", len(grid.Actions), p.asked, tt.wantKeys)
			}
		})
	}
}

func TestBuildDayGridOmitsEmptyActions(t *testing.T) {
	only := action.Action{ID: "lunch"}
	p := &stubProvider{actions: func(r action.DateRange) []action.Action {
		start, _ := r.Bounds(time.UTC)
		if start.Hour() == 12 && start.Minute() == 0 {
			return []action.Action{only}
		}
		return nil
	}}

	grid, err := BuildDayGrid(GridInput{Start: date(2024, 1, 1), End: date(2024, 1, 1), Loc: time.UTC, Locale: language.BritishEnglish, FirstDayOfWeek: calmath.Monday, Providers: []action.Provider{p, p}})
	if err != nil {
		t.Fatal(err)
	}
	if len(grid.Actions) != 1 {
		t.Fatalf("got %d keys, want 1", len(grid.Actions))
	}
	for r, acts := range grid.Actions {
		if len(acts) != 1 {
			t.Errorf("%+v has %d actions, want duplicates merged", r, len(acts))
		}
		if r.EndMillis-r.StartMillis != SlotMillis {
			t.Errorf("slot is %d ms long", r.EndMillis-r.StartMillis)
		}
	}
}

func TestBuildDayGridDSTSlots(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{"spring forward", time.Date(2024, 3, 31, 0, 0, 0, 0, loc), 46},
		{"fall back", time.Date(2024, 10, 27, 0, 0, 0, 0, loc), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{actions: always(action.Action{ID: "x"})}
			grid, err := BuildDayGrid(GridInput{Start: tt.day, End: tt.day, Loc: loc, Locale: language.German, FirstDayOfWeek: calmath.Monday, Providers: []action.Provider{p}})
			if err != nil {
				t.Fatal(err)
			}
			if len(grid.Days) != 1 {
				t.Fatalf("got %d days", len(grid.Days))
			}
			if len(grid.Actions) != tt.want {
				t.Errorf("got %d slots, want %d", len(grid.Actions), tt.want)
			}
		})
	}
}

func TestBlockedTimes(t *testing.T) {
	day := calmath.Date{Year: 2024, Month: time.May, Day: 1}

	var b BlockedTimes
	b.Add(day, 0, 3600000)
	got := b.Slots(day)
	if len(got) != 2 || got[0] != 0 || got[1] != 1800000 {
		t.Errorf("Slots = %v, want [0 1800000]", got)
	}
	if other := b.Slots(day.AddDays(1)); len(other) != 0 {
		t.Errorf("other day has slots %v", other)
	}

	b.ClearDay(day)
	if got := b.Slots(day); len(got) != 0 {
		t.Errorf("after ClearDay Slots = %v", got)
	}

	for _, tt := range []struct{ from, to int64 }{
		{0, 0},
		{SlotMillis, 0},
		{1, SlotMillis},
		{0, SlotMillis + 1},
		{-SlotMillis, 0},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Add(%d, %d) did not panic", tt.from, tt.to)
				}
			}()
			b.Add(day, tt.from, tt.to)
		}()
	}
}
