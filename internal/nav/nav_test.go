package nav

import (
	"testing"
	"time"

	"github.com/cpuguy83/calview/internal/calmath"
)

func day(loc *time.Location, y int, m time.Month, d int) (time.Time, time.Time) {
	return Day(time.Date(y, m, d, 12, 0, 0, 0, loc), loc)
}

func TestForwardDayModeSkipsHiddenDays(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name    string
		from    time.Time
		forward bool
		want    time.Time
	}{
		{"friday to monday", time.Date(2024, 1, 5, 0, 0, 0, 0, loc), true, time.Date(2024, 1, 8, 0, 0, 0, 0, loc)},
		{"saturday outside window", time.Date(2024, 1, 6, 0, 0, 0, 0, loc), true, time.Date(2024, 1, 8, 0, 0, 0, 0, loc)},
		{"tuesday to wednesday", time.Date(2024, 1, 2, 0, 0, 0, 0, loc), true, time.Date(2024, 1, 3, 0, 0, 0, 0, loc)},
		{"monday back to friday", time.Date(2024, 1, 8, 0, 0, 0, 0, loc), false, time.Date(2024, 1, 5, 0, 0, 0, 0, loc)},
		{"sunday back to friday", time.Date(2024, 1, 7, 0, 0, 0, 0, loc), false, time.Date(2024, 1, 5, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Day(tt.from, loc)
			p := Page{
				Start:           start,
				End:             end,
				DayMode:         true,
				Loc:             loc,
				FirstDayOfWeek:  calmath.Monday,
				FirstVisibleDay: 1,
				LastVisibleDay:  5,
			}

			var got Page
			if tt.forward {
				got = Forward(p)
			} else {
				got = Backward(p)
			}

			if !got.Start.Equal(tt.want) {
				t.Errorf("start = %v, want %v", got.Start, tt.want)
			}
			if calmath.DaysInclusive(got.Start, got.End, loc) != 1 {
				t.Errorf("page spans %v..%v, want a single day", got.Start, got.End)
			}
			if steps := calmath.DateOf(got.Start, loc).Sub(calmath.DateOf(tt.from, loc)); steps > 7 || steps < -7 {
				t.Errorf("moved %d days, want at most 7", steps)
			}
		})
	}
}

func TestForwardEveryWindowLandsInside(t *testing.T) {
	loc := time.UTC
	for fdow := calmath.Sunday; fdow <= calmath.Saturday; fdow++ {
		for first := 1; first <= 7; first++ {
			for last := first; last <= 7; last++ {
				for d := 1; d <= 7; d++ {
					start, end := day(loc, 2024, 4, d)
					p := Page{Start: start, End: end, DayMode: true, Loc: loc, FirstDayOfWeek: fdow, FirstVisibleDay: first, LastVisibleDay: last}
					for _, got := range []Page{Forward(p), Backward(p)} {
						dow := calmath.LocalizedDayOfWeek(got.Start, loc, fdow)
						if dow < first || dow > last {
							t.Fatalf("fdow=%d window=[%d,%d] from %v landed on localized day %d", fdow, first, last, start, dow)
						}
					}
				}
			}
		}
	}
}

func TestForwardWeekAndMonthShiftBySevenDays(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 1, 28, 23, 59, 59, 0, loc)

	p := Page{Start: start, End: end, Loc: loc, FirstDayOfWeek: calmath.Monday, FirstVisibleDay: 1, LastVisibleDay: 7}

	got := Forward(p)
	if !got.Start.Equal(start.AddDate(0, 0, 7)) || !got.End.Equal(end.AddDate(0, 0, 7)) {
		t.Errorf("Forward = %v..%v", got.Start, got.End)
	}
	back := Backward(got)
	if !back.Start.Equal(start) || !back.End.Equal(end) {
		t.Errorf("Backward(Forward) = %v..%v, want %v..%v", back.Start, back.End, start, end)
	}
}

func TestWeek(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name      string
		year      int
		week      int
		fdow      int
		wantStart time.Time
	}{
		{"iso week 1 2024 monday first", 2024, 1, calmath.Monday, time.Date(2024, 1, 1, 0, 0, 0, 0, loc)},
		{"iso week 1 2021 starts in 2021", 2021, 1, calmath.Monday, time.Date(2021, 1, 4, 0, 0, 0, 0, loc)},
		{"iso week 1 2020 starts in 2019", 2020, 1, calmath.Monday, time.Date(2019, 12, 30, 0, 0, 0, 0, loc)},
		{"sunday first snaps back", 2024, 10, calmath.Sunday, time.Date(2024, 3, 3, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Week(tt.year, tt.week, loc, tt.fdow)
			if !start.Equal(tt.wantStart) {
				t.Errorf("Week(%d, %d) start = %v, want %v", tt.year, tt.week, start, tt.wantStart)
			}
			if n := calmath.DaysInclusive(start, end, loc); n != 7 {
				t.Errorf("Week(%d, %d) spans %d days, want 7", tt.year, tt.week, n)
			}
		})
	}
}
