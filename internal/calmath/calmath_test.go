package calmath

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestWeekBoundsContainDate(t *testing.T) {
	locs := []*time.Location{time.UTC}
	if ny, err := time.LoadLocation("America/New_York"); err == nil {
		locs = append(locs, ny)
	}

	start := time.Date(2023, 12, 20, 15, 30, 0, 0, time.UTC)
	for _, loc := range locs {
		for i := 0; i < 120; i++ {
			d := start.AddDate(0, 0, i).In(loc)
			for fdow := Sunday; fdow <= Saturday; fdow++ {
				first := FirstDateOfWeek(d, loc, fdow)
				last := LastDateOfWeek(d, loc, fdow)

				if first.After(d) || last.Before(d) {
					t.Fatalf("%s fdow=%d: %v not within [%v, %v]", loc, fdow, d, first, last)
				}
				if got := DayOfWeek(first, loc); got != fdow {
					t.Errorf("FirstDateOfWeek(%v, %d) is day %d", d, fdow, got)
				}
				if got := LocalizedDayOfWeek(last, loc, fdow); got != 7 {
					t.Errorf("LastDateOfWeek(%v, %d) localized day = %d, want 7", d, fdow, got)
				}
				if n := DaysInclusive(first, last, loc); n != 7 {
					t.Errorf("week of %v with fdow=%d spans %d days", d, fdow, n)
				}
			}
		}
	}
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		dow, fdow, want int
	}{
		{Monday, Monday, 1},
		{Sunday, Monday, 7},
		{Saturday, Monday, 6},
		{Sunday, Sunday, 1},
		{Saturday, Sunday, 7},
		{Saturday, Saturday, 1},
		{Friday, Saturday, 7},
	}
	for _, tt := range tests {
		if got := Localize(tt.dow, tt.fdow); got != tt.want {
			t.Errorf("Localize(%d, %d) = %d, want %d", tt.dow, tt.fdow, got, tt.want)
		}
	}
}

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	at := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) // still May 31 in loc

	start := StartOfDay(at, loc)
	if want := time.Date(2024, 5, 31, 0, 0, 0, 0, loc); !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
	end := EndOfDay(at, loc)
	if want := time.Date(2024, 5, 31, 23, 59, 59, int(999*time.Millisecond), loc); !end.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", end, want)
	}
	if got := MinuteOfDay(at, loc); got != 21*60 {
		t.Errorf("MinuteOfDay = %d, want %d", got, 21*60)
	}
}

func TestDaysInclusiveAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-03-31 is 23 hours long in Berlin.
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, loc)
	end := EndOfDay(time.Date(2024, 4, 1, 0, 0, 0, 0, loc), loc)

	if got := DaysInclusive(start, end, loc); got != 3 {
		t.Errorf("DaysInclusive = %d, want 3", got)
	}
	if got := DaysInclusive(end, start, loc); got >= 1 {
		t.Errorf("DaysInclusive(reversed) = %d, want < 1", got)
	}
}

func TestISOWeekStart(t *testing.T) {
	tests := []struct {
		year, week int
		want       time.Time
	}{
		{2024, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{2020, 53, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC)},
		{2027, 1, time.Date(2027, 1, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := ISOWeekStart(tt.year, tt.week, time.UTC)
		if !got.Equal(tt.want) {
			t.Errorf("ISOWeekStart(%d, %d) = %v, want %v", tt.year, tt.week, got, tt.want)
		}
		y, w := ISOWeek(got, time.UTC)
		if y != tt.year || w != tt.week {
			t.Errorf("ISOWeek(ISOWeekStart(%d, %d)) = %d, %d", tt.year, tt.week, y, w)
		}
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("AddDays(2) = %s, want 2024-03-01", got)
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Error("Before is inconsistent")
	}
	if EveryDay.String() != "*" || !EveryDay.IsZero() {
		t.Errorf("EveryDay = %q", EveryDay.String())
	}
	if _, err := ParseDate("28.02.2024"); err == nil {
		t.Error("ParseDate accepted a foreign layout")
	}
}

func TestFirstDayOfWeekFor(t *testing.T) {
	tests := []struct {
		tag  string
		want int
	}{
		{"en-US", Sunday},
		{"en-GB", Monday},
		{"de-DE", Monday},
		{"fi-FI", Monday},
		{"ar-EG", Saturday},
		{"ja-JP", Sunday},
	}
	for _, tt := range tests {
		if got := FirstDayOfWeekFor(language.MustParse(tt.tag)); got != tt.want {
			t.Errorf("FirstDayOfWeekFor(%s) = %d, want %d", tt.tag, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	days := DayNames(language.AmericanEnglish)
	if len(days) != 7 || days[0] != "Sunday" || days[6] != "Saturday" {
		t.Errorf("DayNames(en-US) = %v", days)
	}
	months := MonthNames(language.AmericanEnglish)
	if len(months) != 12 || months[0] != "Jan" || months[11] != "Dec" {
		t.Errorf("MonthNames(en-US) = %v", months)
	}
	if got := FormatCaption(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "Monday 2", language.German); got != "Montag 15" {
		t.Errorf("FormatCaption(de) = %q, want %q", got, "Montag 15")
	}
}
