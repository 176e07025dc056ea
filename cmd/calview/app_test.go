package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/config"
	"github.com/cpuguy83/calview/internal/view"
)

func TestBuildCalendar(t *testing.T) {
	cfg, err := config.Parse([]byte(`
view:
  timezone: UTC
  locale: de-DE
  first_day_of_week: sunday
  start: "2024-01-01"
  end: "2024-01-03"
  first_hour: 8
  last_hour: 18
  sort_order: start-asc
  time_format: 12h
blocked:
  - from: "12:00"
    to: "13:00"
`))
	if err != nil {
		t.Fatal(err)
	}

	cal, err := buildCalendar(cfg, calendar.NewMemorySource("mem"))
	if err != nil {
		t.Fatal(err)
	}
	if got := cal.FirstDayOfWeek(); got != calmath.Sunday {
		t.Errorf("FirstDayOfWeek() = %d, want Sunday", got)
	}
	if first, last := cal.VisibleHours(); first != 8 || last != 18 {
		t.Errorf("VisibleHours() = %d..%d", first, last)
	}
	if cal.TimeFormat() != view.TimeFormat12H {
		t.Errorf("TimeFormat() = %v", cal.TimeFormat())
	}

	if err := cal.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := cal.State()
	if len(st.Days) != 3 || st.Days[2].Date != "2024-01-03" {
		t.Fatalf("days = %+v", st.Days)
	}
	if got := st.Days[0].BlockedSlots; len(got) != 2 || got[0] != 24*view.SlotMillis {
		t.Errorf("blocked slots = %v", got)
	}
	if st.ItemSortOrder != view.SortStartAsc {
		t.Errorf("sort order = %v", st.ItemSortOrder)
	}
}

func TestBuildCalendarErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"timezone", "view:\n  timezone: Mars/Olympus\n"},
		{"locale", "view:\n  locale: \"!!\"\n"},
		{"first day", "view:\n  first_day_of_week: someday\n"},
		{"start", "view:\n  start: 2024/01/01\n  end: \"2024-01-02\"\n"},
		{"sort order", "view:\n  sort_order: random\n"},
		{"time format", "view:\n  time_format: 36h\n"},
		{"misaligned block", "blocked:\n  - from: \"12:15\"\n    to: \"13:00\"\n"},
		{"empty block", "blocked:\n  - from: \"13:00\"\n    to: \"13:00\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := buildCalendar(cfg, nil); err == nil {
				t.Error("buildCalendar() succeeded")
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	ics := filepath.Join(dir, "cal.ics")
	if err := os.WriteFile(ics, []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nBEGIN:VEVENT\r\nUID:1\r\nDTSTAMP:20240101T000000Z\r\nDTSTART:20240102T090000Z\r\nDTEND:20240102T100000Z\r\nSUMMARY:Planning\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("view:\n  timezone: UTC\n  locale: en-GB\nsources:\n  - name: local\n    type: file\n    path: "+ics+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "render", "--start", "2024-01-01", "--end", "2024-01-07"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var st view.State
	if err := json.Unmarshal(out.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Days) != 7 || st.Mode != view.ModeWeek {
		t.Errorf("rendered %d days in %v mode", len(st.Days), st.Mode)
	}
	if len(st.Items) != 1 || st.Items[0].Caption != "Planning" || st.Items[0].TimeFrom != "09:00:00" {
		t.Errorf("items = %+v", st.Items)
	}
}
