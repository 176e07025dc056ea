package links

import (
	"context"
	"testing"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calendar"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		ev   calendar.Event
		want string
	}{
		{
			name: "zoom in location",
			ev:   calendar.Event{Location: "Zoom: https://example.zoom.us/j/123456?pwd=abc"},
			want: "https://example.zoom.us/j/123456?pwd=abc",
		},
		{
			name: "known service beats earlier generic url",
			ev:   calendar.Event{Description: "Agenda https://wiki.example.com/x then https://meet.google.com/abc-defg-hij"},
			want: "https://meet.google.com/abc-defg-hij",
		},
		{
			name: "location before description",
			ev:   calendar.Event{Location: "https://example.com/room", Description: "https://meet.google.com/abc"},
			want: "https://example.com/room",
		},
		{
			name: "explicit meeting url wins",
			ev:   calendar.Event{URL: "https://teams.microsoft.com/l/meetup-join/19%3ameeting", Location: "https://meet.google.com/abc"},
			want: "https://teams.microsoft.com/l/meetup-join/19%3ameeting",
		},
		{
			name: "non-meeting url field ignored",
			ev:   calendar.Event{URL: "https://example.com/event", Description: "https://acme.webex.com/meet/bob"},
			want: "https://acme.webex.com/meet/bob",
		},
		{
			name: "nothing",
			ev:   calendar.Event{Location: "Room 4"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.ev); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://us02web.zoom.us/j/987", "Zoom"},
		{"https://meet.google.com/xyz-abcd-efg", "Meet"},
		{"https://example.com", ""},
	}
	for _, tt := range tests {
		if got := Service(tt.url); got != tt.want {
			t.Errorf("Service(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestProvider(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	events := []calendar.Event{
		{Summary: "Sync", Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour), Location: "https://meet.google.com/abc"},
		{Summary: "Offsite", Start: day, End: day.Add(24 * time.Hour), AllDay: true, Location: "https://meet.google.com/allday"},
		{Summary: "Lunch", Start: day.Add(12 * time.Hour), End: day.Add(13 * time.Hour)},
	}

	var opened []string
	p := NewProvider(func() []calendar.Event { return events }, func(url string) error {
		opened = append(opened, url)
		return nil
	})

	slot := func(h, m int) action.DateRange {
		start := day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		return action.NewDateRange(start, start.Add(30*time.Minute), time.UTC)
	}

	if got := p.Actions(slot(10, 30)); len(got) != 1 || got[0] != Join {
		t.Errorf("Actions(10:30) = %v", got)
	}
	if got := p.Actions(slot(11, 0)); got != nil {
		t.Errorf("Actions(11:00) = %v, want none after the meeting ends", got)
	}
	if got := p.Actions(slot(12, 0)); got != nil {
		t.Errorf("Actions(12:00) = %v, want none for a meeting without link", got)
	}

	ctx := context.Background()
	p.HandleAction(ctx, Join, action.Target{Time: day.Add(10 * time.Hour)})
	p.HandleAction(ctx, Join, action.Target{Item: &events[0]})
	p.HandleAction(ctx, Join, action.Target{Time: day.Add(15 * time.Hour)})
	p.HandleAction(ctx, action.Action{ID: "other"}, action.Target{Item: &events[0]})

	if len(opened) != 2 || opened[0] != "https://meet.google.com/abc" || opened[1] != opened[0] {
		t.Errorf("opened = %v", opened)
	}
}
