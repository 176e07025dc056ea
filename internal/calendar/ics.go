package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/emersion/go-ical"
)

// ICSSource fetches events from an ICS/iCal URL.
type ICSSource struct {
	name     string
	url      string
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS calendar source.
func NewICSSource(name, url, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the display name of this calendar source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves the feed and returns the events intersecting [start, end].
func (s *ICSSource) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Add basic auth if credentials provided
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}

	return ParseICS(resp.Body, s.name, start, end)
}

// ParseICS decodes every calendar in r and returns the events, recurrences
// expanded, that intersect [start, end].
func ParseICS(r io.Reader, source string, start, end time.Time) ([]Event, error) {
	dec := ics.NewDecoder(r)

	var events []Event
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}
		events = append(events, calendarEvents(cal, source, start, end)...)
	}

	return events, nil
}

// calendarEvents extracts the VEVENTs of cal that intersect [start, end].
func calendarEvents(cal *ics.Calendar, source string, start, end time.Time) []Event {
	var events []Event
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}

		parsed, err := parseEvent(comp, source, start, end)
		if err != nil {
			slog.Debug("skipping event", "source", source, "error", err)
			continue
		}

		for _, event := range parsed {
			if event.Overlaps(start, end) {
				events = append(events, event)
			}
		}
	}
	return events
}

// parseEvent converts an ICS VEVENT component to our Event type.
// For recurring events, it expands occurrences within [start, end].
func parseEvent(comp *ics.Component, source string, start, end time.Time) ([]Event, error) {
	base := Event{
		Source:    source,
		Clickable: true,
	}

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		base.UID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		base.Summary = prop.Value
	}
	if prop := comp.Props.Get(ics.PropDescription); prop != nil {
		base.Description = prop.Value
	}
	if prop := comp.Props.Get(ics.PropLocation); prop != nil {
		base.Location = prop.Value
	}
	if prop := comp.Props.Get(ics.PropURL); prop != nil {
		base.URL = prop.Value
	}
	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		base.Organizer = prop.Value
		// Strip "mailto:" prefix if present
		if len(base.Organizer) > 7 && base.Organizer[:7] == "mailto:" {
			base.Organizer = base.Organizer[7:]
		}
	}

	var startTime time.Time
	var isAllDay bool
	if prop := comp.Props.Get(ics.PropDateTimeStart); prop != nil {
		t, dateOnly, err := parseTimeProp(prop)
		if err != nil {
			return nil, fmt.Errorf("parse start time: %w", err)
		}
		startTime, isAllDay = t, dateOnly
	}

	duration := time.Hour
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, _, err := parseTimeProp(prop)
		if err != nil {
			return nil, fmt.Errorf("parse end time: %w", err)
		}
		duration = t.Sub(startTime)
	} else if prop := comp.Props.Get(ics.PropDuration); prop != nil {
		d, err := prop.Duration()
		if err != nil {
			return nil, fmt.Errorf("parse duration: %w", err)
		}
		duration = d
	}

	rset, err := comp.RecurrenceSet(time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence: %w", err)
	}

	if rset == nil {
		base.Start = startTime
		base.End = startTime.Add(duration)
		base.AllDay = isAllDay || isEffectivelyAllDay(base.Start, base.End)
		return []Event{base}, nil
	}

	// Look back by duration to catch occurrences that started before the
	// window but are still running inside it.
	occurrences := rset.Between(start.Add(-duration), end, true)

	events := make([]Event, 0, len(occurrences))
	for _, occ := range occurrences {
		event := base
		event.Start = occ
		event.End = occ.Add(duration)
		event.AllDay = isAllDay || isEffectivelyAllDay(event.Start, event.End)
		// Make UID unique per occurrence
		event.UID = fmt.Sprintf("%s_%d", base.UID, occ.Unix())
		events = append(events, event)
	}

	return events, nil
}

// parseTimeProp parses a DTSTART/DTEND value. Values without a zone
// ("floating" time) are read in the local zone. dateOnly is set for
// DATE values.
func parseTimeProp(prop *ics.Prop) (t time.Time, dateOnly bool, err error) {
	if prop.Params.Get(ics.ParamValue) == string(ics.ValueDate) {
		t, err = parseDateOnly(prop.Value)
		return t, true, err
	}
	if t, err = prop.DateTime(time.Local); err == nil {
		return t, false, nil
	}
	if t, err = parseDateTime(prop.Value); err == nil {
		return t, false, nil
	}
	t, err = parseDateOnly(prop.Value)
	return t, err == nil, err
}

// isEffectivelyAllDay reports whether an event runs from midnight to a later
// midnight, which some servers use instead of DATE values.
func isEffectivelyAllDay(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	return isMidnight(start) && isMidnight(end)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// parseDateOnly parses a date-only value (YYYYMMDD format).
func parseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// parseDateTime parses a datetime value without timezone (YYYYMMDDTHHmmss format).
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("20060102T150405", s, time.Local)
}

var _ Source = (*ICSSource)(nil)
