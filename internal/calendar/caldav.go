package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	ics "github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

var (
	// ErrUnknownEvent is returned when an edit targets an event the source
	// did not serve in its last fetch.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrRecurringEvent is returned when an edit targets an occurrence of a
	// recurring event.
	ErrRecurringEvent = errors.New("recurring events cannot be rescheduled")
)

// CalDAVSource fetches events from a CalDAV server and writes moves and
// resizes back to it.
type CalDAVSource struct {
	Subscribers

	name      string
	url       string
	username  string
	password  string
	calendars []string // Optional: specific calendars to sync

	mu      sync.Mutex
	objects map[string]string // event UID -> object path, from the last fetch
}

// NewCalDAVSource creates a new CalDAV calendar source.
func NewCalDAVSource(name, url, username, password string, calendars []string) *CalDAVSource {
	return &CalDAVSource{
		name:      name,
		url:       url,
		username:  username,
		password:  password,
		calendars: calendars,
		objects:   make(map[string]string),
	}
}

// iCloudCalDAVURL is the base URL for iCloud CalDAV.
const iCloudCalDAVURL = "https://caldav.icloud.com"

// NewICloudSource creates a new iCloud calendar source.
// iCloud uses CalDAV with a specific server URL.
func NewICloudSource(name, username, password string, calendars []string) *CalDAVSource {
	return NewCalDAVSource(name, iCloudCalDAVURL, username, password, calendars)
}

// Name returns the display name of this calendar source.
func (s *CalDAVSource) Name() string {
	return s.name
}

func (s *CalDAVSource) client() (*caldav.Client, error) {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, s.url)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}
	return client, nil
}

// Fetch retrieves the events intersecting [start, end] from every selected calendar.
func (s *CalDAVSource) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var allEvents []Event
	objects := make(map[string]string)

	for _, cal := range cals {
		if len(s.calendars) > 0 && !s.shouldSyncCalendar(cal.Name) {
			continue
		}

		events, err := s.fetchCalendarEvents(ctx, client, cal, start, end, objects)
		if err != nil {
			slog.Warn("failed to fetch calendar", "source", s.name, "calendar", cal.Name, "error", err)
			continue
		}

		allEvents = append(allEvents, events...)
	}

	s.mu.Lock()
	s.objects = objects
	s.mu.Unlock()

	return allEvents, nil
}

// shouldSyncCalendar checks if a calendar should be synced based on config.
func (s *CalDAVSource) shouldSyncCalendar(name string) bool {
	for _, c := range s.calendars {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// fetchCalendarEvents fetches the events of a single calendar and records
// the object path of every one-off event in objects.
func (s *CalDAVSource) fetchCalendarEvents(ctx context.Context, client *caldav.Client, cal caldav.Calendar, start, end time.Time, objects map[string]string) ([]Event, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name: "VEVENT",
				Props: []string{
					"SUMMARY",
					"DTSTART",
					"DTEND",
					"DURATION",
					"RRULE",
					"RDATE",
					"EXDATE",
					"UID",
					"DESCRIPTION",
					"LOCATION",
					"URL",
					"ORGANIZER",
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start,
				End:   end,
			}},
		},
	}

	objs, err := client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", cal.Name, err)
	}

	source := fmt.Sprintf("%s/%s", s.name, cal.Name)

	var events []Event
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}

		for _, event := range calendarEvents(obj.Data, source, start, end) {
			if !isRecurring(obj.Data) {
				event.Moveable = true
				event.Resizeable = true
				objects[event.UID] = obj.Path
			}
			events = append(events, event)
		}
	}

	return events, nil
}

// MoveItem shifts the event to newStart keeping its duration.
func (s *CalDAVSource) MoveItem(ctx context.Context, ev Event, newStart time.Time) error {
	return s.reschedule(ctx, ev, newStart, newStart.Add(ev.Duration()))
}

// ResizeItem changes the event's start and end.
func (s *CalDAVSource) ResizeItem(ctx context.Context, ev Event, newStart, newEnd time.Time) error {
	return s.reschedule(ctx, ev, newStart, newEnd)
}

// reschedule rewrites DTSTART/DTEND of the stored object and PUTs it back.
func (s *CalDAVSource) reschedule(ctx context.Context, ev Event, start, end time.Time) error {
	s.mu.Lock()
	path, ok := s.objects[ev.UID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("event %s: %w", ev.UID, ErrUnknownEvent)
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	obj, err := client.GetCalendarObject(ctx, path)
	if err != nil {
		return fmt.Errorf("get event %s: %w", ev.UID, err)
	}
	if isRecurring(obj.Data) {
		return fmt.Errorf("event %s: %w", ev.UID, ErrRecurringEvent)
	}

	for _, comp := range obj.Data.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		delete(comp.Props, ics.PropDuration)
		if ev.AllDay {
			comp.Props.SetDate(ics.PropDateTimeStart, start)
			comp.Props.SetDate(ics.PropDateTimeEnd, end)
		} else {
			comp.Props.SetDateTime(ics.PropDateTimeStart, start.UTC())
			comp.Props.SetDateTime(ics.PropDateTimeEnd, end.UTC())
		}
		comp.Props.SetDateTime(ics.PropDateTimeStamp, time.Now().UTC())
	}

	if _, err := client.PutCalendarObject(ctx, path, obj.Data); err != nil {
		return fmt.Errorf("update event %s: %w", ev.UID, err)
	}

	slog.Info("rescheduled event", "source", s.name, "uid", ev.UID, "start", start, "end", end)
	s.Notify()
	return nil
}

func isRecurring(cal *ics.Calendar) bool {
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		if comp.Props.Get(ics.PropRecurrenceRule) != nil || comp.Props.Get(ics.PropRecurrenceDates) != nil {
			return true
		}
	}
	return false
}

// basicAuthTransport adds basic auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

var (
	_ Source   = (*CalDAVSource)(nil)
	_ Notifier = (*CalDAVSource)(nil)
	_ Mover    = (*CalDAVSource)(nil)
	_ Resizer  = (*CalDAVSource)(nil)
)
