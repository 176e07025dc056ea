// Package calendar provides the item model, the item provider contract and
// the concrete providers (ICS feeds, ICS files, CalDAV and in-memory).
package calendar

import (
	"context"
	"time"
)

// Event represents a schedulable calendar item.
type Event struct {
	// UID is the unique identifier for this event.
	UID string

	// Summary is the event title, rendered as the item caption.
	Summary string

	// Description is the full event description/body.
	Description string

	// Location is the event location (may contain meeting URLs).
	Location string

	// Start is when the event begins.
	Start time.Time

	// End is when the event ends.
	End time.Time

	// AllDay indicates this is an all-day event.
	AllDay bool

	// Organizer is the email of the event organizer.
	Organizer string

	// Source is the name of the calendar source this event came from.
	Source string

	// URL is a URL associated with the event (if any).
	URL string

	// Style is an opaque style name handed to the rendering client.
	Style string

	// Moveable, Resizeable and Clickable tell the client which edits it may offer.
	Moveable   bool
	Resizeable bool
	Clickable  bool
}

// Duration returns the duration of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsOngoing returns true if the event is currently happening.
func (e *Event) IsOngoing(now time.Time) bool {
	return now.After(e.Start) && now.Before(e.End)
}

// IsUpcoming returns true if the event starts within the given duration.
func (e *Event) IsUpcoming(now time.Time, within time.Duration) bool {
	until := e.Start.Sub(now)
	return until > 0 && until <= within
}

// StartsIn returns how long until the event starts (negative if already started).
func (e *Event) StartsIn(now time.Time) time.Duration {
	return e.Start.Sub(now)
}

// Overlaps reports whether the event intersects [start, end].
// A zero-length event at start counts as overlapping.
func (e *Event) Overlaps(start, end time.Time) bool {
	if e.End.Equal(e.Start) {
		return !e.Start.Before(start) && !e.Start.After(end)
	}
	return e.End.After(start) && !e.Start.After(end)
}

// Source is the item provider contract.
type Source interface {
	// Name returns the display name of this calendar source.
	Name() string

	// Fetch retrieves the events intersecting [start, end].
	Fetch(ctx context.Context, start, end time.Time) ([]Event, error)
}

// Notifier is implemented by sources that can tell when their item set changed.
type Notifier interface {
	// Subscribe registers fn to be called after every change. The returned
	// function removes the subscription.
	Subscribe(fn func()) (cancel func())
}

// Mover is implemented by sources that accept item moves from the client.
type Mover interface {
	MoveItem(ctx context.Context, ev Event, newStart time.Time) error
}

// Resizer is implemented by sources that accept item resizes from the client.
type Resizer interface {
	ResizeItem(ctx context.Context, ev Event, newStart, newEnd time.Time) error
}
