package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySource is an editable in-memory source. Moves and resizes are
// applied directly and announced to subscribers.
type MemorySource struct {
	Subscribers

	name string

	mu     sync.RWMutex
	events []Event
}

// NewMemorySource creates a source holding a copy of events.
func NewMemorySource(name string, events ...Event) *MemorySource {
	s := &MemorySource{name: name}
	for _, ev := range events {
		s.events = append(s.events, s.prepare(ev))
	}
	return s
}

// Name returns the display name of this calendar source.
func (s *MemorySource) Name() string {
	return s.name
}

func (s *MemorySource) prepare(ev Event) Event {
	if ev.UID == "" {
		ev.UID = uuid.NewString()
	}
	if ev.Source == "" {
		ev.Source = s.name
	}
	return ev
}

// Add stores ev, assigning a UID when it has none, and returns the stored copy.
func (s *MemorySource) Add(ev Event) Event {
	ev = s.prepare(ev)

	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()

	s.Notify()
	return ev
}

// Remove deletes the event with the given UID.
func (s *MemorySource) Remove(uid string) bool {
	s.mu.Lock()
	i := s.indexLocked(uid)
	if i >= 0 {
		s.events = append(s.events[:i], s.events[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		return false
	}
	s.Notify()
	return true
}

// Fetch returns the stored events intersecting [start, end] in insertion order.
func (s *MemorySource) Fetch(_ context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if ev.Overlaps(start, end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// MoveItem shifts the event to newStart keeping its duration.
func (s *MemorySource) MoveItem(ctx context.Context, ev Event, newStart time.Time) error {
	return s.ResizeItem(ctx, ev, newStart, newStart.Add(ev.Duration()))
}

// ResizeItem sets the event's start and end.
func (s *MemorySource) ResizeItem(_ context.Context, ev Event, newStart, newEnd time.Time) error {
	s.mu.Lock()
	i := s.indexLocked(ev.UID)
	if i >= 0 {
		s.events[i].Start = newStart
		s.events[i].End = newEnd
	}
	s.mu.Unlock()

	if i < 0 {
		return fmt.Errorf("event %s: %w", ev.UID, ErrUnknownEvent)
	}
	s.Notify()
	return nil
}

func (s *MemorySource) indexLocked(uid string) int {
	for i := range s.events {
		if s.events[i].UID == uid {
			return i
		}
	}
	return -1
}

var (
	_ Source   = (*MemorySource)(nil)
	_ Notifier = (*MemorySource)(nil)
	_ Mover    = (*MemorySource)(nil)
	_ Resizer  = (*MemorySource)(nil)
)
