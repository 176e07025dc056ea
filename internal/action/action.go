// Package action defines context actions offered on calendar slots and items.
package action

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cpuguy83/calview/internal/calendar"
)

// Action is a context-menu entry. Actions are compared by value, so two
// providers returning equal actions share one client key.
type Action struct {
	// ID identifies the action to the provider that created it.
	ID string

	// Caption is the label shown to the user.
	Caption string

	// Icon is an optional icon resource name.
	Icon string
}

// DateRange is the slot an action set applies to: one half hour in day and
// week views, one whole day in month view.
type DateRange struct {
	StartMillis int64
	EndMillis   int64
	TZ          string
}

// NewDateRange builds the key for [start, end] in loc.
func NewDateRange(start, end time.Time, loc *time.Location) DateRange {
	return DateRange{
		StartMillis: start.UnixMilli(),
		EndMillis:   end.UnixMilli(),
		TZ:          loc.String(),
	}
}

// Bounds returns the range endpoints in loc.
func (r DateRange) Bounds(loc *time.Location) (start, end time.Time) {
	return time.UnixMilli(r.StartMillis).In(loc), time.UnixMilli(r.EndMillis).In(loc)
}

// Target is what an action was invoked on: an item, or an empty slot
// identified by its start time.
type Target struct {
	Item *calendar.Event
	Time time.Time
}

// Provider supplies actions for slots and handles their invocation.
type Provider interface {
	// Actions returns the actions available in r, or nil for none.
	Actions(r DateRange) []Action

	// HandleAction is called for every invocation of an action. Providers
	// ignore actions they did not create.
	HandleAction(ctx context.Context, a Action, target Target)
}

// Mapper assigns stable string keys to actions for the client.
type Mapper struct {
	mu    sync.Mutex
	next  int
	keys  map[Action]string
	byKey map[string]Action
}

// Key returns the key for a, allocating one on first use.
func (m *Mapper) Key(a Action) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys == nil {
		m.keys = make(map[Action]string)
		m.byKey = make(map[string]Action)
	}
	if k, ok := m.keys[a]; ok {
		return k
	}
	m.next++
	k := strconv.Itoa(m.next)
	m.keys[a] = k
	m.byKey[k] = a
	return k
}

// Get resolves a key previously returned by Key.
func (m *Mapper) Get(key string) (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byKey[key]
	return a, ok
}

// Reset forgets every key.
func (m *Mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys = nil
	m.byKey = nil
	m.next = 0
}
