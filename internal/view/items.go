package view

import (
	"time"

	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/wire"
)

// ItemView is the client projection of one event. Index is the event's
// position in the provider's result and is how the client refers to it.
type ItemView struct {
	Index       int    `json:"index"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	TimeFrom    string `json:"timeFrom"`
	TimeTo      string `json:"timeTo"`
	StyleName   string `json:"styleName"`
	AllDay      bool   `json:"allDay"`
	Moveable    bool   `json:"moveable"`
	Resizeable  bool   `json:"resizeable"`
	Clickable   bool   `json:"clickable"`
}

// MinuteBounds is the earliest start and latest end minute-of-day across a
// set of events.
type MinuteBounds struct {
	Min int
	Max int
}

// PlaceItems projects events in the order given. ok is false when events is
// empty, in which case bounds is meaningless.
func PlaceItems(events []calendar.Event, loc *time.Location) (items []ItemView, bounds MinuteBounds, ok bool) {
	items = make([]ItemView, 0, len(events))
	for i, ev := range events {
		start, end := ev.Start.In(loc), ev.End.In(loc)
		items = append(items, ItemView{
			Index:       i,
			Caption:     ev.Summary,
			Description: ev.Description,
			DateFrom:    start.Format(wire.DateLayout),
			DateTo:      end.Format(wire.DateLayout),
			TimeFrom:    start.Format(wire.TimeLayout),
			TimeTo:      end.Format(wire.TimeLayout),
			StyleName:   ev.Style,
			AllDay:      ev.AllDay,
			Moveable:    ev.Moveable,
			Resizeable:  ev.Resizeable,
			Clickable:   ev.Clickable,
		})

		startMin := calmath.MinuteOfDay(start, loc)
		endMin := calmath.MinuteOfDay(end, loc)
		if !ok {
			bounds = MinuteBounds{Min: startMin, Max: endMin}
			ok = true
			continue
		}
		bounds.Min = min(bounds.Min, startMin)
		bounds.Max = max(bounds.Max, endMin)
	}
	return items, bounds, ok
}

// minuteCache remembers the bounds of the last non-empty item set.
type minuteCache struct {
	bounds MinuteBounds
	ok     bool
}

// observe records bounds when ok is set. An empty item set never clears
// the cache; callers reset it explicitly.
func (c *minuteCache) observe(bounds MinuteBounds, ok bool) {
	if ok {
		c.bounds, c.ok = bounds, true
	}
}

func (c *minuteCache) reset() {
	*c = minuteCache{}
}

// hours converts the cached bounds to visible hours. The final hour is
// left out when the last item ends exactly on it.
func (c *minuteCache) hours() (first, last int, ok bool) {
	if !c.ok {
		return 0, 0, false
	}
	first = c.bounds.Min / 60
	last = max((c.bounds.Max-1)/60, first)
	return first, last, true
}
