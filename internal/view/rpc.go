package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/nav"
	"github.com/cpuguy83/calview/internal/wire"
)

// Handlers react to decoded client events. A nil handler ignores the event.
type Handlers struct {
	Forward     func(c *Calendar)
	Backward    func(c *Calendar)
	DateClick   func(c *Calendar, day time.Time)
	WeekClick   func(c *Calendar, year, week int)
	ItemClick   func(c *Calendar, ev calendar.Event)
	RangeSelect func(c *Calendar, sel wire.RangeSelect)

	// ItemMove and ItemResize run after the item provider, when it
	// supports the edit, has been told about it.
	ItemMove   func(ctx context.Context, c *Calendar, ev calendar.Event, newStart time.Time)
	ItemResize func(ctx context.Context, c *Calendar, ev calendar.Event, newStart, newEnd time.Time)
}

// DefaultHandlers page with Forward and Backward, open the clicked day in
// day view and the clicked week in week view.
func DefaultHandlers() Handlers {
	return Handlers{
		Forward: func(c *Calendar) {
			p := nav.Forward(c.page())
			c.SetRange(p.Start, p.End)
		},
		Backward: func(c *Calendar) {
			p := nav.Backward(c.page())
			c.SetRange(p.Start, p.End)
		},
		DateClick: func(c *Calendar, day time.Time) {
			c.SetRange(nav.Day(day, c.loc))
		},
		WeekClick: func(c *Calendar, year, week int) {
			c.SetRange(nav.Week(year, week, c.loc, c.FirstDayOfWeek()))
		},
	}
}

// SetHandlers replaces the event handlers.
func (c *Calendar) SetHandlers(h Handlers) {
	c.handlers = h
}

// Handlers returns the installed event handlers.
func (c *Calendar) Handlers() Handlers {
	return c.handlers
}

// ItemMove applies a client drag of item index to the start encoded in value.
func (c *Calendar) ItemMove(ctx context.Context, index int, value string) {
	if c.disabled {
		return
	}
	m, ok := wire.DecodeItemMove(index, value, len(c.events), c.loc)
	if !ok {
		return
	}
	ev := c.events[m.Index]

	if c.source != nil && c.source.mover != nil {
		if err := c.source.mover.MoveItem(ctx, ev, m.Start); err != nil {
			slog.Warn("failed to move item", "source", c.source.Name(), "uid", ev.UID, "error", err)
		}
	}
	if c.handlers.ItemMove != nil {
		c.handlers.ItemMove(ctx, c, ev, m.Start)
	}
	c.markDirty()
}

// ItemResize applies a client resize of item index.
func (c *Calendar) ItemResize(ctx context.Context, index int, start, end string) {
	if c.disabled {
		return
	}
	r, ok := wire.DecodeItemResize(index, start, end, len(c.events), c.loc)
	if !ok {
		return
	}
	ev := c.events[r.Index]

	if c.source != nil && c.source.resizer != nil {
		if err := c.source.resizer.ResizeItem(ctx, ev, r.Start, r.End); err != nil {
			slog.Warn("failed to resize item", "source", c.source.Name(), "uid", ev.UID, "error", err)
		}
	}
	if c.handlers.ItemResize != nil {
		c.handlers.ItemResize(ctx, c, ev, r.Start, r.End)
	}
	c.markDirty()
}

// RangeSelect reports a selection of days or of a span within a day.
func (c *Calendar) RangeSelect(value string) {
	if c.disabled {
		return
	}
	sel, ok := wire.DecodeRangeSelect(value, c.loc)
	if !ok || c.handlers.RangeSelect == nil {
		return
	}
	c.handlers.RangeSelect(c, sel)
}

// Forward pages forward.
func (c *Calendar) Forward() {
	if c.handlers.Forward != nil {
		c.handlers.Forward(c)
	}
}

// Backward pages backward.
func (c *Calendar) Backward() {
	if c.handlers.Backward != nil {
		c.handlers.Backward(c)
	}
}

// DateClick reports a click on a day caption.
func (c *Calendar) DateClick(value string) {
	day, ok := wire.DecodeDateClick(value, c.loc)
	if !ok || c.handlers.DateClick == nil {
		return
	}
	c.handlers.DateClick(c, day)
}

// WeekClick reports a click on a week number.
func (c *Calendar) WeekClick(value string) {
	w, ok := wire.DecodeWeekClick(value)
	if !ok || c.handlers.WeekClick == nil {
		return
	}
	c.handlers.WeekClick(c, w.Year, w.Week)
}

// ItemClick reports a click on item index.
func (c *Calendar) ItemClick(index int) {
	ev, ok := c.item(index)
	if !ok || c.handlers.ItemClick == nil {
		return
	}
	c.handlers.ItemClick(c, ev)
}

// Scroll records the client's scroll position so it survives re-renders.
func (c *Calendar) Scroll(position int) {
	c.scrollTop = position
}

// ActionOnEmptyCell invokes the action with key on the slot starting at start.
func (c *Calendar) ActionOnEmptyCell(ctx context.Context, key, start, end string) {
	a, ok := c.mapper.Get(key)
	if !ok {
		slog.Debug("dropping action", "key", key, "reason", "unknown key")
		return
	}
	t, ok := wire.DecodeActionDate(start, c.loc)
	if !ok {
		return
	}
	c.dispatchAction(ctx, a, action.Target{Time: t})
}

// ActionOnItem invokes the action with key on item index.
func (c *Calendar) ActionOnItem(ctx context.Context, key, start, end string, index int) {
	a, ok := c.mapper.Get(key)
	if !ok {
		slog.Debug("dropping action", "key", key, "reason", "unknown key")
		return
	}
	ev, ok := c.item(index)
	if !ok {
		slog.Debug("dropping action", "key", key, "index", index, "reason", "index out of range")
		return
	}
	c.dispatchAction(ctx, a, action.Target{Item: &ev})
}

func (c *Calendar) dispatchAction(ctx context.Context, a action.Action, target action.Target) {
	for _, p := range c.providers {
		p.HandleAction(ctx, a, target)
	}
}

// TranslateDrop resolves a drop position reported by the client. Slot drops
// count from midnight of the range start; day drops from the first day of
// its week.
func (c *Calendar) TranslateDrop(d wire.DropDetails) wire.DropTarget {
	start, _ := c.visibleRange()
	fdow := c.FirstDayOfWeek()
	slotBase := calmath.StartOfDay(start, c.loc)
	dayBase := calmath.StartOfDay(calmath.FirstDateOfWeek(start, c.loc, fdow), c.loc)
	return wire.TranslateDrop(d, slotBase, dayBase)
}
