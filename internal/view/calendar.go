// Package view derives the renderable state of a calendar: the day grid,
// the item projection, the action map and the visible bounds, and applies
// the edits the client sends back.
//
// A Calendar is not safe for concurrent use. Callers serialize access; the
// only thing other goroutines may do is signal an item-set change through
// the source's Notifier.
package view

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/nav"
	"github.com/cpuguy83/calview/internal/wire"

	"golang.org/x/text/language"
)

// itemSource is an item provider with its optional capabilities resolved
// once when it is installed.
type itemSource struct {
	calendar.Source
	mover   calendar.Mover
	resizer calendar.Resizer
	cancel  func()
}

func newItemSource(src calendar.Source, onChange func()) *itemSource {
	s := &itemSource{Source: src, cancel: func() {}}
	if m, ok := src.(calendar.Mover); ok {
		s.mover = m
	}
	if r, ok := src.(calendar.Resizer); ok {
		s.resizer = r
	}
	if n, ok := src.(calendar.Notifier); ok {
		s.cancel = n.Subscribe(onChange)
	}
	return s
}

// Calendar is the state of one calendar view.
type Calendar struct {
	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time

	loc    *time.Location
	locale language.Tag

	start time.Time
	end   time.Time

	firstDayOfWeek  int // 0 when following the locale
	firstVisibleDay int
	lastVisibleDay  int
	firstHour       int
	lastHour        int

	captionLayout string
	sortOrder     SortOrder
	captionAsHTML bool
	timeFormat    TimeFormat
	scrollTop     int
	disabled      bool
	autoScale     bool

	blocked   BlockedTimes
	source    *itemSource
	providers []action.Provider
	mapper    action.Mapper
	handlers  Handlers

	cache minuteCache
	dirty atomic.Bool

	// Results of the last successful Recompute.
	computed bool
	grid     GridResult
	events   []calendar.Event
	items    []ItemView
	actions  []ActionView
	nowStamp string
}

// New returns a calendar showing the current week in the local zone with
// the default handlers installed. src may be nil.
func New(src calendar.Source) *Calendar {
	c := &Calendar{
		Now:             time.Now,
		loc:             time.Local,
		locale:          language.AmericanEnglish,
		firstVisibleDay: 1,
		lastVisibleDay:  7,
		firstHour:       0,
		lastHour:        23,
	}
	c.handlers = DefaultHandlers()
	if src != nil {
		c.SetItemSource(src)
	}
	c.dirty.Store(true)
	return c
}

func (c *Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Calendar) markDirty() {
	c.dirty.Store(true)
}

// Dirty reports whether anything changed since the last Recompute.
func (c *Calendar) Dirty() bool {
	return c.dirty.Load()
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// SetTimeZone sets the zone all dates are computed in. nil selects the local zone.
func (c *Calendar) SetTimeZone(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	if loc.String() != c.loc.String() {
		c.loc = loc
		c.markDirty()
	}
}

// Locale returns the calendar's locale.
func (c *Calendar) Locale() language.Tag {
	return c.locale
}

// SetLocale sets the locale used for captions, names, the default first
// day of week and the default time format.
func (c *Calendar) SetLocale(tag language.Tag) {
	if tag != c.locale {
		c.locale = tag
		c.markDirty()
	}
}

// Start returns the raw start of the visible range, or the zero time.
func (c *Calendar) Start() time.Time {
	return c.start
}

// End returns the raw end of the visible range, or the zero time.
func (c *Calendar) End() time.Time {
	return c.end
}

// SetStart sets the start of the visible range. A set end before the new
// start is raised to it.
func (c *Calendar) SetStart(t time.Time) {
	if !t.Equal(c.start) {
		c.start = t
		c.markDirty()
	}
	if !t.IsZero() && !c.end.IsZero() && c.end.Before(t) {
		c.end = t
	}
}

// SetEnd sets the end of the visible range. An end before the start is
// raised to the start.
func (c *Calendar) SetEnd(t time.Time) {
	if !c.start.IsZero() && t.Before(c.start) {
		t = c.start
	}
	if !t.Equal(c.end) {
		c.end = t
		c.markDirty()
	}
}

// SetRange sets both bounds. Two zero times select the current week.
func (c *Calendar) SetRange(start, end time.Time) {
	c.SetStart(start)
	c.SetEnd(end)
}

// visibleRange returns the raw range with the current-week default applied.
func (c *Calendar) visibleRange() (start, end time.Time) {
	if c.start.IsZero() && c.end.IsZero() {
		return CurrentWeek(c.now(), c.loc, c.FirstDayOfWeek())
	}
	return c.start, c.end
}

// FirstDayOfWeek returns the override set by SetFirstDayOfWeek, or the
// locale's first day of week.
func (c *Calendar) FirstDayOfWeek() int {
	if c.firstDayOfWeek != 0 {
		return c.firstDayOfWeek
	}
	return calmath.FirstDayOfWeekFor(c.locale)
}

// SetFirstDayOfWeek overrides the locale's first day of week. day is
// 1 (Sunday) through 7 (Saturday).
func (c *Calendar) SetFirstDayOfWeek(day int) error {
	if day < calmath.Sunday || day > calmath.Saturday {
		return &InvalidArgumentError{Name: "first day of week", Value: day, Min: calmath.Sunday, Max: calmath.Saturday}
	}
	c.firstDayOfWeek = day
	c.markDirty()
	return nil
}

// ClearFirstDayOfWeek removes the override and follows the locale again.
func (c *Calendar) ClearFirstDayOfWeek() {
	c.firstDayOfWeek = 0
	c.markDirty()
}

// VisibleDays returns the first and last rendered day of the week, counted
// from the first day of week.
func (c *Calendar) VisibleDays() (first, last int) {
	return c.firstVisibleDay, c.lastVisibleDay
}

// SetFirstVisibleDayOfWeek ignores values outside 1..7 or after the last visible day.
func (c *Calendar) SetFirstVisibleDayOfWeek(day int) {
	if day != c.firstVisibleDay && day >= 1 && day <= 7 && day <= c.lastVisibleDay {
		c.firstVisibleDay = day
		c.markDirty()
	}
}

// SetLastVisibleDayOfWeek ignores values outside 1..7 or before the first visible day.
func (c *Calendar) SetLastVisibleDayOfWeek(day int) {
	if day != c.lastVisibleDay && day >= 1 && day <= 7 && day >= c.firstVisibleDay {
		c.lastVisibleDay = day
		c.markDirty()
	}
}

// VisibleHours returns the first and last rendered hour of the day.
func (c *Calendar) VisibleHours() (first, last int) {
	return c.firstHour, c.lastHour
}

// SetFirstVisibleHourOfDay ignores values outside 0..23 or after the last visible hour.
func (c *Calendar) SetFirstVisibleHourOfDay(hour int) {
	if hour != c.firstHour && hour >= 0 && hour <= 23 && hour <= c.lastHour {
		c.firstHour = hour
		c.markDirty()
	}
}

// SetLastVisibleHourOfDay ignores values outside 0..23 or before the first visible hour.
func (c *Calendar) SetLastVisibleHourOfDay(hour int) {
	if hour != c.lastHour && hour >= 0 && hour <= 23 && hour >= c.firstHour {
		c.lastHour = hour
		c.markDirty()
	}
}

// ResetVisibleHours shows the whole day again.
func (c *Calendar) ResetVisibleHours() {
	c.setVisibleHours(0, 23)
}

// AutoScaleVisibleHours narrows the visible hours to the span of the items
// seen by the last Recompute. It does nothing when there were no items.
func (c *Calendar) AutoScaleVisibleHours() {
	if first, last, ok := c.cache.hours(); ok {
		c.setVisibleHours(first, last)
	}
}

// SetAutoScaleVisibleHours makes every successful Recompute auto scale the
// visible hours to the items it fetched.
func (c *Calendar) SetAutoScaleVisibleHours(v bool) {
	c.autoScale = v
}

func (c *Calendar) setVisibleHours(first, last int) {
	if first != c.firstHour || last != c.lastHour {
		c.firstHour, c.lastHour = first, last
		c.markDirty()
	}
}

// SetWeeklyCaptionFormat sets the Go time layout of day captions. Empty
// selects the locale's short date layout.
func (c *Calendar) SetWeeklyCaptionFormat(layout string) {
	if layout != c.captionLayout {
		c.captionLayout = layout
		c.markDirty()
	}
}

// SetItemSortOrder sets the order the client uses for overlapping items.
func (c *Calendar) SetItemSortOrder(o SortOrder) {
	if _, ok := sortOrderNames[o]; !ok {
		o = SortDurationDesc
	}
	if o != c.sortOrder {
		c.sortOrder = o
		c.markDirty()
	}
}

// SetItemCaptionAsHTML tells the client whether captions are HTML.
func (c *Calendar) SetItemCaptionAsHTML(v bool) {
	if v != c.captionAsHTML {
		c.captionAsHTML = v
		c.markDirty()
	}
}

// SetTimeFormat selects a 12 or 24 hour clock.
func (c *Calendar) SetTimeFormat(f TimeFormat) {
	if f != c.timeFormat {
		c.timeFormat = f
		c.markDirty()
	}
}

// TimeFormat returns the effective clock, resolving the locale default.
func (c *Calendar) TimeFormat() TimeFormat {
	if c.timeFormat != TimeFormatLocale {
		return c.timeFormat
	}
	if calmath.Uses12HourClock(c.locale) {
		return TimeFormat12H
	}
	return TimeFormat24H
}

// SetEnabled controls whether client edits are applied.
func (c *Calendar) SetEnabled(enabled bool) {
	c.disabled = !enabled
}

// Enabled reports whether client edits are applied.
func (c *Calendar) Enabled() bool {
	return !c.disabled
}

// AddTimeBlock blocks [from, to) on every day. Offsets are milliseconds from
// midnight and must be half-hour aligned.
func (c *Calendar) AddTimeBlock(from, to int64) {
	c.blocked.Add(calmath.EveryDay, from, to)
	c.markDirty()
}

// AddDayTimeBlock blocks [from, to) on day.
func (c *Calendar) AddDayTimeBlock(day calmath.Date, from, to int64) {
	c.blocked.Add(day, from, to)
	c.markDirty()
}

// ClearBlockedTimes removes every block.
func (c *Calendar) ClearBlockedTimes() {
	c.blocked.Clear()
	c.markDirty()
}

// ClearDayBlockedTimes removes the blocks of day.
func (c *Calendar) ClearDayBlockedTimes(day calmath.Date) {
	c.blocked.ClearDay(day)
	c.markDirty()
}

// SetItemSource installs src as the item provider, replacing any previous
// one and its change subscription.
func (c *Calendar) SetItemSource(src calendar.Source) {
	if c.source != nil {
		c.source.cancel()
	}
	c.source = nil
	if src != nil {
		c.source = newItemSource(src, c.markDirty)
	}
	c.markDirty()
}

// ItemSource returns the installed item provider, or nil.
func (c *Calendar) ItemSource() calendar.Source {
	if c.source == nil {
		return nil
	}
	return c.source.Source
}

// Close cancels the change subscription of the item provider.
func (c *Calendar) Close() {
	if c.source != nil {
		c.source.cancel()
	}
}

// AddActionProvider registers p. Adding a provider twice has no effect.
func (c *Calendar) AddActionProvider(p action.Provider) {
	if p == nil || slices.Contains(c.providers, p) {
		return
	}
	c.providers = append(c.providers, p)
	c.markDirty()
}

// RemoveActionProvider unregisters p. Removing the last provider forgets all
// action keys.
func (c *Calendar) RemoveActionProvider(p action.Provider) {
	i := slices.Index(c.providers, p)
	if i < 0 {
		return
	}
	c.providers = slices.Delete(c.providers, i, i+1)
	if len(c.providers) == 0 {
		c.mapper.Reset()
	}
	c.markDirty()
}

// Mode returns the layout of the last computed grid. Before the first
// Recompute it is month mode.
func (c *Calendar) Mode() Mode {
	if !c.computed {
		return ModeMonth
	}
	return c.grid.Mode
}

// IsMonthlyMode reports whether more than seven days are shown. It is true
// before the first Recompute.
func (c *Calendar) IsMonthlyMode() bool {
	return c.Mode() == ModeMonth
}

// IsDayMode reports whether a single day is shown. It is also true before
// the first Recompute.
func (c *Calendar) IsDayMode() bool {
	return !c.computed || c.grid.Mode == ModeDay
}

// IsWeeklyMode reports whether two to seven days are shown.
func (c *Calendar) IsWeeklyMode() bool {
	return !c.IsDayMode() && !c.IsMonthlyMode()
}

// Items returns the events served for the last computed grid, in index order.
func (c *Calendar) Items() []calendar.Event {
	return c.events
}

// item returns the event the client refers to by index.
func (c *Calendar) item(index int) (calendar.Event, bool) {
	if index < 0 || index >= len(c.events) {
		return calendar.Event{}, false
	}
	return c.events[index], true
}

// Recompute rebuilds the day grid, fetches the items for the expanded range
// and rebuilds the action list. On error the previous results are kept.
// Visible hours are auto scaled afterwards when enabled.
func (c *Calendar) Recompute(ctx context.Context) error {
	now := c.now()
	loc := c.loc

	grid, err := BuildDayGrid(GridInput{
		Start:          c.start,
		End:            c.end,
		Loc:            loc,
		Locale:         c.locale,
		FirstDayOfWeek: c.FirstDayOfWeek(),
		CaptionLayout:  c.captionLayout,
		Now:            now,
		Blocked:        &c.blocked,
		Providers:      c.providers,
	})
	if err != nil {
		return fmt.Errorf("build day grid: %w", err)
	}

	var events []calendar.Event
	if c.source != nil {
		events, err = c.source.Fetch(ctx, grid.Range.Start, grid.Range.End)
		if err != nil {
			return fmt.Errorf("fetch items from %s: %w", c.source.Name(), err)
		}
	}

	items, bounds, ok := PlaceItems(events, loc)
	c.cache.reset()
	c.cache.observe(bounds, ok)

	c.grid = grid
	c.events = events
	c.items = items
	c.actions = c.flattenActions(grid.Actions)
	c.nowStamp = now.In(loc).Format(wire.ActionLayout)
	c.computed = true
	if c.autoScale {
		c.AutoScaleVisibleHours()
	}
	c.dirty.Store(false)

	slog.Debug("recomputed view", "start", grid.Range.Start, "end", grid.Range.End,
		"days", len(grid.Days), "mode", grid.Mode, "items", len(items), "actions", len(c.actions))
	return nil
}

// ActionView is one action offered on one slot, as sent to the client.
type ActionView struct {
	Key     string `json:"actionKey"`
	Caption string `json:"caption"`
	Icon    string `json:"iconKey,omitempty"`
	Start   string `json:"startDate"`
	End     string `json:"endDate"`
}

func (c *Calendar) flattenActions(m map[action.DateRange][]action.Action) []ActionView {
	if len(m) == 0 {
		return nil
	}

	ranges := make([]action.DateRange, 0, len(m))
	for r := range m {
		ranges = append(ranges, r)
	}
	slices.SortFunc(ranges, func(a, b action.DateRange) int {
		return cmp.Or(cmp.Compare(a.StartMillis, b.StartMillis), cmp.Compare(a.EndMillis, b.EndMillis))
	})

	var out []ActionView
	for _, r := range ranges {
		start, end := r.Bounds(c.loc)
		for _, a := range m[r] {
			out = append(out, ActionView{
				Key:     c.mapper.Key(a),
				Caption: a.Caption,
				Icon:    a.Icon,
				Start:   wire.EncodeActionDate(start, c.loc),
				End:     wire.EncodeActionDate(end, c.loc),
			})
		}
	}
	return out
}

// page describes the current view for the navigation helpers. Before the
// first Recompute the mode is derived from the raw range.
func (c *Calendar) page() nav.Page {
	start, end := c.visibleRange()
	dayMode := c.IsDayMode()
	if !c.computed {
		dayMode = calmath.DaysInclusive(start, end, c.loc) == 1
	}
	return nav.Page{
		Start:           start,
		End:             end,
		DayMode:         dayMode,
		Loc:             c.loc,
		FirstDayOfWeek:  c.FirstDayOfWeek(),
		FirstVisibleDay: c.firstVisibleDay,
		LastVisibleDay:  c.lastVisibleDay,
	}
}
