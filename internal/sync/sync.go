// Package sync provides a cached item source merging multiple calendars.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/config"
	"github.com/cpuguy83/calview/internal/filter"

	"github.com/robfig/cron/v3"
)

// ErrReadOnly is returned when an edit targets a source that cannot apply it.
var ErrReadOnly = errors.New("source is read-only")

// sourceWithFilter pairs a calendar source with its optional filter.
type sourceWithFilter struct {
	source calendar.Source
	filter *filter.Filter
	cancel func()
}

// Syncer merges several sources into one item source. It keeps the events
// of a window around now cached, refreshes them on a cron schedule and
// notifies subscribers when the merged set changes.
type Syncer struct {
	calendar.Subscribers

	name     string
	window   time.Duration
	schedule string
	loc      *time.Location

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time

	sources []sourceWithFilter
	filter  *filter.Filter // applied to the merged set
	stale   atomic.Bool

	mu     sync.RWMutex
	events []calendar.Event
	start  time.Time
	end    time.Time
	synced bool
}

// NewSyncer creates a new Syncer from configuration.
func NewSyncer(cfg *config.Config) (*Syncer, error) {
	s := New("calview", cfg.Sync)

	f, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("global filters: %w", err)
	}
	s.SetFilter(f)

	if err := s.addSources(cfg.Sources); err != nil {
		return nil, err
	}
	return s, nil
}

// New creates a Syncer without sources.
func New(name string, cfg config.SyncConfig) *Syncer {
	schedule := cfg.Schedule
	if schedule == "" && cfg.Interval > 0 {
		schedule = "@every " + cfg.Interval.String()
	}
	s := &Syncer{
		name:     name,
		window:   cfg.Window,
		schedule: schedule,
		loc:      time.Local,
		Now:      time.Now,
	}
	s.stale.Store(true)
	return s
}

// SetFilter sets the filter applied to the merged events of all sources,
// after the per-source filters. It must be called before the first fetch.
func (s *Syncer) SetFilter(f *filter.Filter) {
	s.filter = f
}

// Name returns the display name of this calendar source.
func (s *Syncer) Name() string {
	return s.name
}

// Add registers src. f may be nil. Change notifications from src mark the
// cache stale and are passed on to subscribers.
func (s *Syncer) Add(src calendar.Source, f *filter.Filter) {
	swf := sourceWithFilter{source: src, filter: f, cancel: func() {}}
	if n, ok := src.(calendar.Notifier); ok {
		swf.cancel = n.Subscribe(func() {
			s.stale.Store(true)
			s.Notify()
		})
	}
	s.sources = append(s.sources, swf)
	s.stale.Store(true)
}

// SourceCount returns the number of configured sources.
func (s *Syncer) SourceCount() int {
	return len(s.sources)
}

// Window returns the span the last sync cached.
func (s *Syncer) Window() (start, end time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.start, s.end
}

// Sync refetches the cached window from all sources. Subscribers are
// notified when the merged events differ from the previous sync.
func (s *Syncer) Sync(ctx context.Context) ([]calendar.Event, error) {
	now := s.Now()
	start, end := now.Add(-s.window), now.Add(s.window)

	s.stale.Store(false)
	merged, err := s.fetch(ctx, start, end)
	if err != nil {
		s.stale.Store(true)
		return nil, err
	}

	s.mu.Lock()
	changed := !s.synced || !slices.EqualFunc(s.events, merged, sameEvent)
	s.events = merged
	s.start, s.end = start, end
	s.synced = true
	s.mu.Unlock()

	if changed {
		s.Notify()
	}
	return merged, nil
}

// Fetch serves [start, end] from the cache when it lies inside the cached
// window and fetches from the sources otherwise.
func (s *Syncer) Fetch(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	if s.stale.Load() {
		if _, err := s.Sync(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	if s.synced && !start.Before(s.start) && !end.After(s.end) {
		var out []calendar.Event
		for _, ev := range s.events {
			if ev.Overlaps(start, end) {
				out = append(out, ev)
			}
		}
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	slog.Debug("range outside sync window", "start", start, "end", end)
	return s.fetch(ctx, start, end)
}

// fetch reads all sources in parallel, applies per-source filters, merges
// the results and applies the global filter. Failed sources are skipped unless nothing succeeded.
func (s *Syncer) fetch(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	slog.Debug("starting sync", "sources", len(s.sources), "start", start, "end", end)

	type result struct {
		events   []calendar.Event
		name     string
		fetched  int // count before filtering
		filtered int // count after filtering
		err      error
	}

	results := make(chan result, len(s.sources))
	var wg sync.WaitGroup

	for _, swf := range s.sources {
		wg.Go(func() {
			name := swf.source.Name()

			events, err := swf.source.Fetch(ctx, start, end)
			if err != nil {
				results <- result{name: name, err: err}
				return
			}

			fetched := len(events)
			if swf.filter != nil {
				events = swf.filter.Apply(events)
			}

			results <- result{
				events:   events,
				name:     name,
				fetched:  fetched,
				filtered: len(events),
			}
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var sets [][]calendar.Event
	var errs []error
	for r := range results {
		if r.err != nil {
			slog.Warn("failed to fetch source", "name", r.name, "error", r.err)
			errs = append(errs, fmt.Errorf("fetch %s: %w", r.name, r.err))
			continue
		}
		slog.Debug("fetched source", "name", r.name, "fetched", r.fetched, "after_filter", r.filtered)
		sets = append(sets, r.events)
	}

	// Partial success is success.
	if len(errs) > 0 && len(errs) == len(s.sources) {
		return nil, errors.Join(errs...)
	}

	merged := calendar.Merge(sets...)
	if s.filter != nil {
		merged = s.filter.Apply(merged)
	}
	slog.Debug("sync complete", "events", len(merged))
	return merged, nil
}

// MoveItem forwards the move to the source the event came from.
func (s *Syncer) MoveItem(ctx context.Context, ev calendar.Event, newStart time.Time) error {
	src, err := s.owner(ev)
	if err != nil {
		return err
	}
	m, ok := src.(calendar.Mover)
	if !ok {
		return fmt.Errorf("move %s in %s: %w", ev.UID, src.Name(), ErrReadOnly)
	}
	if err := m.MoveItem(ctx, ev, newStart); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// ResizeItem forwards the resize to the source the event came from.
func (s *Syncer) ResizeItem(ctx context.Context, ev calendar.Event, newStart, newEnd time.Time) error {
	src, err := s.owner(ev)
	if err != nil {
		return err
	}
	r, ok := src.(calendar.Resizer)
	if !ok {
		return fmt.Errorf("resize %s in %s: %w", ev.UID, src.Name(), ErrReadOnly)
	}
	if err := r.ResizeItem(ctx, ev, newStart, newEnd); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Syncer) owner(ev calendar.Event) (calendar.Source, error) {
	for _, swf := range s.sources {
		if swf.source.Name() == ev.Source {
			return swf.source, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", ev.UID, calendar.ErrUnknownEvent)
}

func (s *Syncer) invalidate() {
	s.stale.Store(true)
	s.Notify()
}

// Run syncs once and then on the configured schedule until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	if _, err := s.Sync(ctx); err != nil {
		slog.Warn("initial sync failed", "error", err)
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sync(ctx); err != nil {
			slog.Warn("sync failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("add sync schedule %q: %w", s.schedule, err)
	}

	c.Start()
	slog.Info("syncer started", "schedule", s.schedule, "sources", len(s.sources))

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	slog.Info("syncer stopped")
	return nil
}

// Close cancels the change subscriptions on the sources.
func (s *Syncer) Close() {
	for _, swf := range s.sources {
		swf.cancel()
	}
}

func sameEvent(a, b calendar.Event) bool {
	return a.UID == b.UID &&
		a.Summary == b.Summary &&
		a.Description == b.Description &&
		a.Location == b.Location &&
		a.Start.Equal(b.Start) &&
		a.End.Equal(b.End) &&
		a.AllDay == b.AllDay &&
		a.Style == b.Style &&
		a.Moveable == b.Moveable &&
		a.Resizeable == b.Resizeable &&
		a.Clickable == b.Clickable
}

// addSources creates calendar sources with their per-source filters from configuration.
func (s *Syncer) addSources(cfgs []config.SourceConfig) error {
	for _, cfg := range cfgs {
		var src calendar.Source

		switch cfg.Type {
		case "ics":
			password, err := cfg.GetPassword()
			if err != nil {
				return err
			}
			src = calendar.NewICSSource(cfg.Name, cfg.URL, cfg.Username, password)

		case "file":
			src = calendar.NewFileSource(cfg.Name, cfg.Path)

		case "caldav":
			password, err := cfg.GetPassword()
			if err != nil {
				return err
			}
			src = calendar.NewCalDAVSource(cfg.Name, cfg.URL, cfg.Username, password, cfg.Calendars)

		case "icloud":
			password, err := cfg.GetPassword()
			if err != nil {
				return err
			}
			src = calendar.NewICloudSource(cfg.Name, cfg.Username, password, cfg.Calendars)

		case "memory":
			src = calendar.NewMemorySource(cfg.Name)

		default:
			slog.Warn("unknown source type", "type", cfg.Type, "name", cfg.Name)
			continue
		}

		f, err := filter.New(cfg.Filters)
		if err != nil {
			return fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		s.Add(src, f)
	}

	return nil
}

var (
	_ calendar.Source   = (*Syncer)(nil)
	_ calendar.Notifier = (*Syncer)(nil)
	_ calendar.Mover    = (*Syncer)(nil)
	_ calendar.Resizer  = (*Syncer)(nil)
)
