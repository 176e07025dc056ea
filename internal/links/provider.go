package links

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpuguy83/calview/internal/action"
	"github.com/cpuguy83/calview/internal/calendar"
)

// Join is offered on every slot overlapped by an event with a meeting link.
var Join = action.Action{ID: "links.join", Caption: "Join meeting", Icon: "video-call"}

// Provider offers Join and opens the meeting link when it is invoked.
type Provider struct {
	items func() []calendar.Event
	open  func(url string) error
}

// NewProvider returns a provider looking up events with items. open
// defaults to Open.
func NewProvider(items func() []calendar.Event, open func(url string) error) *Provider {
	if open == nil {
		open = Open
	}
	return &Provider{items: items, open: open}
}

// Actions returns Join when a meeting with a link overlaps r.
func (p *Provider) Actions(r action.DateRange) []action.Action {
	start, end := r.Bounds(time.UTC)
	if p.meeting(start, end) != "" {
		return []action.Action{Join}
	}
	return nil
}

// HandleAction opens the meeting link of the target item, or of the first
// meeting running at the target time.
func (p *Provider) HandleAction(_ context.Context, a action.Action, target action.Target) {
	if a != Join {
		return
	}

	var link string
	if target.Item != nil {
		link = Detect(*target.Item)
	} else {
		link = p.meeting(target.Time, target.Time.Add(time.Nanosecond))
	}
	if link == "" {
		slog.Debug("no meeting link", "time", target.Time)
		return
	}

	slog.Info("joining meeting", "service", Service(link), "url", link)
	if err := p.open(link); err != nil {
		slog.Warn("failed to open meeting link", "url", link, "error", err)
	}
}

// meeting returns the link of the first event with one that overlaps
// [start, end).
func (p *Provider) meeting(start, end time.Time) string {
	if p.items == nil {
		return ""
	}
	for _, ev := range p.items() {
		if ev.AllDay || !ev.Start.Before(end) || !ev.End.After(start) {
			continue
		}
		if link := Detect(ev); link != "" {
			return link
		}
	}
	return ""
}

var _ action.Provider = (*Provider)(nil)
