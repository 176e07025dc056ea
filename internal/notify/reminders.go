package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cpuguy83/calview/internal/action"
)

const actionPrefix = "notify.before."

// Reminders offers "remind me" actions on future slots and items, one per
// configured lead time, and sends the notification when it is due.
type Reminders struct {
	sender Sender
	before []time.Duration

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewReminders creates a reminder provider. before lists the lead times
// offered, e.g. 15m and 5m.
func NewReminders(sender Sender, before []time.Duration) *Reminders {
	return &Reminders{
		sender: sender,
		before: before,
		Now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

// ReminderAction returns the action for a lead time.
func ReminderAction(before time.Duration) action.Action {
	caption := "Remind me at start"
	if before > 0 {
		caption = "Remind me " + formatLead(before) + " before"
	}
	return action.Action{
		ID:      actionPrefix + before.String(),
		Caption: caption,
		Icon:    "alarm",
	}
}

func formatLead(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}

// Actions returns the reminder actions whose notification would still be
// in the future for a slot starting at r's start.
func (r *Reminders) Actions(dr action.DateRange) []action.Action {
	start, _ := dr.Bounds(time.UTC)
	now := r.Now()

	var out []action.Action
	for _, d := range r.before {
		if start.Add(-d).After(now) {
			out = append(out, ReminderAction(d))
		}
	}
	return out
}

// HandleAction schedules a reminder for the target item or slot.
func (r *Reminders) HandleAction(_ context.Context, a action.Action, target action.Target) {
	lead, ok := parseAction(a)
	if !ok {
		return
	}

	at := target.Time
	n := Notification{Summary: "Reminder", Urgency: UrgencyNormal}
	key := "slot:" + target.Time.Format(time.RFC3339)
	if target.Item != nil {
		at = target.Item.Start
		n.Summary = target.Item.Summary
		n.Body = formatBody(target.Item.Start, target.Item.Location)
		key = target.Item.UID + ":" + target.Item.Start.Format(time.RFC3339)
	}
	key += ":" + lead.String()
	n.Key = key

	delay := at.Add(-lead).Sub(r.Now())
	if delay < 0 {
		slog.Debug("reminder already due", "key", key)
		delay = 0
	}

	r.mu.Lock()
	if old, ok := r.timers[key]; ok {
		old.Stop()
	}
	r.timers[key] = time.AfterFunc(delay, func() { r.fire(key, n) })
	r.mu.Unlock()

	slog.Info("scheduled reminder", "summary", n.Summary, "at", at.Add(-lead))
}

func (r *Reminders) fire(key string, n Notification) {
	r.mu.Lock()
	delete(r.timers, key)
	r.mu.Unlock()

	if _, err := r.sender.Send(n); err != nil {
		slog.Warn("failed to send reminder", "summary", n.Summary, "error", err)
	}
}

// Pending returns the number of scheduled reminders.
func (r *Reminders) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Close cancels all scheduled reminders.
func (r *Reminders) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, t := range r.timers {
		t.Stop()
		delete(r.timers, key)
	}
}

func parseAction(a action.Action) (time.Duration, bool) {
	s, ok := strings.CutPrefix(a.ID, actionPrefix)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func formatBody(start time.Time, location string) string {
	body := "Starts at " + start.Format("15:04")
	if location != "" {
		body += "\n" + location
	}
	return body
}

var _ action.Provider = (*Reminders)(nil)
