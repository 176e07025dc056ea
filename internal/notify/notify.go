// Package notify sends desktop notifications via D-Bus and offers
// reminders as calendar actions.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notifyInterface = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"

	defaultIcon = "x-office-calendar"
)

// Notification represents a desktop notification.
type Notification struct {
	Summary string
	Body    string
	Icon    string
	Timeout time.Duration // 0 = default, -1 = persistent
	Urgency Urgency

	// Key suppresses repeats of the same notification within a minute.
	Key string
}

// Urgency levels for notifications.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Sender delivers notifications.
type Sender interface {
	Send(n Notification) (uint32, error)
}

// Notifier sends desktop notifications via D-Bus.
type Notifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string

	mu   sync.Mutex
	sent map[string]time.Time
}

// New connects to the session bus.
func New(appName string) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	return &Notifier{
		conn:    conn,
		obj:     conn.Object(notifyInterface, notifyPath),
		appName: appName,
		sent:    make(map[string]time.Time),
	}, nil
}

// Close closes the D-Bus connection.
func (n *Notifier) Close() error {
	return n.conn.Close()
}

// Send shows n and returns the server's notification ID. A repeat of a
// keyed notification within a minute is dropped and returns 0.
func (n *Notifier) Send(notif Notification) (uint32, error) {
	if n.repeat(notif.Key) {
		return 0, nil
	}

	icon := notif.Icon
	if icon == "" {
		icon = defaultIcon
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(notif.Urgency)),
	}

	call := n.obj.Call(
		notifyInterface+".Notify",
		0,
		n.appName,
		uint32(0), // replaces_id
		icon,
		notif.Summary,
		notif.Body,
		[]string{}, // actions
		hints,
		expireTimeout(notif.Timeout),
	)
	if call.Err != nil {
		return 0, fmt.Errorf("send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("get notification id: %w", err)
	}

	slog.Debug("sent notification", "id", id, "summary", notif.Summary)
	return id, nil
}

func (n *Notifier) repeat(key string) bool {
	if key == "" {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	if last, ok := n.sent[key]; ok && now.Sub(last) < time.Minute {
		return true
	}
	n.sent[key] = now

	for k, t := range n.sent {
		if now.Sub(t) > time.Hour {
			delete(n.sent, k)
		}
	}
	return false
}

// expireTimeout converts a timeout to the D-Bus convention: -1 for the
// server default, 0 for persistent.
func expireTimeout(d time.Duration) int32 {
	switch {
	case d > 0:
		return int32(d.Milliseconds())
	case d < 0:
		return 0
	default:
		return -1
	}
}

var _ Sender = (*Notifier)(nil)
