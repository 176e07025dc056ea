package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/config"
	"github.com/cpuguy83/calview/internal/links"
	"github.com/cpuguy83/calview/internal/notify"
	"github.com/cpuguy83/calview/internal/view"
	"github.com/cpuguy83/calview/internal/wire"

	"golang.org/x/text/language"
)

// buildCalendar creates a calendar over src with the view settings of cfg.
func buildCalendar(cfg *config.Config, src calendar.Source) (*view.Calendar, error) {
	vc := cfg.View
	cal := view.New(src)

	loc := time.Local
	if vc.TimeZone != "" {
		var err error
		loc, err = time.LoadLocation(vc.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
	}
	cal.SetTimeZone(loc)

	tag, err := language.Parse(vc.Locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale: %w", err)
	}
	cal.SetLocale(tag)

	fdow, err := vc.Weekday()
	if err != nil {
		return nil, err
	}
	if fdow != 0 {
		if err := cal.SetFirstDayOfWeek(fdow); err != nil {
			return nil, err
		}
	}

	if vc.Start != "" || vc.End != "" {
		start, err := parseDay(vc.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("parse start: %w", err)
		}
		end, err := parseDay(vc.End, loc)
		if err != nil {
			return nil, fmt.Errorf("parse end: %w", err)
		}
		if !end.IsZero() {
			end = calmath.EndOfDay(end, loc)
		}
		cal.SetRange(start, end)
	}

	cal.SetFirstVisibleDayOfWeek(vc.FirstVisibleDay)
	cal.SetLastVisibleDayOfWeek(vc.LastVisibleDay)
	cal.SetFirstVisibleHourOfDay(vc.FirstHour)
	cal.SetLastVisibleHourOfDay(vc.LastHour)
	if first, last := cal.VisibleDays(); first != vc.FirstVisibleDay || last != vc.LastVisibleDay {
		slog.Warn("ignoring invalid visible days", "first", vc.FirstVisibleDay, "last", vc.LastVisibleDay)
	}
	if first, last := cal.VisibleHours(); first != vc.FirstHour || last != vc.LastHour {
		slog.Warn("ignoring invalid visible hours", "first", vc.FirstHour, "last", vc.LastHour)
	}

	var order view.SortOrder
	if err := order.UnmarshalText([]byte(vc.SortOrder)); err != nil {
		return nil, err
	}
	cal.SetItemSortOrder(order)

	var tf view.TimeFormat
	if err := tf.UnmarshalText([]byte(vc.TimeFormat)); err != nil {
		return nil, err
	}
	cal.SetTimeFormat(tf)

	cal.SetWeeklyCaptionFormat(vc.CaptionFormat)
	cal.SetItemCaptionAsHTML(vc.CaptionAsHTML)
	cal.SetAutoScaleVisibleHours(vc.AutoScaleHours)
	cal.SetEnabled(!vc.Disabled)

	for i, b := range cfg.Blocked {
		day, err := b.Day()
		if err != nil {
			return nil, fmt.Errorf("blocked %d: %w", i, err)
		}
		from, to, err := b.Offsets()
		if err != nil {
			return nil, fmt.Errorf("blocked %d: %w", i, err)
		}
		if from%view.SlotMillis != 0 || to%view.SlotMillis != 0 || to <= from {
			return nil, fmt.Errorf("blocked %d: %s-%s is not a half-hour aligned span", i, b.From, b.To)
		}
		cal.AddDayTimeBlock(day, from, to)
	}

	return cal, nil
}

// addProviders registers the action providers the configuration enables.
// The returned function releases them.
func addProviders(cfg *config.Config, cal *view.Calendar) (cleanup func()) {
	cal.AddActionProvider(links.NewProvider(cal.Items, nil))

	if !cfg.Notifications.Enabled {
		return func() {}
	}
	n, err := notify.New("calview")
	if err != nil {
		slog.Warn("notifications unavailable", "error", err)
		return func() {}
	}
	reminders := notify.NewReminders(n, cfg.Notifications.Before)
	cal.AddActionProvider(reminders)
	return func() {
		reminders.Close()
		n.Close()
	}
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(wire.DateLayout, s, loc)
}
