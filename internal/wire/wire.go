// Package wire decodes the compact strings the rendering client sends for
// edits and clicks, and encodes the reverse.
//
// Decoding is best effort. Malformed input yields ok == false and is logged
// at debug level; no function in this package returns an error. All
// functions are pure and safe for concurrent use.
package wire

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cpuguy83/calview/internal/calmath"
)

// Wire layouts.
const (
	DateLayout     = calmath.DateLayout
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02-15-04"
	ActionLayout   = "2006-01-02 15:04:05"
)

// Field separators.
const (
	rangeSeparator = "TO"
	timeSeparator  = ":"
	weekSeparator  = "w"
)

// SlotDuration is the granularity of time slots in day and week views.
const SlotDuration = 30 * time.Minute

func drop(event, value, reason string) {
	slog.Debug("dropping client event", "event", event, "value", value, "reason", reason)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// ItemMove is a request to move item Index so that it starts at Start.
type ItemMove struct {
	Index int
	Start time.Time
}

// DecodeItemMove decodes a move of item index among n items.
func DecodeItemMove(index int, value string, n int, loc *time.Location) (ItemMove, bool) {
	if index < 0 || index >= n {
		drop("itemMove", value, "index out of range")
		return ItemMove{}, false
	}
	t, err := time.ParseInLocation(DateTimeLayout, value, loc)
	if err != nil {
		drop("itemMove", value, err.Error())
		return ItemMove{}, false
	}
	return ItemMove{Index: index, Start: t}, true
}

// EncodeItemMove is the inverse of DecodeItemMove. Seconds are truncated.
func EncodeItemMove(m ItemMove, loc *time.Location) (index int, value string) {
	return m.Index, m.Start.In(loc).Format(DateTimeLayout)
}

// ItemResize is a request to give item Index new bounds.
type ItemResize struct {
	Index int
	Start time.Time
	End   time.Time
}

// DecodeItemResize decodes a resize of item index among n items. Both
// bounds must be present and parse.
func DecodeItemResize(index int, start, end string, n int, loc *time.Location) (ItemResize, bool) {
	if index < 0 || index >= n {
		drop("itemResize", start+" "+end, "index out of range")
		return ItemResize{}, false
	}
	if start == "" || end == "" {
		drop("itemResize", start+" "+end, "missing bound")
		return ItemResize{}, false
	}
	s, err := time.ParseInLocation(DateTimeLayout, start, loc)
	if err != nil {
		drop("itemResize", start, err.Error())
		return ItemResize{}, false
	}
	e, err := time.ParseInLocation(DateTimeLayout, end, loc)
	if err != nil {
		drop("itemResize", end, err.Error())
		return ItemResize{}, false
	}
	return ItemResize{Index: index, Start: s, End: e}, true
}

// RangeSelect is a selected span. Timed is set when the selection came from
// a time grid rather than whole days.
type RangeSelect struct {
	Start time.Time
	End   time.Time
	Timed bool
}

// DecodeRangeSelect accepts "2006-01-02TO2006-01-02" for whole days and
// "2006-01-02:startMinutes:endMinutes" for a span within one day.
func DecodeRangeSelect(value string, loc *time.Location) (RangeSelect, bool) {
	switch {
	case len(value) > 14 && strings.Contains(value, rangeSeparator):
		parts := strings.Split(value, rangeSeparator)
		if len(parts) != 2 {
			drop("rangeSelect", value, "expected two dates")
			return RangeSelect{}, false
		}
		start, err := parseDate(parts[0], loc)
		if err != nil {
			drop("rangeSelect", value, err.Error())
			return RangeSelect{}, false
		}
		end, err := parseDate(parts[1], loc)
		if err != nil {
			drop("rangeSelect", value, err.Error())
			return RangeSelect{}, false
		}
		return RangeSelect{Start: start, End: end}, true

	case len(value) > 12 && strings.Contains(value, timeSeparator):
		parts := strings.Split(value, timeSeparator)
		if len(parts) != 3 {
			drop("rangeSelect", value, "expected date and two offsets")
			return RangeSelect{}, false
		}
		day, err := parseDate(parts[0], loc)
		if err != nil {
			drop("rangeSelect", value, err.Error())
			return RangeSelect{}, false
		}
		from, err := strconv.Atoi(parts[1])
		if err != nil {
			drop("rangeSelect", value, err.Error())
			return RangeSelect{}, false
		}
		to, err := strconv.Atoi(parts[2])
		if err != nil {
			drop("rangeSelect", value, err.Error())
			return RangeSelect{}, false
		}
		return RangeSelect{
			Start: day.Add(time.Duration(from) * time.Minute),
			End:   day.Add(time.Duration(to) * time.Minute),
			Timed: true,
		}, true
	}

	drop("rangeSelect", value, "unrecognized format")
	return RangeSelect{}, false
}

// DecodeDateClick decodes a click on a day header.
func DecodeDateClick(value string, loc *time.Location) (time.Time, bool) {
	if len(value) <= 6 {
		drop("dateClick", value, "too short")
		return time.Time{}, false
	}
	t, err := parseDate(value, loc)
	if err != nil {
		drop("dateClick", value, err.Error())
		return time.Time{}, false
	}
	return t, true
}

// WeekClick identifies a week by its week-numbering year and number.
type WeekClick struct {
	Year int
	Week int
}

// DecodeWeekClick decodes "<year>w<week>".
func DecodeWeekClick(value string) (WeekClick, bool) {
	parts := strings.Split(value, weekSeparator)
	if len(parts) != 2 {
		drop("weekClick", value, "expected year and week")
		return WeekClick{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		drop("weekClick", value, err.Error())
		return WeekClick{}, false
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		drop("weekClick", value, err.Error())
		return WeekClick{}, false
	}
	return WeekClick{Year: year, Week: week}, true
}

// EncodeWeekClick is the inverse of DecodeWeekClick.
func EncodeWeekClick(w WeekClick) string {
	return strconv.Itoa(w.Year) + weekSeparator + strconv.Itoa(w.Week)
}

// DecodeActionDate parses an action slot bound.
func DecodeActionDate(value string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(ActionLayout, value, loc)
	if err != nil {
		drop("action", value, err.Error())
		return time.Time{}, false
	}
	return t, true
}

// EncodeActionDate formats an action slot bound.
func EncodeActionDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ActionLayout)
}

// DropDetails is where the client reports a drag ended: a day column and,
// in time grids, a half-hour slot within it.
type DropDetails struct {
	DayIndex  int
	SlotIndex int
	HasSlot   bool
}

// DropTarget is the absolute drop position. HasDropTime is false for
// whole-day drops.
type DropTarget struct {
	Time        time.Time
	HasDropTime bool
}

// TranslateDrop resolves d against the bases of the current view. slotBase
// is midnight of the first visible day; dayBase is midnight of the first day
// of its week.
func TranslateDrop(d DropDetails, slotBase, dayBase time.Time) DropTarget {
	if d.HasSlot {
		return DropTarget{
			Time:        slotBase.AddDate(0, 0, d.DayIndex).Add(time.Duration(d.SlotIndex) * SlotDuration),
			HasDropTime: true,
		}
	}
	return DropTarget{Time: dayBase.AddDate(0, 0, d.DayIndex)}
}
