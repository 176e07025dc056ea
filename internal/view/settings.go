package view

import "fmt"

// SortOrder tells the client how to order overlapping items. The engine
// itself keeps provider order.
type SortOrder int

const (
	SortDurationDesc SortOrder = iota
	SortDurationAsc
	SortStartDesc
	SortStartAsc
	SortUnsorted
)

var sortOrderNames = map[SortOrder]string{
	SortDurationDesc: "duration-desc",
	SortDurationAsc:  "duration-asc",
	SortStartDesc:    "start-desc",
	SortStartAsc:     "start-asc",
	SortUnsorted:     "unsorted",
}

func (o SortOrder) String() string {
	if name, ok := sortOrderNames[o]; ok {
		return name
	}
	return sortOrderNames[SortDurationDesc]
}

// MarshalText encodes the order by name.
func (o SortOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an order name. The empty string selects the default.
func (o *SortOrder) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = SortDurationDesc
		return nil
	}
	for order, name := range sortOrderNames {
		if name == string(b) {
			*o = order
			return nil
		}
	}
	return fmt.Errorf("unknown item sort order %q", b)
}

// TimeFormat selects a 12 or 24 hour clock. The zero value follows the locale.
type TimeFormat int

const (
	TimeFormatLocale TimeFormat = iota
	TimeFormat12H
	TimeFormat24H
)

func (f TimeFormat) String() string {
	switch f {
	case TimeFormat12H:
		return "12h"
	case TimeFormat24H:
		return "24h"
	default:
		return "locale"
	}
}

// UnmarshalText decodes "12h", "24h" or "locale" (or empty).
func (f *TimeFormat) UnmarshalText(b []byte) error {
	switch string(b) {
	case "12h":
		*f = TimeFormat12H
	case "24h":
		*f = TimeFormat24H
	case "", "locale":
		*f = TimeFormatLocale
	default:
		return fmt.Errorf("unknown time format %q", b)
	}
	return nil
}
