package view

import "fmt"

// Mode is the layout the client renders, derived from the number of days
// in the grid.
type Mode int

const (
	ModeMonth Mode = iota
	ModeWeek
	ModeDay
)

// ModeFor returns the mode for a grid of n days. An empty grid counts as
// month mode.
func ModeFor(n int) Mode {
	switch {
	case n == 1:
		return ModeDay
	case n >= 2 && n <= 7:
		return ModeWeek
	default:
		return ModeMonth
	}
}

func (m Mode) String() string {
	switch m {
	case ModeDay:
		return "day"
	case ModeWeek:
		return "week"
	default:
		return "month"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "day":
		*m = ModeDay
	case "week":
		*m = ModeWeek
	case "month":
		*m = ModeMonth
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}
