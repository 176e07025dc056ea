package view

import "fmt"

// RangeTooLargeError is returned when the visible range spans more than
// MaxDays calendar days.
type RangeTooLargeError struct {
	Days int
}

func (e *RangeTooLargeError) Error() string {
	return fmt.Sprintf("date range is too big (max %d days): %d", MaxDays, e.Days)
}

// MissingBoundError is returned when only one end of the visible range is set.
type MissingBoundError struct {
	// Missing is "start" or "end".
	Missing string
}

func (e *MissingBoundError) Error() string {
	if e.Missing == "start" {
		return "end date is set but start date is missing: set it with SetStart"
	}
	return "start date is set but end date is missing: set it with SetEnd"
}

// InvalidArgumentError reports a setter argument outside its valid range.
type InvalidArgumentError struct {
	Name  string
	Value int
	Min   int
	Max   int
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Name, e.Min, e.Max, e.Value)
}
