package calendar

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"
)

// FileSource reads events from an ICS file on disk at every fetch.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source backed by the ICS file at path.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// Name returns the display name of this calendar source.
func (s *FileSource) Name() string {
	return s.name
}

// Fetch parses the file and returns the events intersecting [start, end].
func (s *FileSource) Fetch(_ context.Context, start, end time.Time) ([]Event, error) {
	return ReadICS(s.path, s.name, start, end)
}

// ReadICS reads the events intersecting [start, end] from an ICS file.
func ReadICS(path, source string, start, end time.Time) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ICS file: %w", err)
	}
	defer f.Close()

	return ParseICS(f, source, start, end)
}

// Merge combines events from multiple sources into a single slice sorted by
// start time. Events starting at the same instant keep their input order.
func Merge(eventSets ...[]Event) []Event {
	var all []Event
	for _, events := range eventSets {
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})

	return all
}

var _ Source = (*FileSource)(nil)
