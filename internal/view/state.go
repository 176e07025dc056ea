package view

import (
	"github.com/cpuguy83/calview/internal/calmath"
)

// State is the snapshot sent to the rendering client.
type State struct {
	Days    []Day        `json:"days"`
	Items   []ItemView   `json:"items"`
	Actions []ActionView `json:"actions,omitempty"`
	Mode    Mode         `json:"mode"`

	// Now is the time of the last Recompute, for the now marker.
	Now      string `json:"now"`
	TimeZone string `json:"timeZone"`

	FirstDayOfWeek int      `json:"firstDayOfWeek"`
	DayNames       []string `json:"dayNames"`
	MonthNames     []string `json:"monthNames"`

	FirstVisibleDayOfWeek int `json:"firstVisibleDayOfWeek"`
	LastVisibleDayOfWeek  int `json:"lastVisibleDayOfWeek"`
	FirstHourOfDay        int `json:"firstHourOfDay"`
	LastHourOfDay         int `json:"lastHourOfDay"`

	ScrollTop         int       `json:"scrollTop"`
	ItemSortOrder     SortOrder `json:"itemSortOrder"`
	ItemCaptionAsHTML bool      `json:"itemCaptionAsHtml"`
	Format24H         bool      `json:"format24h"`
	Enabled           bool      `json:"enabled"`
}

// State returns the client snapshot: the results of the last successful
// Recompute combined with the current settings. It returns nil before the
// first Recompute.
func (c *Calendar) State() *State {
	if !c.computed {
		return nil
	}
	return &State{
		Days:                  c.grid.Days,
		Items:                 c.items,
		Actions:               c.actions,
		Mode:                  c.grid.Mode,
		Now:                   c.nowStamp,
		TimeZone:              c.loc.String(),
		FirstDayOfWeek:        c.FirstDayOfWeek(),
		DayNames:              calmath.DayNames(c.locale),
		MonthNames:            calmath.MonthNames(c.locale),
		FirstVisibleDayOfWeek: c.firstVisibleDay,
		LastVisibleDayOfWeek:  c.lastVisibleDay,
		FirstHourOfDay:        c.firstHour,
		LastHourOfDay:         c.lastHour,
		ScrollTop:             c.scrollTop,
		ItemSortOrder:         c.sortOrder,
		ItemCaptionAsHTML:     c.captionAsHTML,
		Format24H:             c.TimeFormat() == TimeFormat24H,
		Enabled:               c.Enabled(),
	}
}
