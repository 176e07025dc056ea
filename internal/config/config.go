// Package config provides configuration loading for calview.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cpuguy83/calview/internal/calmath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	View          ViewConfig         `yaml:"view"`
	Blocked       []BlockConfig      `yaml:"blocked"`
	Sources       []SourceConfig     `yaml:"sources"`
	Filters       FilterConfig       `yaml:"filters"`
	Sync          SyncConfig         `yaml:"sync"`
	Server        ServerConfig       `yaml:"server"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ViewConfig configures the initial state of the calendar view.
type ViewConfig struct {
	TimeZone       string `yaml:"timezone"`          // IANA name, default: local
	Locale         string `yaml:"locale"`            // BCP 47 tag, default: en-US
	FirstDayOfWeek string `yaml:"first_day_of_week"` // "monday", "sunday", ...; default: from locale

	// Start and End are YYYY-MM-DD. Both empty shows the current week.
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	FirstVisibleDay int `yaml:"first_visible_day"` // 1-7, default: 1
	LastVisibleDay  int `yaml:"last_visible_day"`  // 1-7, default: 7
	FirstHour       int `yaml:"first_hour"`        // 0-23, default: 0
	LastHour        int `yaml:"last_hour"`         // 0-23, default: 23

	// AutoScaleHours narrows the visible hours to the loaded items.
	AutoScaleHours bool `yaml:"auto_scale_hours"`

	CaptionFormat string `yaml:"caption_format"` // Go time layout for day captions
	SortOrder     string `yaml:"sort_order"`     // "duration-desc", "start-asc", ...
	TimeFormat    string `yaml:"time_format"`    // "12h", "24h" or "" for the locale default
	CaptionAsHTML bool   `yaml:"caption_as_html"`
	Disabled      bool   `yaml:"disabled"`
}

// BlockConfig blocks a span of the day from selection.
type BlockConfig struct {
	Date string `yaml:"date"` // YYYY-MM-DD, empty for every day
	From string `yaml:"from"` // HH:MM, half-hour aligned
	To   string `yaml:"to"`   // HH:MM, half-hour aligned; "24:00" for end of day
}

// SourceConfig configures a calendar source.
type SourceConfig struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"` // "ics", "file", "caldav", "icloud", "memory"
	URL         string       `yaml:"url"`
	Path        string       `yaml:"path,omitempty"` // For file sources
	Username    string       `yaml:"username,omitempty"`
	Password    string       `yaml:"password,omitempty"`
	PasswordCmd string       `yaml:"password_cmd,omitempty"`
	Calendars   []string     `yaml:"calendars,omitempty"` // For CalDAV: which calendars to sync
	Filters     FilterConfig `yaml:"filters,omitempty"`   // Per-source filters and styles
}

// FilterConfig configures event filtering and styling.
type FilterConfig struct {
	Mode   string       `yaml:"mode"` // "or" or "and"
	Rules  []FilterRule `yaml:"rules"`
	Styles []StyleRule  `yaml:"styles"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "title", "organizer", "source", "description", "location"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// StyleRule decorates events matching its rule. Unset flags leave the
// event's own capabilities alone.
type StyleRule struct {
	FilterRule `yaml:",inline"`

	Style      string `yaml:"style,omitempty"`
	Moveable   *bool  `yaml:"moveable,omitempty"`
	Resizeable *bool  `yaml:"resizeable,omitempty"`
	Clickable  *bool  `yaml:"clickable,omitempty"`
}

// SyncConfig configures background refresh of the sources.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Schedule string        `yaml:"schedule"` // Cron spec; overrides interval when set
	Window   time.Duration `yaml:"window"`   // Cached span on each side of now
}

// ServerConfig configures the RPC endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig configures desktop notifications offered as actions.
type NotificationConfig struct {
	Enabled bool            `yaml:"enabled"`
	Before  []time.Duration `yaml:"before"`
}

// Load reads configuration from the default location (~/.config/calview/config.yaml).
func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("get config dir: %w", err)
	}

	path := filepath.Join(configDir, "calview", "config.yaml")
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	for i := range cfg.Sources {
		cfg.Sources[i].Path = expandPath(cfg.Sources[i].Path)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.View.Locale == "" {
		c.View.Locale = "en-US"
	}
	if c.View.FirstVisibleDay == 0 {
		c.View.FirstVisibleDay = 1
	}
	if c.View.LastVisibleDay == 0 {
		c.View.LastVisibleDay = 7
	}
	if c.View.LastHour == 0 {
		c.View.LastHour = 23
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.Window == 0 {
		c.Sync.Window = 10 * 7 * 24 * time.Hour // Default: 10 weeks
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	if c.Notifications.Before == nil {
		c.Notifications.Before = []time.Duration{15 * time.Minute, 5 * time.Minute}
	}
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}
	if s.PasswordCmd == "" {
		return "", nil
	}

	cmd := exec.Command("sh", "-c", s.PasswordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// Day returns the day the block applies to, or calmath.EveryDay.
func (b BlockConfig) Day() (calmath.Date, error) {
	if b.Date == "" {
		return calmath.EveryDay, nil
	}
	return calmath.ParseDate(b.Date)
}

// Offsets returns the block as milliseconds from midnight.
func (b BlockConfig) Offsets() (from, to int64, err error) {
	if from, err = parseClock(b.From); err != nil {
		return 0, 0, fmt.Errorf("parse block from: %w", err)
	}
	if to, err = parseClock(b.To); err != nil {
		return 0, 0, fmt.Errorf("parse block to: %w", err)
	}
	return from, to, nil
}

// parseClock parses "HH:MM" into milliseconds from midnight. "24:00" is
// accepted as the end of the day.
func parseClock(s string) (int64, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return int64(hour*60+minute) * int64(time.Minute/time.Millisecond), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration extends time.ParseDuration with whole days ("14d") and
// weeks ("2w"). An empty string is zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	default:
		return time.ParseDuration(s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return time.Duration(n) * unit, nil
}

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (c *SyncConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Schedule string `yaml:"schedule"`
		Window   string `yaml:"window"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	d, err := parseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("parse interval: %w", err)
	}
	c.Interval = d

	w, err := parseDuration(raw.Window)
	if err != nil {
		return fmt.Errorf("parse window: %w", err)
	}
	c.Window = w
	c.Schedule = raw.Schedule
	return nil
}

// UnmarshalYAML implements custom unmarshaling for notification config.
func (c *NotificationConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Enabled bool     `yaml:"enabled"`
		Before  []string `yaml:"before"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Enabled = raw.Enabled
	for _, s := range raw.Before {
		d, err := parseDuration(s)
		if err != nil {
			return fmt.Errorf("parse notification before duration %q: %w", s, err)
		}
		c.Before = append(c.Before, d)
	}
	return nil
}

var weekdays = map[string]int{
	"sunday":    calmath.Sunday,
	"monday":    calmath.Monday,
	"tuesday":   calmath.Tuesday,
	"wednesday": calmath.Wednesday,
	"thursday":  calmath.Thursday,
	"friday":    calmath.Friday,
	"saturday":  calmath.Saturday,
}

// Weekday returns the configured first day of week as 1 (Sunday) through
// 7 (Saturday), or 0 when the locale decides.
func (v ViewConfig) Weekday() (int, error) {
	if v.FirstDayOfWeek == "" {
		return 0, nil
	}
	d, ok := weekdays[strings.ToLower(v.FirstDayOfWeek)]
	if !ok {
		return 0, fmt.Errorf("unknown first_day_of_week %q", v.FirstDayOfWeek)
	}
	return d, nil
}
