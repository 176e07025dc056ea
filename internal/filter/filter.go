// Package filter selects and decorates the events a source provides.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/calview/internal/calendar"
	"github.com/cpuguy83/calview/internal/config"
)

// MatchType specifies how a rule matches.
type MatchType int

const (
	MatchContains MatchType = iota // Substring match (default)
	MatchExact                     // Exact string match
	MatchPrefix                    // Starts with
	MatchSuffix                    // Ends with
	MatchRegex                     // Regular expression
)

// Filter applies include rules and then style rules to events.
type Filter struct {
	mode   string // "or" or "and"
	rules  []matcher
	styles []style
}

type matcher struct {
	field           string
	matchType       MatchType
	pattern         string         // For non-regex matches
	regex           *regexp.Regexp // For regex matches
	caseInsensitive bool
}

// style sets presentation and capabilities on matching events. nil flags
// keep the event's value.
type style struct {
	matcher
	name       string
	moveable   *bool
	resizeable *bool
	clickable  *bool
}

// New creates a new filter from configuration.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{
		mode: cfg.Mode,
	}

	if f.mode == "" {
		f.mode = "or"
	}
	if f.mode != "or" && f.mode != "and" {
		return nil, fmt.Errorf("unknown filter mode %q", cfg.Mode)
	}

	for i, r := range cfg.Rules {
		m, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, m)
	}

	for i, s := range cfg.Styles {
		m, err := compile(s.FilterRule)
		if err != nil {
			return nil, fmt.Errorf("style %d: %w", i, err)
		}
		f.styles = append(f.styles, style{
			matcher:    m,
			name:       s.Style,
			moveable:   s.Moveable,
			resizeable: s.Resizeable,
			clickable:  s.Clickable,
		})
	}

	return f, nil
}

// compile converts a config FilterRule to a matcher.
func compile(r config.FilterRule) (matcher, error) {
	m := matcher{
		field:           r.Field,
		caseInsensitive: r.CaseInsensitive,
	}

	switch {
	case r.Regex != "":
		m.matchType = MatchRegex
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return m, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		m.regex = re
		return m, nil

	case r.Exact != "":
		m.matchType, m.pattern = MatchExact, r.Exact
	case r.Prefix != "":
		m.matchType, m.pattern = MatchPrefix, r.Prefix
	case r.Suffix != "":
		m.matchType, m.pattern = MatchSuffix, r.Suffix
	case r.Contains != "":
		m.matchType, m.pattern = MatchContains, r.Contains
	default:
		return m, fmt.Errorf("no match pattern specified (use contains, exact, prefix, suffix, or regex)")
	}

	if r.CaseInsensitive {
		m.pattern = strings.ToLower(m.pattern)
	}
	return m, nil
}

// Apply returns the events passing the include rules, with style rules
// applied in order. Later styles override earlier ones. If no include rules
// are defined, all events pass.
func (f *Filter) Apply(events []calendar.Event) []calendar.Event {
	if len(f.rules) == 0 && len(f.styles) == 0 {
		return events
	}

	var out []calendar.Event
	for _, ev := range events {
		if len(f.rules) > 0 && !f.included(ev) {
			continue
		}
		for _, s := range f.styles {
			if s.matches(ev) {
				s.apply(&ev)
			}
		}
		out = append(out, ev)
	}
	return out
}

// included checks the event against the include rules.
func (f *Filter) included(ev calendar.Event) bool {
	if f.mode == "and" {
		for _, r := range f.rules {
			if !r.matches(ev) {
				return false
			}
		}
		return true
	}

	for _, r := range f.rules {
		if r.matches(ev) {
			return true
		}
	}
	return false
}

func (s *style) apply(ev *calendar.Event) {
	if s.name != "" {
		ev.Style = s.name
	}
	if s.moveable != nil {
		ev.Moveable = *s.moveable
	}
	if s.resizeable != nil {
		ev.Resizeable = *s.resizeable
	}
	if s.clickable != nil {
		ev.Clickable = *s.clickable
	}
}

// matches checks if an event matches a single rule.
func (m *matcher) matches(ev calendar.Event) bool {
	value := m.value(ev)

	if m.caseInsensitive && m.matchType != MatchRegex {
		value = strings.ToLower(value)
	}

	switch m.matchType {
	case MatchRegex:
		return m.regex.MatchString(value)
	case MatchExact:
		return value == m.pattern
	case MatchPrefix:
		return strings.HasPrefix(value, m.pattern)
	case MatchSuffix:
		return strings.HasSuffix(value, m.pattern)
	default:
		return strings.Contains(value, m.pattern)
	}
}

// value extracts the matched field from an event.
func (m *matcher) value(ev calendar.Event) string {
	switch m.field {
	case "title", "summary":
		return ev.Summary
	case "organizer":
		return ev.Organizer
	case "source", "calendar":
		return ev.Source
	case "description":
		return ev.Description
	case "location":
		return ev.Location
	case "style":
		return ev.Style
	default:
		return ""
	}
}
