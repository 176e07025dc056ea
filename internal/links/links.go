// Package links detects meeting URLs in calendar events and offers a
// "join meeting" action on slots that have one.
package links

import (
	"os/exec"
	"regexp"

	"github.com/cpuguy83/calview/internal/calendar"
)

type service struct {
	name string
	re   *regexp.Regexp
}

// Known meeting services, checked before falling back to any URL.
var services = []service{
	{"Zoom", regexp.MustCompile(`https?://[\w.-]*zoom\.us/j/[\w?=&-]+`)},
	{"Teams", regexp.MustCompile(`https?://teams\.microsoft\.com/l/meetup-join/[\w%/-]+`)},
	{"Meet", regexp.MustCompile(`https?://meet\.google\.com/[\w-]+`)},
	{"Webex", regexp.MustCompile(`https?://[\w.-]*\.webex\.com/[\w./-]+`)},
}

var anyURL = regexp.MustCompile(`https?://[^\s<>"]+`)

// Detect returns the meeting link of ev. An explicit URL wins when it points
// at a known service; otherwise location is searched before description,
// known services before generic URLs.
func Detect(ev calendar.Event) string {
	if ev.URL != "" && Service(ev.URL) != "" {
		return ev.URL
	}
	if link := detectInText(ev.Location); link != "" {
		return link
	}
	return detectInText(ev.Description)
}

func detectInText(text string) string {
	if text == "" {
		return ""
	}
	for _, s := range services {
		if match := s.re.FindString(text); match != "" {
			return match
		}
	}
	return anyURL.FindString(text)
}

// Service returns the name of the meeting service for url, or "" when it
// is not a known one.
func Service(url string) string {
	for _, s := range services {
		if s.re.MatchString(url) {
			return s.name
		}
	}
	return ""
}

// Open opens a URL in the default browser using xdg-open.
func Open(url string) error {
	return exec.Command("xdg-open", url).Start()
}
