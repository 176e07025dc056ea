package calmath

import (
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// Regions whose week starts on Sunday or Saturday, from the CLDR week data.
// Every other region starts the week on Monday.
var (
	sundayFirstRegions = map[string]bool{
		"AG": true, "AS": true, "AU": true, "BD": true, "BR": true, "BS": true,
		"BT": true, "BW": true, "BZ": true, "CA": true, "CN": true, "CO": true,
		"DM": true, "DO": true, "ET": true, "GT": true, "GU": true, "HK": true,
		"HN": true, "ID": true, "IL": true, "IN": true, "JM": true, "JP": true,
		"KE": true, "KH": true, "KR": true, "LA": true, "MH": true, "MM": true,
		"MO": true, "MT": true, "MX": true, "MZ": true, "NI": true, "NP": true,
		"PA": true, "PE": true, "PH": true, "PK": true, "PR": true, "PT": true,
		"PY": true, "SA": true, "SG": true, "SV": true, "TH": true, "TT": true,
		"TW": true, "UM": true, "US": true, "VE": true, "VI": true, "WS": true,
		"YE": true, "ZA": true, "ZW": true,
	}
	saturdayFirstRegions = map[string]bool{
		"AE": true, "AF": true, "BH": true, "DJ": true, "DZ": true, "EG": true,
		"IQ": true, "IR": true, "JO": true, "KW": true, "LY": true, "OM": true,
		"QA": true, "SD": true, "SY": true,
	}
	twelveHourRegions = map[string]bool{
		"US": true, "CA": true, "AU": true, "NZ": true, "IN": true, "PH": true,
		"PK": true, "EG": true, "SA": true, "MX": true, "CO": true, "KR": true,
	}
)

func region(tag language.Tag) string {
	r, _ := tag.Region()
	return r.String()
}

// FirstDayOfWeekFor returns the conventional first day of week for tag.
func FirstDayOfWeekFor(tag language.Tag) int {
	switch r := region(tag); {
	case sundayFirstRegions[r]:
		return Sunday
	case saturdayFirstRegions[r]:
		return Saturday
	default:
		return Monday
	}
}

// Uses12HourClock reports whether times are conventionally shown with AM/PM for tag.
func Uses12HourClock(tag language.Tag) bool {
	return twelveHourRegions[region(tag)]
}

// Locale maps a language tag onto the formatting locale, e.g. de-AT -> de_AT.
func Locale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	return monday.Locale(base.String() + "_" + region(tag))
}

// DefaultCaptionLayout returns the short date layout used for day captions
// when no explicit pattern is configured.
func DefaultCaptionLayout(tag language.Tag) string {
	if layout, ok := monday.ShortFormatsByLocale[Locale(tag)]; ok {
		return layout
	}
	return DateLayout
}

// FormatCaption formats t with a Go layout using localized day and month names.
func FormatCaption(t time.Time, layout string, tag language.Tag) string {
	return monday.Format(t, layout, Locale(tag))
}

// 2023-01-01 was a Sunday.
var referenceSunday = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

// DayNames returns the localized weekday names, Sunday first.
func DayNames(tag language.Tag) []string {
	names := make([]string, 7)
	for i := range names {
		names[i] = FormatCaption(referenceSunday.AddDate(0, 0, i), "Monday", tag)
	}
	return names
}

// MonthNames returns the localized short month names, January first.
func MonthNames(tag language.Tag) []string {
	names := make([]string, 12)
	for i := range names {
		names[i] = FormatCaption(referenceSunday.AddDate(0, i, 0), "Jan", tag)
	}
	return names
}
