package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*`

var (
	isoDate        = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	numericDate    = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	dayMonthYear   = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+)\s+(\d{2,4})$`)
	monthDayYear   = regexp.MustCompile(`(?i)^([a-z]+)\s+(\d{1,2}),?\s+(\d{2,4})$`)
	strictISO      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	slashFourDigit = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseDate understands the formats the date rules match. Numeric
// dates are read day-first and fall back to month-first.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := numericDate.FindStringSubmatch(s); m != nil {
		if t, ok := makeDate(m[3], m[2], m[1]); ok {
			return t, true
		}
		return makeDate(m[3], m[1], m[2])
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNumber(m[2]); ok {
			return makeDate(m[3], strconv.Itoa(int(mon)), m[1])
		}
	}
	if m := monthDayYear.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNumber(m[1]); ok {
			return makeDate(m[3], strconv.Itoa(int(mon)), m[2])
		}
	}
	return time.Time{}, false
}

func monthNumber(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[strings.ToLower(name[:3])]
	return m, ok
}

// makeDate rejects values time.Date would silently roll over
func makeDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	if len(year) <= 2 {
		if y < 70 {
			y += 2000
		} else {
			y += 1900
		}
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// dateConfidence scores a raw date by its format and nearby "loss"
func dateConfidence(raw, text string, start, end int) float64 {
	switch {
	case strictISO.MatchString(raw):
		return 0.95
	case slashFourDigit.MatchString(raw):
		return 0.85
	}
	conf := 0.6
	if strings.Contains(strings.ToLower(window(text, start, end, 20, 20)), "loss") {
		conf += 0.2
	}
	return conf
}

// normalizeDate returns the YYYY-MM-DD form and the final confidence, or
// ok=false when the date parses but falls outside [1900, now+5].
func normalizeDate(raw string, conf float64, now time.Time) (string, float64, bool) {
	t, parsed := parseDate(raw)
	if !parsed {
		return raw, 0.3, true
	}
	if t.Year() < 1900 || t.Year() > now.Year()+5 {
		return "", 0, false
	}
	return t.Format("2006-01-02"), min(1.0, max(conf, 0.85)), true
}
