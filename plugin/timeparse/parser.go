// Package timeparse extracts calendar dates, clock times and recurrence cues
// from free-form English note text.
//
// The parser is heuristic and pattern based, not a full NLU engine. Rules are
// held in an ordered table and evaluated in fixed priority order; the first
// matching date rule wins. A text that matches nothing yields an empty Result,
// never an error.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Frequency describes a recurrence cue found in text.
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Result holds everything the parser could extract from one text.
// Date and time-of-day are independent: either, both or neither may be set.
type Result struct {
	// Date is midnight of the resolved calendar date in the parser's zone.
	Date    time.Time
	HasDate bool

	// Hour/Minute hold the resolved time of day when HasTime is true.
	Hour    int
	Minute  int
	HasTime bool

	// Recurring is set when a recurrence cue was found. Recurrence
	// short-circuits absolute date resolution.
	Recurring bool
	Frequency Frequency

	// Matched lists the phrases that produced the result, in match order.
	Matched []string
}

// Clock patterns. Explicit minutes take priority over bare "5pm" style hours.
var (
	clockPattern     = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	bareHourPattern  = regexp.MustCompile(`\b(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)\b`)
	offsetPattern    = regexp.MustCompile(`in (\d+) (day|week|month|year)s?`)
	fromNowPattern   = regexp.MustCompile(`(\d+) (day|week)s? from now`)
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	slashDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	longDatePattern  = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
	everyPattern     = regexp.MustCompile(`every (day|week|month|year|morning|evening|night)`)
)

// relDayOffsets maps relative-day keywords to day offsets, including common
// misspellings. "tonight" resolves to today.
var relDayOffsets = []struct {
	keyword string
	offset  int
}{
	{"tomorrow", 1},
	{"tommorow", 1},
	{"tomorow", 1},
	{"tmrw", 1},
	{"tonight", 0},
	{"today", 0},
	{"yesterday", -1},
}

// dayPartHours maps day-part words to anchor hours. These override the
// default morning anchor when no explicit clock time is present.
var dayPartHours = []struct {
	keyword string
	hour    int
}{
	{"midnight", 0},
	{"noon", 12},
	{"morning", 9},
	{"afternoon", 14},
	{"evening", 19},
}

// DefaultAnchorHour is the time of day assumed when only a date is resolved.
const DefaultAnchorHour = 9

// weekdayNames maps lowercase day names (and short forms) to time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"thurs":     time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
}

// orderedWeekdayNames fixes evaluation order: full names before short forms,
// so "tuesday" is not shadowed by "tue" and scans are deterministic.
var orderedWeekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tues", "tue", "wed", "thurs", "thu", "fri", "sat", "sun",
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Parser parses natural language time expressions.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// NewParser creates a new time parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Parser{
		timezone: timezone,
		now:      time.Now,
	}
}

// WithNow returns a parser whose clock is the given function. Used by tests
// and by batch callers that snapshot "now" once per pass.
func (p *Parser) WithNow(now func() time.Time) *Parser {
	return &Parser{
		timezone: p.timezone,
		now:      now,
	}
}

// WithTimezone returns a new parser with the given timezone.
func (p *Parser) WithTimezone(tz *time.Location) *Parser {
	if tz == nil {
		tz = time.UTC
	}
	return &Parser{
		timezone: tz,
		now:      p.now,
	}
}

// dateRule is one entry of the ordered rule table: a matcher that either
// resolves a date into the result or reports no match.
type dateRule struct {
	name  string
	apply func(p *Parser, text string, now time.Time, r *Result) bool
}

// dateRules are evaluated in priority order; the first match wins.
var dateRules = []dateRule{
	{"relative-day", (*Parser).applyRelativeDay},
	{"weekday", (*Parser).applyWeekday},
	{"offset", (*Parser).applyOffset},
	{"exact-date", (*Parser).applyExactDate},
}

// Parse extracts temporal information from text. It never returns an error:
// a text with no recognizable phrase yields a zero Result.
func (p *Parser) Parse(text string) Result {
	var r Result
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return r
	}

	now := p.now().In(p.timezone)

	// Recurrence cues short-circuit absolute date resolution.
	if p.applyRecurrence(text, &r) {
		p.applyClockTime(text, &r)
		return r
	}

	for _, rule := range dateRules {
		if rule.apply(p, text, now, &r) {
			break
		}
	}

	p.applyClockTime(text, &r)

	return r
}

// applyRecurrence detects recurrence cues like "every day" or "weekly".
func (p *Parser) applyRecurrence(text string, r *Result) bool {
	if m := everyPattern.FindStringSubmatch(text); m != nil {
		r.Recurring = true
		r.Matched = append(r.Matched, m[0])
		switch m[1] {
		case "week":
			r.Frequency = FrequencyWeekly
		case "month":
			r.Frequency = FrequencyMonthly
		case "year":
			r.Frequency = FrequencyYearly
		default:
			// day, morning, evening, night
			r.Frequency = FrequencyDaily
		}
		return true
	}

	for _, kw := range []struct {
		word string
		freq Frequency
	}{
		{"daily", FrequencyDaily},
		{"weekly", FrequencyWeekly},
		{"monthly", FrequencyMonthly},
		{"yearly", FrequencyYearly},
	} {
		if containsWord(text, kw.word) {
			r.Recurring = true
			r.Frequency = kw.freq
			r.Matched = append(r.Matched, kw.word)
			return true
		}
	}

	return false
}

// applyRelativeDay resolves today/tonight/tomorrow/yesterday keywords.
func (p *Parser) applyRelativeDay(text string, now time.Time, r *Result) bool {
	for _, rel := range relDayOffsets {
		if containsWord(text, rel.keyword) {
			r.Date = midnight(now.AddDate(0, 0, rel.offset), p.timezone)
			r.HasDate = true
			r.Matched = append(r.Matched, rel.keyword)
			return true
		}
	}
	return false
}

// applyWeekday resolves "next monday" and bare "on friday" style phrases.
//
// "next <day>" always advances to the following week's occurrence, even when
// that day also occurs later this week. A bare day name resolves to the next
// occurrence, with "occurs today" meaning next week, same day.
func (p *Parser) applyWeekday(text string, now time.Time, r *Result) bool {
	for _, name := range orderedWeekdayNames {
		target := weekdayNames[name]
		if !containsWord(text, name) {
			continue
		}
		var days int
		if strings.Contains(text, "next "+name) {
			days = DaysUntilNextWeekday(now.Weekday(), target)
		} else {
			days = DaysUntilWeekday(now.Weekday(), target)
		}
		r.Date = midnight(now.AddDate(0, 0, days), p.timezone)
		r.HasDate = true
		r.Matched = append(r.Matched, name)
		return true
	}
	return false
}

// applyOffset resolves "in N days/weeks/months" and "N days from now".
func (p *Parser) applyOffset(text string, now time.Time, r *Result) bool {
	apply := func(n int, unit string) {
		switch unit {
		case "day":
			r.Date = midnight(now.AddDate(0, 0, n), p.timezone)
		case "week":
			r.Date = midnight(now.AddDate(0, 0, 7*n), p.timezone)
		case "month":
			r.Date = midnight(now.AddDate(0, n, 0), p.timezone)
		case "year":
			r.Date = midnight(now.AddDate(n, 0, 0), p.timezone)
		}
		r.HasDate = true
	}

	if m := offsetPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			apply(n, m[2])
			r.Matched = append(r.Matched, m[0])
			return true
		}
	}
	if m := fromNowPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			apply(n, m[2])
			r.Matched = append(r.Matched, m[0])
			return true
		}
	}
	return false
}

// applyExactDate resolves explicit date formats. Re-parsing an already
// resolved date yields the same date, making extraction idempotent.
func (p *Parser) applyExactDate(text string, _ time.Time, r *Result) bool {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := buildDate(m[1], m[2], m[3], p.timezone); ok {
			r.Date, r.HasDate = d, true
			r.Matched = append(r.Matched, m[0])
			return true
		}
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		// MM/DD/YYYY
		if d, ok := buildDate(m[3], m[1], m[2], p.timezone); ok {
			r.Date, r.HasDate = d, true
			r.Matched = append(r.Matched, m[0])
			return true
		}
	}
	if m := longDatePattern.FindStringSubmatch(text); m != nil {
		month := monthNames[m[1]]
		day, err1 := strconv.Atoi(m[2])
		year, err2 := strconv.Atoi(m[3])
		if err1 == nil && err2 == nil && day >= 1 && day <= 31 {
			r.Date = time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
			r.HasDate = true
			r.Matched = append(r.Matched, m[0])
			return true
		}
	}
	return false
}

// applyClockTime resolves explicit clock times and day-part anchors.
// Evaluated independently of date rules.
func (p *Parser) applyClockTime(text string, r *Result) {
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, err1 := strconv.Atoi(m[1])
		minute, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil && hour <= 23 && minute <= 59 {
			r.Hour = NormalizeHour(hour, m[3])
			r.Minute = minute
			r.HasTime = true
			r.Matched = append(r.Matched, m[0])
			return
		}
	}

	if m := bareHourPattern.FindStringSubmatch(text); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err == nil && hour >= 1 && hour <= 12 {
			r.Hour = NormalizeHour(hour, m[2])
			r.Minute = 0
			r.HasTime = true
			r.Matched = append(r.Matched, m[0])
			return
		}
	}

	for _, part := range dayPartHours {
		if containsWord(text, part.keyword) {
			r.Hour = part.hour
			r.Minute = 0
			r.HasTime = true
			r.Matched = append(r.Matched, part.keyword)
			return
		}
	}
}

// Resolve combines the parsed date and time-of-day into one instant.
//
// When only a date was found the time defaults to the morning anchor. When
// the combined instant is already past relative to now, the date rolls
// forward by one day; this is a heuristic, applied once, not a guarantee.
// Returns false when the result carries no date and no time, or is recurring.
func (r Result) Resolve(now time.Time, tz *time.Location) (time.Time, bool) {
	if tz == nil {
		tz = time.UTC
	}
	if r.Recurring {
		return time.Time{}, false
	}
	if !r.HasDate && !r.HasTime {
		return time.Time{}, false
	}

	base := now.In(tz)
	if r.HasDate {
		base = r.Date.In(tz)
	}

	hour, minute := DefaultAnchorHour, 0
	if r.HasTime {
		hour, minute = r.Hour, r.Minute
	}

	resolved := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, tz)
	if !resolved.After(now) {
		resolved = resolved.AddDate(0, 0, 1)
	}

	return resolved, true
}

// NormalizeHour converts a 12-hour clock reading with an optional am/pm
// marker into a 24-hour value. 12am maps to 00, 12pm stays 12.
func NormalizeHour(hour int, ampm string) int {
	marker := strings.ReplaceAll(strings.ToLower(ampm), ".", "")
	switch marker {
	case "pm":
		if hour != 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// DaysUntilWeekday returns the days from current until the next occurrence
// of target, with "occurs today" counting as a full week out.
func DaysUntilWeekday(current, target time.Weekday) int {
	days := (int(target) - int(current) + 7) % 7
	if days == 0 {
		days = 7
	}
	return days
}

// DaysUntilNextWeekday returns the days from current until the following
// week's occurrence of target. Always in [7, 13].
func DaysUntilNextWeekday(current, target time.Weekday) int {
	return (int(target)-int(current)+7)%7 + 7
}

// WeekdayFromName maps a lowercase day name or short form to its weekday.
func WeekdayFromName(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(name)]
	return wd, ok
}

// FindWeekday returns the first weekday name mentioned in text, if any.
func FindWeekday(text string) (time.Weekday, bool) {
	text = strings.ToLower(text)
	// Full names first so "tuesday" is not shadowed by "tue" etc.
	for _, name := range []string{
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	} {
		if containsWord(text, name) {
			return weekdayNames[name], true
		}
	}
	return time.Sunday, false
}

func midnight(t time.Time, tz *time.Location) time.Time {
	t = t.In(tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
}

func buildDate(year, month, day string, tz *time.Location) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, tz), true
}

// containsWord reports whether text contains word bounded by non-letters.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isLetter(text[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
