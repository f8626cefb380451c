package reminder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/memora/plugin/timeparse"
)

// Analyzer scans subject content for activity patterns and produces candidate
// reminder descriptors. Analysis is pure: it reads the subject and the clock,
// nothing else.
type Analyzer struct {
	parser *timeparse.Parser
	tz     *time.Location
	now    func() time.Time
}

// NewAnalyzer creates an analyzer resolving dates in the given timezone.
func NewAnalyzer(tz *time.Location) *Analyzer {
	if tz == nil {
		tz = time.UTC
	}
	return &Analyzer{
		parser: timeparse.NewParser(tz),
		tz:     tz,
		now:    time.Now,
	}
}

// WithNow returns an analyzer with a fixed clock.
func (a *Analyzer) WithNow(now func() time.Time) *Analyzer {
	return &Analyzer{
		parser: a.parser.WithNow(now),
		tz:     a.tz,
		now:    now,
	}
}

var (
	callTimePattern    = regexp.MustCompile(`\bcall\s+(?:my\s+)?([a-z]+)\s+(?:[a-z]+\s+){0,2}(?:at|on)\s+(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)?`)
	meetingTimePattern = regexp.MustCompile(`\b(?:have\s+an?\s+)?(meeting|appointment|interview|conference)\s+(?:with\s+([a-z]+)\s+)?(?:[a-z]+\s+){0,2}(?:at|on)\s+(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	meetingPattern     = regexp.MustCompile(`\b(meeting|appointment|interview|conference)\s+(?:with|at|on)\s+([a-z]+)`)
	anyClockPattern    = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	deadlineByPattern  = regexp.MustCompile(`\b(?:due|deadline|submit|finish|complete)\s+(?:by|on|before)\s+([a-z0-9 ]{1,20})`)
	dueIsPattern       = regexp.MustCompile(`\b([a-z]+)\s+is\s+due\b`)
	activityAtPattern  = regexp.MustCompile(`\b([a-z]+)\s+(?:at|on|for)\s+(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	timeKeyPattern     = regexp.MustCompile(`at (\d{2}:\d{2})`)
)

// eveningCues trigger PM inference for bare 12-hour clock readings.
var eveningCues = []string{"tonight", "evening", "dinner", "after work", "afternoon"}

// genericWords are skipped as activities in bare "<activity> at <time>"
// matches to avoid reminders like "The at 15:00".
var genericWords = map[string]bool{
	"at": true, "the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "was": true, "be": true, "it": true,
}

// coveredActivities are handled by the dedicated meeting/call detectors and
// skipped by the generic time-pattern detector.
var coveredActivities = map[string]bool{
	"meeting": true, "call": true, "appointment": true, "interview": true,
	"conference": true,
}

// advanceMinutesByActivity maps an activity word to its advance offset.
var advanceMinutesByActivity = []struct {
	words   []string
	minutes int
}{
	{[]string{"meeting", "appointment", "interview", "conference", "presentation"}, 30},
	{[]string{"doctor", "dentist", "hospital", "clinic", "medical", "checkup"}, 45},
	{[]string{"flight", "train", "bus", "travel", "trip", "departure"}, 60},
	{[]string{"dinner", "lunch", "party", "event", "celebration", "date"}, 20},
	{[]string{"call", "phone", "discussion", "review", "deadline"}, 10},
	{[]string{"buy", "purchase", "shop", "grocery", "errand"}, 15},
}

const defaultAdvanceMinutes = 15

// keyword sets for frequency-based suggestions, first match wins per set.
var (
	healthKeywords = []string{
		"medicine", "medication", "pill", "dose",
		"exercise", "workout", "gym",
		"doctor", "checkup",
	}
	personalKeywords = []string{
		"call mom", "call dad", "family", "birthday", "anniversary",
		"grocery", "shopping", "pay bill",
		"clean", "organize", "fix", "repair",
	}
	workKeywords = []string{
		"report", "presentation", "project", "assignment",
		"review", "approve", "submit", "email",
		"workshop", "training",
	}
)

// Analyze scans a subject and returns candidate reminder descriptors,
// de-duplicated, with delivery-derived candidates first. Subjects whose
// content reads as an already-completed event yield none.
func (a *Analyzer) Analyze(subject *Subject) []Descriptor {
	if subject == nil || strings.TrimSpace(subject.Content) == "" {
		return nil
	}

	now := a.now().In(a.tz)
	if IsPastEvent(subject.Content, subject.CreatedAt, now) {
		return nil
	}

	content := strings.ToLower(subject.Content)

	var out []Descriptor
	out = append(out, a.fromDeliveryTime(subject, content)...)
	out = append(out, a.detectCalls(content)...)
	out = append(out, a.detectMeetings(content)...)
	out = append(out, a.detectDeadlines(content, now)...)
	out = append(out, a.detectKeywordSet(content, healthKeywords, "Health reminder", timeparse.FrequencyDaily, PriorityHigh)...)
	out = append(out, a.detectKeywordSet(content, personalKeywords, "Personal task", timeparse.FrequencyWeekly, PriorityMedium)...)
	out = append(out, a.detectKeywordSet(content, workKeywords, "Work task", timeparse.FrequencyDaily, PriorityMedium)...)
	out = append(out, a.detectTimePatterns(content)...)

	return dedupeDescriptors(out)
}

// fromDeliveryTime branches on the subject's delivery mode when it already
// carries a target delivery timestamp.
func (a *Analyzer) fromDeliveryTime(subject *Subject, content string) []Descriptor {
	if subject.DeliveryTime == nil {
		return nil
	}

	switch subject.DeliveryMode {
	case DeliveryScheduled:
		target := subject.DeliveryTime.In(a.tz)
		return []Descriptor{{
			Kind:        KindTimeBased,
			Priority:    PriorityFor(subject.Importance),
			Description: fmt.Sprintf("Scheduled: %s at %s", snippet(subject.Content), target.Format("15:04")),
			Condition: TriggerCondition{
				Kind:   KindTimeBased,
				Reason: fmt.Sprintf("Scheduled delivery at %s", target.Format("2006-01-02 15:04")),
				Time:   &TimeBasedCondition{TargetTime: target},
			},
			OffsetMinutes:    defaultAdvanceMinutes,
			FromDeliveryTime: true,
			Source:           content,
		}}
	case DeliveryRecurring:
		freq := timeparse.FrequencyDaily
		if r := a.parser.Parse(content); r.Recurring && r.Frequency != timeparse.FrequencyNone {
			freq = r.Frequency
		}
		return []Descriptor{{
			Kind:        KindFrequencyBased,
			Priority:    PriorityFor(subject.Importance),
			Description: fmt.Sprintf("Recurring: %s", snippet(subject.Content)),
			Condition: TriggerCondition{
				Kind:      KindFrequencyBased,
				Reason:    fmt.Sprintf("Recurring delivery (%s)", freq),
				Frequency: &FrequencyBasedCondition{Frequency: freq},
			},
			FromDeliveryTime: true,
			Source:           content,
		}}
	case DeliveryConditional:
		return []Descriptor{{
			Kind:        KindContextBased,
			Priority:    PriorityFor(subject.Importance),
			Description: fmt.Sprintf("When relevant: %s", snippet(subject.Content)),
			Condition: TriggerCondition{
				Kind:    KindContextBased,
				Reason:  "Conditional delivery",
				Context: &ContextBasedCondition{Conditions: []string{"context_relevant"}},
			},
			FromDeliveryTime: true,
			Source:           content,
		}}
	default:
		// immediate subjects are delivered on creation, no reminder
		return nil
	}
}

// detectCalls finds "call <person> at <time>" phrases. Calls get a short
// 10 minute advance offset.
func (a *Analyzer) detectCalls(content string) []Descriptor {
	var out []Descriptor
	for _, m := range callTimePattern.FindAllStringSubmatch(content, -1) {
		person := m[1]
		hour, err := strconv.Atoi(m[2])
		if err != nil || hour > 23 {
			continue
		}
		minute := 0
		if m[3] != "" {
			minute, err = strconv.Atoi(m[3])
			if err != nil || minute > 59 {
				continue
			}
		}
		hour = resolveHour(hour, m[4], content)

		out = append(out, Descriptor{
			Kind:        KindTimeBased,
			Priority:    PriorityMedium,
			Description: fmt.Sprintf("Call %s at %02d:%02d", person, hour, minute),
			Condition: TriggerCondition{
				Kind:   KindTimeBased,
				Reason: fmt.Sprintf("Call with %s at %02d:%02d detected", person, hour, minute),
			},
			OffsetMinutes: 10,
			Hour:          hour,
			Minute:        minute,
			HasTime:       true,
			Source:        content,
		})
	}
	return out
}

// detectMeetings finds meeting/appointment phrases with an attached clock
// time. A captured "person" that is really a weekday name is not a person.
func (a *Analyzer) detectMeetings(content string) []Descriptor {
	var out []Descriptor

	for _, m := range meetingTimePattern.FindAllStringSubmatch(content, -1) {
		kind, person := m[1], m[2]
		if person == "" {
			person = "team"
		}
		if _, isDay := timeparse.WeekdayFromName(person); isDay {
			person = "team"
		}
		hour, err1 := strconv.Atoi(m[3])
		minute, err2 := strconv.Atoi(m[4])
		if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
			continue
		}
		hour = resolveHour(hour, m[5], content)

		out = append(out, a.meetingDescriptor(kind, person, hour, minute, content))
	}

	if len(out) > 0 {
		return out
	}

	// Plain meeting phrases only count when a clock time appears somewhere
	// in the content; a bare "meeting with Alex" is not schedulable.
	for _, m := range meetingPattern.FindAllStringSubmatch(content, -1) {
		kind, person := m[1], m[2]
		if _, isDay := timeparse.WeekdayFromName(person); isDay {
			continue
		}
		tm := anyClockPattern.FindStringSubmatch(content)
		if tm == nil {
			continue
		}
		hour, err1 := strconv.Atoi(tm[1])
		minute, err2 := strconv.Atoi(tm[2])
		if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
			continue
		}
		hour = resolveHour(hour, tm[3], content)

		out = append(out, a.meetingDescriptor(kind, person, hour, minute, content))
	}

	return out
}

func (a *Analyzer) meetingDescriptor(kind, person string, hour, minute int, content string) Descriptor {
	label := title(kind)
	return Descriptor{
		Kind:        KindTimeBased,
		Priority:    PriorityMedium,
		Description: fmt.Sprintf("%s with %s at %02d:%02d", label, person, hour, minute),
		Condition: TriggerCondition{
			Kind:   KindTimeBased,
			Reason: fmt.Sprintf("%s with %s at %02d:%02d detected", label, person, hour, minute),
		},
		OffsetMinutes: 30,
		Hour:          hour,
		Minute:        minute,
		HasTime:       true,
		Source:        content,
	}
}

// detectDeadlines finds deadline phrases and resolves their date token.
func (a *Analyzer) detectDeadlines(content string, now time.Time) []Descriptor {
	var out []Descriptor

	emit := func(token string) {
		token = strings.TrimSpace(token)
		if token == "" {
			return
		}
		out = append(out, Descriptor{
			Kind:        KindDateBased,
			Priority:    PriorityHigh,
			Description: fmt.Sprintf("Deadline: %s", token),
			Condition: TriggerCondition{
				Kind:   KindDateBased,
				Reason: fmt.Sprintf("Deadline detected: %s", token),
				Date:   &DateBasedCondition{TargetDate: a.resolveDeadlineDate(token, now)},
			},
			Source: content,
		})
	}

	for _, m := range deadlineByPattern.FindAllStringSubmatch(content, -1) {
		emit(m[1])
	}
	for _, m := range dueIsPattern.FindAllStringSubmatch(content, -1) {
		emit(m[1])
	}
	return out
}

// resolveDeadlineDate maps a deadline token to a concrete morning-anchored
// instant. Unrecognized tokens fall back to tomorrow.
func (a *Analyzer) resolveDeadlineDate(token string, now time.Time) time.Time {
	day := now.AddDate(0, 0, 1)
	switch {
	case strings.Contains(token, "today"):
		day = now
	case strings.Contains(token, "tomorrow"):
		day = now.AddDate(0, 0, 1)
	case strings.Contains(token, "next week"):
		day = now.AddDate(0, 0, 7)
	case strings.Contains(token, "next month"):
		day = now.AddDate(0, 0, 30)
	default:
		if wd, ok := timeparse.FindWeekday(token); ok {
			day = now.AddDate(0, 0, timeparse.DaysUntilWeekday(now.Weekday(), wd))
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), timeparse.DefaultAnchorHour, 0, 0, 0, a.tz)
}

// detectKeywordSet emits at most one frequency-based descriptor per keyword
// set; the first matching keyword wins to avoid flooding a busy note.
func (a *Analyzer) detectKeywordSet(content string, keywords []string, label string, freq timeparse.Frequency, priority Priority) []Descriptor {
	for _, kw := range keywords {
		if !strings.Contains(content, kw) {
			continue
		}
		return []Descriptor{{
			Kind:        KindFrequencyBased,
			Priority:    priority,
			Description: fmt.Sprintf("%s: %s", label, kw),
			Condition: TriggerCondition{
				Kind:      KindFrequencyBased,
				Reason:    fmt.Sprintf("%s detected: %s", label, kw),
				Frequency: &FrequencyBasedCondition{Frequency: freq},
			},
			Source: content,
		}}
	}
	return nil
}

// detectTimePatterns finds bare "<activity> at <time>" phrases not already
// covered by the meeting/call detectors.
func (a *Analyzer) detectTimePatterns(content string) []Descriptor {
	var out []Descriptor
	seen := make(map[string]bool)

	for _, m := range activityAtPattern.FindAllStringSubmatch(content, -1) {
		activity := m[1]
		if genericWords[activity] || coveredActivities[activity] {
			continue
		}
		if _, isDay := timeparse.WeekdayFromName(activity); isDay {
			continue
		}
		hour, err1 := strconv.Atoi(m[2])
		minute, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
			continue
		}
		hour = resolveHour(hour, m[4], content)

		key := fmt.Sprintf("%s_%02d_%02d", activity, hour, minute)
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Descriptor{
			Kind:        KindTimeBased,
			Priority:    PriorityMedium,
			Description: fmt.Sprintf("%s at %02d:%02d", title(activity), hour, minute),
			Condition: TriggerCondition{
				Kind:   KindTimeBased,
				Reason: fmt.Sprintf("%s at %02d:%02d detected", title(activity), hour, minute),
			},
			OffsetMinutes: advanceMinutesFor(activity),
			Hour:          hour,
			Minute:        minute,
			HasTime:       true,
			Source:        content,
		})
	}
	return out
}

// advanceMinutesFor returns the activity-specific advance offset.
func advanceMinutesFor(activity string) int {
	activity = strings.ToLower(activity)
	for _, row := range advanceMinutesByActivity {
		for _, w := range row.words {
			if strings.Contains(activity, w) {
				return row.minutes
			}
		}
	}
	return defaultAdvanceMinutes
}

// resolveHour normalizes a 12-hour reading; with no am/pm marker, evening
// cues in the surrounding text push a morning reading into the evening.
func resolveHour(hour int, ampm, content string) int {
	if ampm != "" {
		return timeparse.NormalizeHour(hour, ampm)
	}
	if hour < 12 && hasEveningCue(content) {
		return hour + 12
	}
	return hour
}

func hasEveningCue(content string) bool {
	for _, cue := range eveningCues {
		if strings.Contains(content, cue) {
			return true
		}
	}
	return false
}

// dedupeDescriptors merges candidates with identical descriptions, keeping
// the first occurrence. Time-based candidates additionally dedup on their
// resolved "at HH:MM" key so the same instant is not suggested twice under
// different labels. Delivery-derived candidates come first and so win.
func dedupeDescriptors(in []Descriptor) []Descriptor {
	seenDesc := make(map[string]bool, len(in))
	seenTime := make(map[string]bool, len(in))

	out := make([]Descriptor, 0, len(in))
	for _, d := range in {
		if seenDesc[d.Description] {
			continue
		}
		if d.Kind == KindTimeBased {
			if m := timeKeyPattern.FindStringSubmatch(strings.ToLower(d.Description)); m != nil {
				if seenTime[m[1]] {
					continue
				}
				seenTime[m[1]] = true
			}
		}
		seenDesc[d.Description] = true
		out = append(out, d)
	}
	return out
}

// title uppercases the first letter of a lowercase word.
func title(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// snippet truncates content for use inside a description.
func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > 40 {
		return content[:40] + "..."
	}
	return content
}
