package reminder

import (
	"regexp"
	"strings"
	"time"
)

// Past-event heuristic: decides whether note content already refers to a
// completed event. Advisory only; it suppresses new reminder creation and
// never touches reminders that already exist.

var (
	pastRelativePattern = regexp.MustCompile(`\b(yesterday|last week|last month|last year|last night)\b`)
	pastVerbPattern     = regexp.MustCompile(`\b(had|went|was|were|did|saw|met|called|finished|completed|attended|visited|talked)\b`)
	reflectivePattern   = regexp.MustCompile(`\b(remember|recall|think about|reflect on)\b`)
	samedayPartPattern  = regexp.MustCompile(`\b(this morning|this afternoon|earlier today)\b`)
)

// IsPastEvent reports whether content describes an already-completed event.
// now must be in the user's local zone; the hour comparisons below are
// against local wall-clock time.
func IsPastEvent(content string, createdAt, now time.Time) bool {
	text := strings.ToLower(content)
	hour := now.Hour()

	if pastRelativePattern.MatchString(text) {
		return true
	}
	if strings.Contains(text, "tonight") && hour >= 18 {
		return true
	}
	if strings.Contains(text, "this morning") && hour >= 12 {
		return true
	}
	if (strings.Contains(text, "this afternoon") || strings.Contains(text, "earlier today")) && hour >= 18 {
		return true
	}
	if pastVerbPattern.MatchString(text) {
		return true
	}

	// Stale subjects: same-day or near-day references go stale once the
	// subject itself is old enough.
	age := now.Sub(createdAt)
	if age > 24*time.Hour && reflectivePattern.MatchString(text) {
		return true
	}
	if age > 48*time.Hour && strings.Contains(text, "tomorrow") {
		return true
	}
	if age > 24*time.Hour && strings.Contains(text, "tonight") {
		return true
	}
	if age > 24*time.Hour && samedayPartPattern.MatchString(text) {
		return true
	}

	return false
}
