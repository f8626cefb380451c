package reminder

import (
	"time"

	"github.com/hrygo/memora/plugin/timeparse"
)

// nextOccurrence computes the first future firing instant for a
// frequency-based condition: the pinned clock time on the next matching day.
func nextOccurrence(cond *FrequencyBasedCondition, now time.Time, tz *time.Location) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), cond.Hour, cond.Minute, 0, 0, tz)

	if cond.TargetDay != "" {
		if wd, ok := timeparse.WeekdayFromName(cond.TargetDay); ok && now.Weekday() != wd {
			next = next.AddDate(0, 0, timeparse.DaysUntilWeekday(now.Weekday(), wd))
		}
	}

	if !next.After(now) {
		next = advanceByFrequency(next, cond.Frequency)
	}
	return next
}

// advanceByFrequency moves a firing instant one period forward. Used both
// for the initial occurrence and for recomputing after each firing.
func advanceByFrequency(t time.Time, freq timeparse.Frequency) time.Time {
	switch freq {
	case timeparse.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case timeparse.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case timeparse.FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
