// Package timezone provides timezone utilities for the Memora application.
//
// Reminder resolution always happens in the note owner's zone; an invalid or
// unknown zone falls back to UTC rather than failing the operation.
package timezone

import (
	"fmt"
	"time"
)

// TimezoneUTC is the UTC timezone identifier.
const TimezoneUTC = "UTC"

// UTC is the coordinated universal time timezone.
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "America/New_York").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == TimezoneUTC {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// ParseTimezoneOrDefault parses a timezone identifier, falling back to UTC on
// any failure. Scheduling callers use this so a bad zone never aborts a pass.
func ParseTimezoneOrDefault(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		return UTC
	}
	return loc
}

// MustParseTimezone parses a timezone or panics if invalid.
// Use this for constants that are known to be valid at compile time.
func MustParseTimezone(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	if tz == "" || tz == TimezoneUTC {
		return true
	}

	_, err := time.LoadLocation(tz)
	return err == nil
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Date(t.In(tz).Year(), t.In(tz).Month(), t.In(tz).Day(), 0, 0, 0, 0, tz)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the given timezone.
func EndOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Date(t.In(tz).Year(), t.In(tz).Month(), t.In(tz).Day(), 23, 59, 59, 999999999, tz)
}

// NowInTimezone returns the current time in the given timezone.
func NowInTimezone(tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Now().In(tz)
}

// FormatTriggerTime formats a reminder trigger time for display.
func FormatTriggerTime(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format("2006-01-02 15:04")
}
