package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{"UTC", "UTC", false},
		{"empty string defaults to UTC", "", false},
		{"America/New_York", "America/New_York", false},
		{"Europe/London", "Europe/London", false},
		{"invalid timezone", "Invalid/Timezone", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimezone() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if loc == nil {
				t.Error("ParseTimezone() returned nil location")
			}
		})
	}
}

func TestParseTimezoneOrDefault(t *testing.T) {
	if loc := ParseTimezoneOrDefault("Invalid/Timezone"); loc != UTC {
		t.Errorf("ParseTimezoneOrDefault() = %v, want UTC", loc)
	}
	if loc := ParseTimezoneOrDefault("America/New_York"); loc.String() != "America/New_York" {
		t.Errorf("ParseTimezoneOrDefault() = %v, want America/New_York", loc)
	}
}

func TestIsValidTimezone(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want bool
	}{
		{"UTC", "UTC", true},
		{"empty", "", true},
		{"America/New_York", "America/New_York", true},
		{"invalid", "Invalid/Timezone", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTimezone(tt.tz); got != tt.want {
				t.Errorf("IsValidTimezone() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartEndOfDay(t *testing.T) {
	loc := MustParseTimezone("America/New_York")
	base := time.Date(2026, 3, 14, 15, 30, 0, 0, loc)

	start := StartOfDay(base, loc)
	if start.Hour() != 0 || start.Minute() != 0 || start.Day() != 14 {
		t.Errorf("StartOfDay() = %v", start)
	}

	end := EndOfDay(base, loc)
	if end.Hour() != 23 || end.Minute() != 59 || end.Day() != 14 {
		t.Errorf("EndOfDay() = %v", end)
	}
}
