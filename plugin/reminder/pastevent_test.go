package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPastEventRelativeWords(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		content string
		want    bool
	}{
		{"had lunch yesterday", true},
		{"trip last week was great", true},
		{"last month we moved", true},
		{"party last night", true},
		{"dentist tomorrow at 9", false},
		{"buy milk", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPastEvent(tt.content, now, now), "%q", tt.content)
	}
}

func TestIsPastEventHourDependent(t *testing.T) {
	day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

	tests := []struct {
		content string
		hour    int
		want    bool
	}{
		{"dinner tonight", 10, false},
		{"dinner tonight", 18, true},
		{"dinner tonight", 22, true},
		{"standup this morning", 9, false},
		{"standup this morning", 12, true},
		{"review this afternoon", 14, false},
		{"review this afternoon", 18, true},
		{"chat earlier today", 17, false},
		{"chat earlier today", 19, true},
	}

	for _, tt := range tests {
		now := at(tt.hour)
		assert.Equal(t, tt.want, IsPastEvent(tt.content, now, now), "%q at %d:00", tt.content, tt.hour)
	}
}

func TestIsPastEventVerbs(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	for _, content := range []string{
		"went to the gym",
		"met alex for coffee",
		"finished the report",
		"attended the workshop",
		"talked with the landlord",
	} {
		assert.True(t, IsPastEvent(content, now, now), "%q", content)
	}

	// Verb tokens must be standalone words.
	assert.False(t, IsPastEvent("sawmill tour tomorrow", now, now))
	assert.False(t, IsPastEvent("wash the car at 5:00", now, now))
}

func TestIsPastEventStaleSubjects(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		content string
		age     time.Duration
		want    bool
	}{
		{"remember to check the mail", 2 * time.Hour, false},
		{"remember to check the mail", 30 * time.Hour, true},
		{"dentist tomorrow", 24 * time.Hour, false},
		{"dentist tomorrow", 72 * time.Hour, true},
		{"dinner tonight", 30 * time.Hour, true},
		{"standup this morning", 30 * time.Hour, true},
	}

	for _, tt := range tests {
		created := now.Add(-tt.age)
		assert.Equal(t, tt.want, IsPastEvent(tt.content, created, now), "%q aged %s", tt.content, tt.age)
	}
}
