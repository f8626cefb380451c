package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/memora/plugin/timeparse"
)

// analyzerNow is a Wednesday morning, before any evening cutoffs.
var analyzerNow = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return NewAnalyzer(time.UTC).WithNow(func() time.Time { return analyzerNow })
}

func testSubject(content string) *Subject {
	return &Subject{
		ID:         "subject-1",
		UserID:     1,
		Content:    content,
		Importance: 5,
		CreatedAt:  analyzerNow,
	}
}

func TestAnalyzeMeetingWithTime(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("meeting with alex at 3:00 pm"))
	require.NotEmpty(t, got)

	d := got[0]
	assert.Equal(t, KindTimeBased, d.Kind)
	assert.Equal(t, "Meeting with alex at 15:00", d.Description)
	assert.Equal(t, 30, d.OffsetMinutes)
	assert.Equal(t, 15, d.Hour)
	assert.Equal(t, 0, d.Minute)
	assert.True(t, d.HasTime)
}

func TestAnalyzeCallWithEveningInference(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("call mom tonight at 9"))
	require.NotEmpty(t, got)

	d := got[0]
	assert.Equal(t, KindTimeBased, d.Kind)
	assert.Equal(t, "Call mom at 21:00", d.Description)
	assert.Equal(t, 10, d.OffsetMinutes)
	assert.Equal(t, 21, d.Hour)
}

func TestAnalyzeExplicitAmBeatsEveningCue(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("call mom tonight at 9:00 am"))
	require.NotEmpty(t, got)
	assert.Equal(t, 9, got[0].Hour)
}

func TestAnalyzeMeetingOnWeekdayIsNotAPerson(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("meeting on friday at 3:00"))
	require.NotEmpty(t, got)
	for _, d := range got {
		assert.NotContains(t, d.Description, "friday", "weekday treated as a person: %s", d.Description)
		assert.NotContains(t, d.Description, "Friday")
	}
}

func TestAnalyzeMeetingWithoutTimeYieldsNothing(t *testing.T) {
	a := newTestAnalyzer(t)
	assert.Empty(t, a.Analyze(testSubject("meeting with alex")))
}

func TestAnalyzeDeadline(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("tax forms due by tomorrow"))
	require.NotEmpty(t, got)

	var deadline *Descriptor
	for i := range got {
		if got[i].Kind == KindDateBased {
			deadline = &got[i]
			break
		}
	}
	require.NotNil(t, deadline)
	assert.Equal(t, PriorityHigh, deadline.Priority)
	require.NotNil(t, deadline.Condition.Date)
	want := time.Date(2025, 6, 12, timeparse.DefaultAnchorHour, 0, 0, 0, time.UTC)
	assert.Equal(t, want, deadline.Condition.Date.TargetDate)
}

func TestAnalyzeKeywordSets(t *testing.T) {
	a := newTestAnalyzer(t)

	t.Run("health keywords give one daily descriptor", func(t *testing.T) {
		got := a.Analyze(testSubject("new medication and workout plan from the gym"))
		var health []Descriptor
		for _, d := range got {
			if d.Kind == KindFrequencyBased {
				health = append(health, d)
			}
		}
		require.Len(t, health, 1, "first keyword wins, no flooding")
		assert.Equal(t, "Health reminder: medication", health[0].Description)
		assert.Equal(t, timeparse.FrequencyDaily, health[0].Condition.Frequency.Frequency)
	})

	t.Run("personal keywords give weekly descriptor", func(t *testing.T) {
		got := a.Analyze(testSubject("grocery run this weekend"))
		require.NotEmpty(t, got)
		assert.Equal(t, KindFrequencyBased, got[0].Kind)
		assert.Equal(t, timeparse.FrequencyWeekly, got[0].Condition.Frequency.Frequency)
	})
}

func TestAnalyzeBareActivityOffsets(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		content string
		offset  int
	}{
		{"dentist at 10:30", 45},
		{"flight at 6:00", 60},
		{"dinner at 7:30", 20},
		{"pickup at 4:15", 15},
	}

	for _, tt := range tests {
		got := a.Analyze(testSubject(tt.content))
		require.NotEmpty(t, got, "%q", tt.content)
		assert.Equal(t, KindTimeBased, got[0].Kind, "%q", tt.content)
		assert.Equal(t, tt.offset, got[0].OffsetMinutes, "%q", tt.content)
	}
}

func TestAnalyzeGenericWordsSkipped(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze(testSubject("maybe the at 3:00 slot"))
	for _, d := range got {
		assert.NotEqual(t, "The at 03:00", d.Description)
	}
}

func TestAnalyzePastEventYieldsNothing(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.Empty(t, a.Analyze(testSubject("had lunch yesterday")))
	assert.Empty(t, a.Analyze(testSubject("went to the doctor last week")))
}

func TestAnalyzeDeliveryModes(t *testing.T) {
	a := newTestAnalyzer(t)
	delivery := analyzerNow.Add(5 * time.Hour)

	subjectWithMode := func(mode DeliveryMode, content string) *Subject {
		s := testSubject(content)
		s.DeliveryTime = &delivery
		s.DeliveryMode = mode
		return s
	}

	t.Run("scheduled yields time_based first", func(t *testing.T) {
		got := a.Analyze(subjectWithMode(DeliveryScheduled, "pick up the package"))
		require.NotEmpty(t, got)
		assert.Equal(t, KindTimeBased, got[0].Kind)
		assert.True(t, got[0].FromDeliveryTime)
		require.NotNil(t, got[0].Condition.Time)
		assert.Equal(t, delivery.Unix(), got[0].Condition.Time.TargetTime.Unix())
	})

	t.Run("recurring yields frequency_based", func(t *testing.T) {
		got := a.Analyze(subjectWithMode(DeliveryRecurring, "water plants every week"))
		require.NotEmpty(t, got)
		assert.Equal(t, KindFrequencyBased, got[0].Kind)
		assert.Equal(t, timeparse.FrequencyWeekly, got[0].Condition.Frequency.Frequency)
	})

	t.Run("conditional yields context_based", func(t *testing.T) {
		got := a.Analyze(subjectWithMode(DeliveryConditional, "mention this when relevant"))
		require.NotEmpty(t, got)
		assert.Equal(t, KindContextBased, got[0].Kind)
	})

	t.Run("immediate yields no delivery descriptor", func(t *testing.T) {
		got := a.Analyze(subjectWithMode(DeliveryImmediate, "plain note"))
		for _, d := range got {
			assert.False(t, d.FromDeliveryTime)
		}
	})
}

func TestAnalyzeDeduplicatesSameInstant(t *testing.T) {
	a := newTestAnalyzer(t)

	// The meeting detector and the generic activity detector both see 15:00;
	// only the first survives.
	got := a.Analyze(testSubject("meeting with alex at 3:00 pm"))

	timesSeen := make(map[string]int)
	for _, d := range got {
		if d.Kind == KindTimeBased {
			timesSeen[d.Description[len(d.Description)-5:]]++
		}
	}
	for key, n := range timesSeen {
		assert.Equal(t, 1, n, "instant %s suggested %d times", key, n)
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	a := newTestAnalyzer(t)
	assert.Empty(t, a.Analyze(testSubject("   ")))
	assert.Empty(t, a.Analyze(nil))
}
