package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/memora/plugin/timeparse"
)

func newTestService(t *testing.T, now time.Time) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, time.UTC).WithNow(func() time.Time { return now })
	return svc, store
}

func analyzeOne(t *testing.T, svc *Service, subject *Subject) Descriptor {
	t.Helper()
	got := svc.Analyze(subject)
	require.NotEmpty(t, got)
	return got[0]
}

func TestMaterializeMeetingScenario(t *testing.T) {
	// Wednesday 10:00; the meeting is at 15:00 the same day.
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 7, Category: "work",
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}

	r, err := svc.Materialize(context.Background(), subject, analyzeOne(t, svc, subject))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, KindTimeBased, r.Kind)
	assert.Equal(t, PriorityHigh, r.Priority)
	assert.True(t, r.Active)
	require.NotNil(t, r.Condition.Time)
	assert.Equal(t, time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC), r.Condition.Time.TargetTime)
	assert.Equal(t, 30, r.Condition.Time.OffsetMinutes)
	assert.Equal(t, time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC), r.NextTrigger)
	assert.True(t, r.NextTrigger.After(now))
}

func TestMaterializeTonightRollsForward(t *testing.T) {
	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 5,
		Content: "call mom tonight at 9",
	}

	t.Run("before nine stays today", func(t *testing.T) {
		now := time.Date(2025, 6, 11, 20, 0, 0, 0, time.UTC)
		svc, _ := newTestService(t, now)
		subject.CreatedAt = now

		// Analyze with a morning clock so the past-event gate stays open.
		morning := NewAnalyzer(time.UTC).WithNow(func() time.Time {
			return time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
		})
		descriptors := morning.Analyze(subject)
		require.NotEmpty(t, descriptors)

		r, err := svc.Materialize(context.Background(), subject, descriptors[0])
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, time.Date(2025, 6, 11, 21, 0, 0, 0, time.UTC), r.Condition.Time.TargetTime)
		assert.Equal(t, time.Date(2025, 6, 11, 20, 50, 0, 0, time.UTC), r.NextTrigger)
	})

	t.Run("after nine rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2025, 6, 11, 22, 0, 0, 0, time.UTC)
		svc, _ := newTestService(t, now)
		subject.CreatedAt = now

		morning := NewAnalyzer(time.UTC).WithNow(func() time.Time {
			return time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
		})
		descriptors := morning.Analyze(subject)
		require.NotEmpty(t, descriptors)

		r, err := svc.Materialize(context.Background(), subject, descriptors[0])
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, time.Date(2025, 6, 12, 21, 0, 0, 0, time.UTC), r.Condition.Time.TargetTime)
		assert.Equal(t, time.Date(2025, 6, 12, 20, 50, 0, 0, time.UTC), r.NextTrigger)
	})
}

func TestMaterializeShrinksAdvanceOffset(t *testing.T) {
	// 15 minutes until the meeting; the 30 minute offset must shrink.
	now := time.Date(2025, 6, 11, 14, 45, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 5,
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}

	r, err := svc.Materialize(context.Background(), subject, analyzeOne(t, svc, subject))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 14, r.Condition.Time.OffsetMinutes)
	assert.True(t, r.NextTrigger.After(now))
}

func TestMaterializeRollForwardRetry(t *testing.T) {
	// One minute before the meeting: no viable lead today, so the target
	// rolls to tomorrow exactly once.
	now := time.Date(2025, 6, 11, 14, 59, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 5,
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}

	r, err := svc.Materialize(context.Background(), subject, analyzeOne(t, svc, subject))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, time.Date(2025, 6, 12, 15, 0, 0, 0, time.UTC), r.Condition.Time.TargetTime)
	assert.Equal(t, 30, r.Condition.Time.OffsetMinutes)
	assert.True(t, r.NextTrigger.After(now))
}

func TestMaterializeNeverCreatesPastTrigger(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	contents := []string{
		"meeting with alex at 3:00 pm",
		"dentist at 10:30",
		"call mom tonight at 9",
		"tax forms due by tomorrow",
		"take medication",
	}
	for _, content := range contents {
		subject := &Subject{ID: "s1", UserID: 1, Importance: 6, Content: content, CreatedAt: now}
		for _, d := range svc.Analyze(subject) {
			r, err := svc.Materialize(context.Background(), subject, d)
			require.NoError(t, err, content)
			if r != nil {
				assert.True(t, r.NextTrigger.After(now), "%s: trigger %s in the past", content, r.NextTrigger)
			}
		}
	}
}

func TestMaterializeScheduledDeliveryPicksLargestViableOffset(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	delivery := now.Add(8 * time.Hour)
	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 7, Category: "personal",
		Content: "pick up the package", CreatedAt: now,
		DeliveryTime: &delivery, DeliveryMode: DeliveryScheduled,
	}

	r, err := svc.Materialize(context.Background(), subject, analyzeOne(t, svc, subject))
	require.NoError(t, err)
	require.NotNil(t, r)

	// Offsets for importance 7 are {12,6,2,1}h; 12h lands in the past, so
	// 6h wins: trigger at delivery-6h.
	assert.Equal(t, delivery.Add(-6*time.Hour).Unix(), r.NextTrigger.Unix())
}

func TestMaterializePastDeliveryYieldsNothing(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	delivery := now.Add(-time.Hour)
	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 7,
		Content: "pick up the package", CreatedAt: now,
		DeliveryTime: &delivery, DeliveryMode: DeliveryScheduled,
	}

	descriptors := svc.Analyze(subject)
	require.NotEmpty(t, descriptors)

	r, err := svc.Materialize(context.Background(), subject, descriptors[0])
	require.NoError(t, err)
	assert.Nil(t, r, "no reminder for a delivery already past")
}

func TestMaterializeFrequencyBased(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 6,
		Content: "take medication", CreatedAt: now,
	}

	r, err := svc.Materialize(context.Background(), subject, analyzeOne(t, svc, subject))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, KindFrequencyBased, r.Kind)
	require.NotNil(t, r.Condition.Frequency)
	assert.Equal(t, timeparse.FrequencyDaily, r.Condition.Frequency.Frequency)
	// Morning anchor already past today, so first firing is tomorrow 09:00.
	assert.Equal(t, time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), r.NextTrigger)
}

func TestSnooze(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	fired := now.Add(-time.Hour)
	reminder := &Reminder{
		ID: "r1", SubjectID: "s1", UserID: 1, Kind: KindTimeBased,
		Priority: PriorityMedium, NextTrigger: now.Add(-30 * time.Minute),
		LastTriggered: &fired, Active: true, CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, store.CreateReminder(context.Background(), reminder))

	require.NoError(t, svc.Snooze(context.Background(), "r1", 2))

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), got.NextTrigger)
	assert.Nil(t, got.LastTriggered, "snooze clears last_triggered")
	assert.True(t, got.Active)
}

func TestSnoozeDefaultsToOneHour(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	reminder := &Reminder{
		ID: "r1", SubjectID: "s1", UserID: 1, Kind: KindTimeBased,
		NextTrigger: now.Add(-time.Minute), Active: true, CreatedAt: now,
	}
	require.NoError(t, store.CreateReminder(context.Background(), reminder))

	require.NoError(t, svc.Snooze(context.Background(), "r1", 0))

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), got.NextTrigger)
}

func TestDismissIsTerminal(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	reminder := &Reminder{
		ID: "r1", SubjectID: "s1", UserID: 1, Kind: KindTimeBased,
		NextTrigger: now.Add(time.Hour), Active: true, CreatedAt: now,
	}
	require.NoError(t, store.CreateReminder(context.Background(), reminder))

	require.NoError(t, svc.Dismiss(context.Background(), "r1"))
	// Dismiss again: idempotent.
	require.NoError(t, svc.Dismiss(context.Background(), "r1"))

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, got.Active)

	// Snooze after dismiss is ignored; active stays false.
	before := got.NextTrigger
	require.NoError(t, svc.Snooze(context.Background(), "r1", 3))

	got, err = store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, before, got.NextTrigger)
}

func TestMaterializeNilSubject(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	_, err := svc.Materialize(context.Background(), nil, Descriptor{Kind: KindTimeBased})
	assert.Error(t, err)
}
