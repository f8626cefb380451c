package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/memora/plugin/timeparse"
)

func dueReminder(id string, userID int32, next time.Time) *Reminder {
	return &Reminder{
		ID:        id,
		SubjectID: "s-" + id,
		UserID:    userID,
		Kind:      KindTimeBased,
		Priority:  PriorityMedium,
		Condition: TriggerCondition{
			Kind:   KindTimeBased,
			Reason: "test trigger " + id,
			Time:   &TimeBasedCondition{TargetTime: next.Add(30 * time.Minute), ReminderTime: next, OffsetMinutes: 30},
		},
		NextTrigger: next,
		Active:      true,
		CreatedAt:   next.Add(-time.Hour),
	}
}

func TestRunBatchEmptyStore(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, fired)

	events, err := store.ListTriggerEvents(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRunBatchNothingDue(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, now.Add(time.Hour))))

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, fired)

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.Nil(t, got.LastTriggered, "not-due reminder must not be touched")
}

func TestRunBatchFiresOneShot(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	due := now.Add(-5 * time.Minute)
	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, due)))

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, fired, 1)

	pair := fired[0]
	require.NotNil(t, pair.Event)
	require.NotNil(t, pair.Reminder)
	assert.Equal(t, "r1", pair.Event.ReminderID)
	assert.Equal(t, "test trigger r1", pair.Event.Reason)
	assert.Equal(t, due, pair.Event.ScheduledAt)
	assert.Equal(t, now, pair.Event.FiredAt)

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, got.LastTriggered)
	assert.Equal(t, now, *got.LastTriggered)
	assert.True(t, got.Active, "one-shot stays active until dismissed")

	events, err := store.ListTriggerEvents(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRunBatchIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, now.Add(-time.Minute))))

	first, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second overlapping pass sees the reminder already fired for this
	// slot and leaves it alone.
	second, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, second)

	events, err := store.ListTriggerEvents(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, events, 1, "no duplicate history for the same instant")
}

func TestRunBatchAdvancesRecurring(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	due := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	reminder := &Reminder{
		ID: "r1", SubjectID: "s1", UserID: 1,
		Kind:     KindFrequencyBased,
		Priority: PriorityHigh,
		Condition: TriggerCondition{
			Kind:      KindFrequencyBased,
			Reason:    "Health reminder: medication",
			Frequency: &FrequencyBasedCondition{Frequency: timeparse.FrequencyDaily, Hour: 9},
		},
		NextTrigger: due,
		Active:      true,
		CreatedAt:   now.Add(-48 * time.Hour),
	}
	require.NoError(t, store.CreateReminder(context.Background(), reminder))

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, fired, 1)

	got, err := store.GetReminder(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), got.NextTrigger)
	assert.True(t, got.NextTrigger.After(now))
	assert.True(t, got.Active)
}

func TestRunBatchScope(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, now.Add(-time.Minute))))
	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r2", 2, now.Add(-time.Minute))))

	user := int32(1)
	fired, err := svc.RunBatch(context.Background(), Scope{UserID: &user})
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "r1", fired[0].Event.ReminderID)

	other, err := store.GetReminder(context.Background(), "r2")
	require.NoError(t, err)
	assert.Nil(t, other.LastTriggered)
}

func TestRunBatchSkipsInactive(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	r := dueReminder("r1", 1, now.Add(-time.Minute))
	r.Active = false
	require.NoError(t, store.CreateReminder(context.Background(), r))

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestSnoozedReminderFiresAgain(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)

	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, now.Add(-time.Minute))))

	fired, err := svc.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, fired, 1)

	require.NoError(t, svc.Snooze(context.Background(), "r1", 1))

	// An hour later the snoozed slot is due again and fires as a new instant.
	later := now.Add(61 * time.Minute)
	svcLater := svc.WithNow(func() time.Time { return later })

	fired, err = svcLater.RunBatch(context.Background(), Scope{})
	require.NoError(t, err)
	require.Len(t, fired, 1)

	events, err := store.ListTriggerEvents(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSchedulerLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	require.NoError(t, store.CreateReminder(context.Background(), dueReminder("r1", 1, now.Add(-time.Minute))))

	sched := NewScheduler(svc, SchedulerConfig{Interval: 10 * time.Millisecond})
	firedCh := sched.EnableTestMode()

	require.NoError(t, sched.Start(context.Background()))
	assert.True(t, sched.IsRunning())

	select {
	case n := <-firedCh:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run a cycle")
	}

	sched.Stop()
	assert.False(t, sched.IsRunning())
	// Stop again: no-op.
	sched.Stop()
}

func TestSchedulerRunOnceRateLimited(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	sched := NewScheduler(svc, SchedulerConfig{Interval: time.Hour, Burst: 1})

	_, err := sched.RunOnce(context.Background())
	require.NoError(t, err)

	// Burst exhausted; the next immediate call is rejected quietly.
	fired, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, fired)
}
