package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubjectStore struct {
	subjects map[string]*Subject
	updates  map[string]time.Time
}

func newFakeSubjectStore() *fakeSubjectStore {
	return &fakeSubjectStore{
		subjects: make(map[string]*Subject),
		updates:  make(map[string]time.Time),
	}
}

func (f *fakeSubjectStore) GetSubject(ctx context.Context, id string) (*Subject, error) {
	return f.subjects[id], nil
}

func (f *fakeSubjectStore) UpdateSubjectSchedule(ctx context.Context, id string, deliveryTime time.Time, mode DeliveryMode) error {
	f.updates[id] = deliveryTime
	return nil
}

func TestIntegratorOnSubjectCreated(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	subjects := newFakeSubjectStore()
	integrator := NewIntegrator(svc, subjects)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 6,
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}

	created, err := integrator.OnSubjectCreated(context.Background(), subject)
	require.NoError(t, err)
	require.NotEmpty(t, created)

	persisted, err := store.ListBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, len(created))

	// The inferred target time was written back to the subject.
	target, ok := subjects.updates["s1"]
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC), target)
}

func TestIntegratorDoesNotOverwriteExplicitSchedule(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)
	subjects := newFakeSubjectStore()
	integrator := NewIntegrator(svc, subjects)

	delivery := now.Add(4 * time.Hour)
	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 6,
		Content: "pick up the package", CreatedAt: now,
		DeliveryTime: &delivery, DeliveryMode: DeliveryScheduled,
	}

	_, err := integrator.OnSubjectCreated(context.Background(), subject)
	require.NoError(t, err)
	assert.Empty(t, subjects.updates, "explicit schedule must not be overwritten")
}

func TestIntegratorOnSubjectUpdatedRebuilds(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	integrator := NewIntegrator(svc, nil)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 6,
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}
	first, err := integrator.OnSubjectCreated(context.Background(), subject)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	subject.Content = "dentist at 4:30 pm"
	second, err := integrator.OnSubjectUpdated(context.Background(), subject)
	require.NoError(t, err)
	require.NotEmpty(t, second)

	persisted, err := store.ListBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, persisted, len(second), "stale reminders dropped on update")
	for _, r := range persisted {
		if r.Condition.Time != nil {
			assert.Equal(t, 16, r.Condition.Time.TargetTime.Hour())
		}
	}
}

func TestIntegratorOnSubjectDeletedCascades(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	integrator := NewIntegrator(svc, nil)

	subject := &Subject{
		ID: "s1", UserID: 1, Importance: 6,
		Content: "meeting with alex at 3:00 pm", CreatedAt: now,
	}
	_, err := integrator.OnSubjectCreated(context.Background(), subject)
	require.NoError(t, err)

	require.NoError(t, integrator.OnSubjectDeleted(context.Background(), "s1"))

	persisted, err := store.ListBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, persisted)
}
