package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/memora/plugin/reminder"
)

func TestReminderRecordRoundTrip(t *testing.T) {
	target := time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)
	fired := time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC)

	src := &reminder.Reminder{
		ID:        "rem-1",
		SubjectID: "note-1",
		UserID:    7,
		Kind:      reminder.KindTimeBased,
		Priority:  reminder.PriorityHigh,
		Condition: reminder.TriggerCondition{
			Kind:   reminder.KindTimeBased,
			Reason: "Meeting with alex at 15:00",
			Time: &reminder.TimeBasedCondition{
				TargetTime:    target,
				ReminderTime:  target.Add(-30 * time.Minute),
				OffsetMinutes: 30,
			},
		},
		NextTrigger:   target.Add(-30 * time.Minute),
		LastTriggered: &fired,
		Active:        true,
		CreatedAt:     time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC),
	}

	record, err := reminderToRecord(src)
	require.NoError(t, err)
	assert.Equal(t, "rem-1", record.UID)
	assert.Equal(t, "note-1", record.NoteUID)
	assert.Equal(t, int32(7), record.CreatorID)
	assert.Equal(t, "time_based", record.Kind)
	require.NotNil(t, record.LastTriggeredTs)
	assert.Contains(t, record.Payload, `"kind":"time_based"`)

	got, err := recordToReminder(record)
	require.NoError(t, err)
	assert.Equal(t, src.ID, got.ID)
	assert.Equal(t, src.SubjectID, got.SubjectID)
	assert.Equal(t, src.Kind, got.Kind)
	assert.Equal(t, src.Priority, got.Priority)
	assert.Equal(t, src.NextTrigger.Unix(), got.NextTrigger.Unix())
	require.NotNil(t, got.LastTriggered)
	assert.Equal(t, fired.Unix(), got.LastTriggered.Unix())
	require.NotNil(t, got.Condition.Time)
	assert.Equal(t, target.Unix(), got.Condition.Time.TargetTime.Unix())
	assert.Equal(t, 30, got.Condition.Time.OffsetMinutes)
	assert.Equal(t, src.Condition.Reason, got.Condition.Reason)
}

func TestReminderToUpdateClearsLastTriggered(t *testing.T) {
	src := &reminder.Reminder{
		ID:          "rem-1",
		SubjectID:   "note-1",
		Kind:        reminder.KindTimeBased,
		Priority:    reminder.PriorityMedium,
		NextTrigger: time.Date(2025, 6, 11, 11, 0, 0, 0, time.UTC),
		Active:      true,
	}

	update, err := reminderToUpdate(src)
	require.NoError(t, err)
	assert.True(t, update.ClearLastTriggered, "nil last triggered must null the column")
	assert.Nil(t, update.LastTriggeredTs)
	require.NotNil(t, update.NextTriggerTs)
	assert.Equal(t, src.NextTrigger.Unix(), *update.NextTriggerTs)
}

func TestRecordToReminderEmptyPayload(t *testing.T) {
	record := &Reminder{
		UID:           "rem-1",
		NoteUID:       "note-1",
		Kind:          "context_based",
		Priority:      "low",
		Payload:       "",
		NextTriggerTs: time.Date(2025, 6, 11, 11, 0, 0, 0, time.UTC).Unix(),
		Active:        true,
	}

	got, err := recordToReminder(record)
	require.NoError(t, err)
	assert.Equal(t, reminder.KindContextBased, got.Kind)
	assert.Empty(t, got.Condition.Kind)
}

func TestNoteToSubject(t *testing.T) {
	deliveryTs := time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC).Unix()
	note := &Note{
		ID:           3,
		UID:          "note-1",
		CreatorID:    7,
		CreatedTs:    time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC).Unix(),
		Content:      "meeting with alex at 3:00 pm",
		Category:     "work",
		Importance:   8,
		DeliveryTs:   &deliveryTs,
		DeliveryMode: "scheduled",
	}

	subject := NoteToSubject(note)
	assert.Equal(t, "note-1", subject.ID)
	assert.Equal(t, int32(7), subject.UserID)
	assert.Equal(t, 8, subject.Importance)
	assert.Equal(t, reminder.DeliveryScheduled, subject.DeliveryMode)
	require.NotNil(t, subject.DeliveryTime)
	assert.Equal(t, deliveryTs, subject.DeliveryTime.Unix())

	note.DeliveryTs = nil
	assert.Nil(t, NoteToSubject(note).DeliveryTime)
}
