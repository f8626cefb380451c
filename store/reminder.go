package store

import (
	"context"
	"time"
)

// Reminder is the object representing a scheduled reminder row. The trigger
// condition travels as an opaque JSON payload; the engine owns its shape.
type Reminder struct {
	ID        int32
	UID       string
	NoteUID   string
	CreatorID int32
	CreatedTs int64

	Kind     string
	Priority string
	Payload  string

	NextTriggerTs   int64
	LastTriggeredTs *int64
	Active          bool
}

// FindReminder is the find condition for reminder.
type FindReminder struct {
	ID        *int32
	UID       *string
	NoteUID   *string
	CreatorID *int32
	Active    *bool

	// NextTriggerBefore filters reminders due at or before the given epoch.
	NextTriggerBefore *int64

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateReminder is the update request for reminder, keyed by UID.
type UpdateReminder struct {
	UID string

	Kind          *string
	Priority      *string
	Payload       *string
	NextTriggerTs *int64

	// LastTriggeredTs sets the column; ClearLastTriggered nulls it out.
	LastTriggeredTs    *int64
	ClearLastTriggered bool

	Active *bool
}

// DeleteReminder is the delete request for reminder. Exactly one selector
// should be set; NoteUID cascades over all reminders of a note.
type DeleteReminder struct {
	ID      *int32
	UID     *string
	NoteUID *string
}

// ReminderEvent is one row of append-only firing history. Inserts are
// idempotent on (reminder_uid, scheduled_ts).
type ReminderEvent struct {
	ID          int32
	UID         string
	ReminderUID string
	FiredTs     int64
	ScheduledTs int64
	Reason      string
}

// FindReminderEvent is the find condition for reminder event.
type FindReminderEvent struct {
	ReminderUID *string
	Limit       *int
}

// CreateReminder creates a new reminder.
func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, create)
}

// ListReminders lists reminders with filter.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

// GetReminder gets a reminder by find condition.
func (s *Store) GetReminder(ctx context.Context, find *FindReminder) (*Reminder, error) {
	list, err := s.driver.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateReminder updates a reminder.
func (s *Store) UpdateReminder(ctx context.Context, update *UpdateReminder) error {
	return s.driver.UpdateReminder(ctx, update)
}

// UpdateReminders applies a batch of reminder updates in one transaction.
func (s *Store) UpdateReminders(ctx context.Context, updates []*UpdateReminder) error {
	return s.driver.UpdateReminders(ctx, updates)
}

// DeleteReminder deletes reminders matching the selector.
func (s *Store) DeleteReminder(ctx context.Context, delete *DeleteReminder) error {
	return s.driver.DeleteReminder(ctx, delete)
}

// CreateReminderEvents bulk-inserts firing history, skipping rows whose
// (reminder, scheduled) slot was already recorded.
func (s *Store) CreateReminderEvents(ctx context.Context, creates []*ReminderEvent) error {
	return s.driver.CreateReminderEvents(ctx, creates)
}

// ListReminderEvents lists firing history with filter.
func (s *Store) ListReminderEvents(ctx context.Context, find *FindReminderEvent) ([]*ReminderEvent, error) {
	return s.driver.ListReminderEvents(ctx, find)
}

// ParseNextTrigger parses the reminder next trigger time to time.Time.
func (r *Reminder) ParseNextTrigger() time.Time {
	return time.Unix(r.NextTriggerTs, 0)
}

// ParseLastTriggered parses the reminder last triggered time to time.Time.
func (r *Reminder) ParseLastTriggered() *time.Time {
	if r.LastTriggeredTs == nil {
		return nil
	}
	t := time.Unix(*r.LastTriggeredTs, 0)
	return &t
}
