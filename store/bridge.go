package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/memora/plugin/reminder"
)

// ReminderBridge adapts the Store to the interfaces the reminder engine
// consumes. Reminders are addressed by UID on both sides; subjects map to
// notes addressed by note UID.
type ReminderBridge struct {
	store *Store
}

// NewReminderBridge creates a bridge over the given store.
func NewReminderBridge(store *Store) *ReminderBridge {
	return &ReminderBridge{store: store}
}

var (
	_ reminder.ReminderStore = (*ReminderBridge)(nil)
	_ reminder.SubjectStore  = (*ReminderBridge)(nil)
)

func (b *ReminderBridge) CreateReminder(ctx context.Context, r *reminder.Reminder) error {
	record, err := reminderToRecord(r)
	if err != nil {
		return err
	}
	_, err = b.store.CreateReminder(ctx, record)
	return err
}

func (b *ReminderBridge) GetReminder(ctx context.Context, id string) (*reminder.Reminder, error) {
	record, err := b.store.GetReminder(ctx, &FindReminder{UID: &id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.Errorf("reminder not found: %s", id)
	}
	return recordToReminder(record)
}

func (b *ReminderBridge) ListBySubject(ctx context.Context, subjectID string) ([]*reminder.Reminder, error) {
	records, err := b.store.ListReminders(ctx, &FindReminder{NoteUID: &subjectID})
	if err != nil {
		return nil, err
	}
	return recordsToReminders(records)
}

func (b *ReminderBridge) ListActive(ctx context.Context, scope reminder.Scope) ([]*reminder.Reminder, error) {
	active := true
	find := &FindReminder{Active: &active, CreatorID: scope.UserID}
	records, err := b.store.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	return recordsToReminders(records)
}

func (b *ReminderBridge) UpdateReminder(ctx context.Context, r *reminder.Reminder) error {
	update, err := reminderToUpdate(r)
	if err != nil {
		return err
	}
	return b.store.UpdateReminder(ctx, update)
}

func (b *ReminderBridge) DeleteBySubject(ctx context.Context, subjectID string) error {
	return b.store.DeleteReminder(ctx, &DeleteReminder{NoteUID: &subjectID})
}

func (b *ReminderBridge) CreateTriggerEvents(ctx context.Context, events []*reminder.TriggerEvent) error {
	creates := make([]*ReminderEvent, 0, len(events))
	for _, ev := range events {
		creates = append(creates, &ReminderEvent{
			UID:         ev.ID,
			ReminderUID: ev.ReminderID,
			FiredTs:     ev.FiredAt.Unix(),
			ScheduledTs: ev.ScheduledAt.Unix(),
			Reason:      ev.Reason,
		})
	}
	return b.store.CreateReminderEvents(ctx, creates)
}

func (b *ReminderBridge) UpdateReminders(ctx context.Context, reminders []*reminder.Reminder) error {
	updates := make([]*UpdateReminder, 0, len(reminders))
	for _, r := range reminders {
		update, err := reminderToUpdate(r)
		if err != nil {
			return err
		}
		updates = append(updates, update)
	}
	return b.store.UpdateReminders(ctx, updates)
}

func (b *ReminderBridge) ListTriggerEvents(ctx context.Context, reminderID string) ([]*reminder.TriggerEvent, error) {
	records, err := b.store.ListReminderEvents(ctx, &FindReminderEvent{ReminderUID: &reminderID})
	if err != nil {
		return nil, err
	}

	events := make([]*reminder.TriggerEvent, 0, len(records))
	for _, record := range records {
		events = append(events, &reminder.TriggerEvent{
			ID:          record.UID,
			ReminderID:  record.ReminderUID,
			FiredAt:     time.Unix(record.FiredTs, 0).UTC(),
			ScheduledAt: time.Unix(record.ScheduledTs, 0).UTC(),
			Reason:      record.Reason,
		})
	}
	return events, nil
}

func (b *ReminderBridge) GetSubject(ctx context.Context, id string) (*reminder.Subject, error) {
	note, err := b.store.GetNote(ctx, &FindNote{UID: &id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}
	return NoteToSubject(note), nil
}

func (b *ReminderBridge) UpdateSubjectSchedule(ctx context.Context, id string, deliveryTime time.Time, mode reminder.DeliveryMode) error {
	note, err := b.store.GetNote(ctx, &FindNote{UID: &id})
	if err != nil {
		return err
	}
	if note == nil {
		return errors.Errorf("note not found: %s", id)
	}

	deliveryTs := deliveryTime.Unix()
	deliveryMode := string(mode)
	return b.store.UpdateNote(ctx, &UpdateNote{
		ID:           note.ID,
		DeliveryTs:   &deliveryTs,
		DeliveryMode: &deliveryMode,
	})
}

// NoteToSubject converts a note row into the engine's subject view.
func NoteToSubject(note *Note) *reminder.Subject {
	subject := &reminder.Subject{
		ID:           note.UID,
		UserID:       note.CreatorID,
		Content:      note.Content,
		DeliveryMode: reminder.DeliveryMode(note.DeliveryMode),
		Importance:   int(note.Importance),
		Category:     note.Category,
		CreatedAt:    time.Unix(note.CreatedTs, 0).UTC(),
	}
	if note.DeliveryTs != nil {
		t := time.Unix(*note.DeliveryTs, 0).UTC()
		subject.DeliveryTime = &t
	}
	return subject
}

func reminderToRecord(r *reminder.Reminder) (*Reminder, error) {
	payload, err := json.Marshal(r.Condition)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode trigger condition")
	}

	record := &Reminder{
		UID:           r.ID,
		NoteUID:       r.SubjectID,
		CreatorID:     r.UserID,
		Kind:          string(r.Kind),
		Priority:      string(r.Priority),
		Payload:       string(payload),
		NextTriggerTs: r.NextTrigger.Unix(),
		Active:        r.Active,
	}
	if !r.CreatedAt.IsZero() {
		record.CreatedTs = r.CreatedAt.Unix()
	}
	if r.LastTriggered != nil {
		ts := r.LastTriggered.Unix()
		record.LastTriggeredTs = &ts
	}
	return record, nil
}

func reminderToUpdate(r *reminder.Reminder) (*UpdateReminder, error) {
	payload, err := json.Marshal(r.Condition)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode trigger condition")
	}

	kind, priority, payloadStr := string(r.Kind), string(r.Priority), string(payload)
	nextTriggerTs := r.NextTrigger.Unix()
	active := r.Active

	update := &UpdateReminder{
		UID:           r.ID,
		Kind:          &kind,
		Priority:      &priority,
		Payload:       &payloadStr,
		NextTriggerTs: &nextTriggerTs,
		Active:        &active,
	}
	if r.LastTriggered != nil {
		ts := r.LastTriggered.Unix()
		update.LastTriggeredTs = &ts
	} else {
		update.ClearLastTriggered = true
	}
	return update, nil
}

func recordToReminder(record *Reminder) (*reminder.Reminder, error) {
	var condition reminder.TriggerCondition
	if record.Payload != "" {
		if err := json.Unmarshal([]byte(record.Payload), &condition); err != nil {
			return nil, errors.Wrapf(err, "failed to decode trigger condition for reminder %s", record.UID)
		}
	}

	r := &reminder.Reminder{
		ID:          record.UID,
		SubjectID:   record.NoteUID,
		UserID:      record.CreatorID,
		Kind:        reminder.Kind(record.Kind),
		Priority:    reminder.Priority(record.Priority),
		Condition:   condition,
		NextTrigger: time.Unix(record.NextTriggerTs, 0).UTC(),
		Active:      record.Active,
		CreatedAt:   time.Unix(record.CreatedTs, 0).UTC(),
	}
	if record.LastTriggeredTs != nil {
		t := time.Unix(*record.LastTriggeredTs, 0).UTC()
		r.LastTriggered = &t
	}
	return r, nil
}

func recordsToReminders(records []*Reminder) ([]*reminder.Reminder, error) {
	list := make([]*reminder.Reminder, 0, len(records))
	for _, record := range records {
		r, err := recordToReminder(record)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, nil
}
