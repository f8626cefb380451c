package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/memora/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	fields := []string{
		"uid", "note_uid", "creator_id", "kind", "priority", "payload",
		"next_trigger_ts", "last_triggered_ts", "active",
	}
	placeholderValues := []any{
		create.UID, create.NoteUID, create.CreatorID, create.Kind, create.Priority, create.Payload,
		create.NextTriggerTs, create.LastTriggeredTs, create.Active,
	}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}

	stmt := `INSERT INTO reminder (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "reminder.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "reminder.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.NoteUID; v != nil {
		where, args = append(where, "reminder.note_uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "reminder.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Active; v != nil {
		where, args = append(where, "reminder.active = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.NextTriggerBefore; v != nil {
		where, args = append(where, "reminder.next_trigger_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, note_uid, creator_id, created_ts,
			kind, priority, payload,
			next_trigger_ts, last_triggered_ts, active
		FROM reminder
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY reminder.next_trigger_ts ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		var reminder store.Reminder
		var lastTriggeredTs sql.NullInt64

		if err := rows.Scan(
			&reminder.ID,
			&reminder.UID,
			&reminder.NoteUID,
			&reminder.CreatorID,
			&reminder.CreatedTs,
			&reminder.Kind,
			&reminder.Priority,
			&reminder.Payload,
			&reminder.NextTriggerTs,
			&lastTriggeredTs,
			&reminder.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		if lastTriggeredTs.Valid {
			reminder.LastTriggeredTs = &lastTriggeredTs.Int64
		}
		if reminder.Payload == "" {
			reminder.Payload = "{}"
		}

		list = append(list, &reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) error {
	return updateReminderTx(ctx, d.db, update)
}

// UpdateReminders applies a batch of updates in one transaction so an
// overlapping check pass never observes a half-written batch.
func (d *DB) UpdateReminders(ctx context.Context, updates []*store.UpdateReminder) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, update := range updates {
		if err := updateReminderTx(ctx, tx, update); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateReminderTx(ctx context.Context, db execer, update *store.UpdateReminder) error {
	set, args := []string{}, []any{}

	if v := update.Kind; v != nil {
		set, args = append(set, "kind = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Priority; v != nil {
		set, args = append(set, "priority = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Payload; v != nil {
		set, args = append(set, "payload = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.NextTriggerTs; v != nil {
		set, args = append(set, "next_trigger_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if update.ClearLastTriggered {
		set = append(set, "last_triggered_ts = NULL")
	} else if v := update.LastTriggeredTs; v != nil {
		set, args = append(set, "last_triggered_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Active; v != nil {
		set, args = append(set, "active = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, update.UID)

	stmt := `UPDATE reminder SET ` + strings.Join(set, ", ") + ` WHERE uid = ` + placeholder(len(args))
	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

func (d *DB) DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error {
	where, args := []string{}, []any{}

	if v := delete.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.NoteUID; v != nil {
		where, args = append(where, "note_uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(where) == 0 {
		return fmt.Errorf("no reminder delete selector given")
	}

	stmt := `DELETE FROM reminder WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	return nil
}

// CreateReminderEvents bulk-inserts firing history. The unique
// (reminder_uid, scheduled_ts) constraint plus ON CONFLICT DO NOTHING makes
// the insert idempotent for an already recorded slot.
func (d *DB) CreateReminderEvents(ctx context.Context, creates []*store.ReminderEvent) error {
	if len(creates) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := `INSERT INTO reminder_event (uid, reminder_uid, fired_ts, scheduled_ts, reason)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (reminder_uid, scheduled_ts) DO NOTHING`

	for _, create := range creates {
		if _, err := tx.ExecContext(ctx, stmt,
			create.UID, create.ReminderUID, create.FiredTs, create.ScheduledTs, create.Reason,
		); err != nil {
			return fmt.Errorf("failed to create reminder event: %w", err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListReminderEvents(ctx context.Context, find *store.FindReminderEvent) ([]*store.ReminderEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ReminderUID; v != nil {
		where, args = append(where, "reminder_event.reminder_uid = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, reminder_uid, fired_ts, scheduled_ts, reason
		FROM reminder_event
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY reminder_event.fired_ts ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ReminderEvent, 0)
	for rows.Next() {
		var event store.ReminderEvent
		if err := rows.Scan(
			&event.ID,
			&event.UID,
			&event.ReminderUID,
			&event.FiredTs,
			&event.ScheduledTs,
			&event.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder event: %w", err)
		}
		list = append(list, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminder events: %w", err)
	}

	return list, nil
}
