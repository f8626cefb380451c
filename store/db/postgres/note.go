package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/memora/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	fields := []string{
		"uid", "creator_id", "content", "category", "importance",
		"delivery_ts", "delivery_mode",
	}
	placeholderValues := []any{
		create.UID, create.CreatorID, create.Content, create.Category, create.Importance,
		create.DeliveryTs, create.DeliveryMode,
	}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO note (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "note.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "note.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "note.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "note.row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DeliveryMode; v != nil {
		where, args = append(where, "note.delivery_mode = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.HasDelivery; v != nil {
		if *v {
			where = append(where, "note.delivery_ts IS NOT NULL")
		} else {
			where = append(where, "note.delivery_ts IS NULL")
		}
	}
	if v := find.DeliveredBefore; v != nil {
		where, args = append(where, "note.delivery_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, creator_id, created_ts, updated_ts, row_status,
			content, category, importance, delivery_ts, delivery_mode
		FROM note
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY note.created_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Note, 0)
	for rows.Next() {
		var note store.Note
		var deliveryTs sql.NullInt64

		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.RowStatus,
			&note.Content,
			&note.Category,
			&note.Importance,
			&deliveryTs,
			&note.DeliveryMode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}

		if deliveryTs.Valid {
			note.DeliveryTs = &deliveryTs.Int64
		}

		list = append(list, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Content; v != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Category; v != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Importance; v != nil {
		set, args = append(set, "importance = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.DeliveryTs; v != nil {
		set, args = append(set, "delivery_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.DeliveryMode; v != nil {
		set, args = append(set, "delivery_mode = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)

	stmt := `UPDATE note SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

func (d *DB) DeleteNote(ctx context.Context, delete *store.DeleteNote) error {
	stmt := `DELETE FROM note WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("note not found")
	}

	return nil
}
