package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Note is the object representing a user note. A note is the subject a
// reminder is attached to; the reminder engine reads it and may write back
// an inferred delivery schedule.
type Note struct {
	ID        int32
	UID       string
	CreatorID int32
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	Content    string
	Category   string
	Importance int32

	// Delivery schedule. DeliveryTs is nil for notes without one.
	DeliveryTs   *int64
	DeliveryMode string
}

// FindNote is the find condition for note.
type FindNote struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus

	// Delivery filters
	DeliveryMode    *string
	HasDelivery     *bool
	DeliveredBefore *int64

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateNote is the update request for note.
type UpdateNote struct {
	ID           int32
	UpdatedTs    *int64
	RowStatus    *RowStatus
	Content      *string
	Category     *string
	Importance   *int32
	DeliveryTs   *int64
	DeliveryMode *string
}

// DeleteNote is the delete request for note.
type DeleteNote struct {
	ID int32
}

// CreateNote creates a new note.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateNote(ctx, create)
}

// ListNotes lists notes with filter.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote gets a note by find condition.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	if find.UID != nil {
		if cached, ok := s.noteCache.Get(*find.UID); ok {
			if note, ok := cached.(*Note); ok {
				return note, nil
			}
		}
	}

	list, err := s.driver.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	note := list[0]
	s.noteCache.Set(note.UID, note)
	return note, nil
}

// UpdateNote updates a note.
func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	if err := s.driver.UpdateNote(ctx, update); err != nil {
		return err
	}
	s.invalidateNoteCache(ctx, update.ID)
	return nil
}

// DeleteNote deletes a note.
func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	s.invalidateNoteCache(ctx, delete.ID)
	return s.driver.DeleteNote(ctx, delete)
}

func (s *Store) invalidateNoteCache(ctx context.Context, id int32) {
	list, err := s.driver.ListNotes(ctx, &FindNote{ID: &id})
	if err != nil || len(list) == 0 {
		return
	}
	s.noteCache.Delete(list[0].UID)
}

// ParseDeliveryTime parses the note delivery time to time.Time.
func (n *Note) ParseDeliveryTime() *time.Time {
	if n.DeliveryTs == nil {
		return nil
	}
	t := time.Unix(*n.DeliveryTs, 0)
	return &t
}
