package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) error
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// Reminder model related methods.
	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, update *UpdateReminder) error
	UpdateReminders(ctx context.Context, updates []*UpdateReminder) error
	DeleteReminder(ctx context.Context, delete *DeleteReminder) error

	// ReminderEvent model related methods.
	CreateReminderEvents(ctx context.Context, creates []*ReminderEvent) error
	ListReminderEvents(ctx context.Context, find *FindReminderEvent) ([]*ReminderEvent, error)
}
