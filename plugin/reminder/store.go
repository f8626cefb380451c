package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of ReminderStore for tests and
// single-process development runs. It applies the same (reminder, scheduled
// at) write-time dedup the SQL drivers do.
type MemoryStore struct {
	reminders map[string]*Reminder
	events    []*TriggerEvent
	eventKeys map[string]bool
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory reminder store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders: make(map[string]*Reminder),
		eventKeys: make(map[string]bool),
	}
}

// CreateReminder stores a new reminder.
func (s *MemoryStore) CreateReminder(ctx context.Context, reminder *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[reminder.ID]; exists {
		return fmt.Errorf("reminder already exists: %s", reminder.ID)
	}

	clone := *reminder
	s.reminders[reminder.ID] = &clone
	return nil
}

// GetReminder retrieves a reminder by ID.
func (s *MemoryStore) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminder, ok := s.reminders[id]
	if !ok {
		return nil, fmt.Errorf("reminder not found: %s", id)
	}

	clone := *reminder
	return &clone, nil
}

// ListBySubject retrieves all reminders attached to a subject.
func (s *MemoryStore) ListBySubject(ctx context.Context, subjectID string) ([]*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Reminder
	for _, r := range s.reminders {
		if r.SubjectID == subjectID {
			clone := *r
			result = append(result, &clone)
		}
	}

	return result, nil
}

// ListActive retrieves active reminders, optionally scoped to one user.
func (s *MemoryStore) ListActive(ctx context.Context, scope Scope) ([]*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Reminder
	for _, r := range s.reminders {
		if !r.Active {
			continue
		}
		if scope.UserID != nil && r.UserID != *scope.UserID {
			continue
		}
		clone := *r
		result = append(result, &clone)
	}

	return result, nil
}

// UpdateReminder updates an existing reminder.
func (s *MemoryStore) UpdateReminder(ctx context.Context, reminder *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[reminder.ID]; !exists {
		return fmt.Errorf("reminder not found: %s", reminder.ID)
	}

	clone := *reminder
	s.reminders[reminder.ID] = &clone
	return nil
}

// DeleteBySubject removes all reminders attached to a subject.
func (s *MemoryStore) DeleteBySubject(ctx context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.reminders {
		if r.SubjectID == subjectID {
			delete(s.reminders, id)
		}
	}
	return nil
}

// CreateTriggerEvents bulk-inserts firing history, skipping duplicates on
// the (reminder, scheduled at) key.
func (s *MemoryStore) CreateTriggerEvents(ctx context.Context, events []*TriggerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		key := ev.ReminderID + "|" + ev.ScheduledAt.UTC().Format(time.RFC3339)
		if s.eventKeys[key] {
			continue
		}
		s.eventKeys[key] = true
		clone := *ev
		s.events = append(s.events, &clone)
	}
	return nil
}

// UpdateReminders bulk-updates reminders. Unknown IDs are skipped rather
// than failing the batch.
func (s *MemoryStore) UpdateReminders(ctx context.Context, reminders []*Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reminders {
		if _, exists := s.reminders[r.ID]; !exists {
			continue
		}
		clone := *r
		s.reminders[r.ID] = &clone
	}
	return nil
}

// ListTriggerEvents retrieves firing history for one reminder.
func (s *MemoryStore) ListTriggerEvents(ctx context.Context, reminderID string) ([]*TriggerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TriggerEvent
	for _, ev := range s.events {
		if ev.ReminderID == reminderID {
			clone := *ev
			result = append(result, &clone)
		}
	}
	return result, nil
}
