package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// SubjectStore is the narrow view of the note-store the core needs: read a
// subject, and write back an inferred schedule.
type SubjectStore interface {
	GetSubject(ctx context.Context, id string) (*Subject, error)
	UpdateSubjectSchedule(ctx context.Context, id string, deliveryTime time.Time, mode DeliveryMode) error
}

// Integrator bridges subject lifecycle events to reminder maintenance.
type Integrator struct {
	service  *Service
	subjects SubjectStore
	logger   *slog.Logger
}

// NewIntegrator creates an integrator. subjects may be nil, in which case
// inferred schedules are not written back.
func NewIntegrator(service *Service, subjects SubjectStore) *Integrator {
	return &Integrator{
		service:  service,
		subjects: subjects,
		logger:   slog.Default(),
	}
}

// OnSubjectCreated analyzes a new subject and materializes every viable
// candidate. When a time-based reminder was inferred for a subject that had
// no explicit schedule, the inferred delivery time is written back so the
// note itself reflects it.
func (i *Integrator) OnSubjectCreated(ctx context.Context, subject *Subject) ([]*Reminder, error) {
	if subject == nil {
		return nil, nil
	}

	var created []*Reminder
	for _, d := range i.service.Analyze(subject) {
		reminder, err := i.service.Materialize(ctx, subject, d)
		if err != nil {
			i.logger.Warn("failed to materialize reminder",
				slog.String("subject", subject.ID),
				slog.String("description", d.Description),
				slog.Any("error", err))
			continue
		}
		if reminder == nil {
			continue
		}
		created = append(created, reminder)
	}

	i.writeBackSchedule(ctx, subject, created)
	return created, nil
}

// OnSubjectUpdated drops the subject's reminders and rebuilds them from the
// new content.
func (i *Integrator) OnSubjectUpdated(ctx context.Context, subject *Subject) ([]*Reminder, error) {
	if subject == nil {
		return nil, nil
	}
	if err := i.service.store.DeleteBySubject(ctx, subject.ID); err != nil {
		return nil, errors.Wrap(err, "failed to drop stale reminders")
	}
	return i.OnSubjectCreated(ctx, subject)
}

// OnSubjectDeleted cascades subject deletion to its reminders.
func (i *Integrator) OnSubjectDeleted(ctx context.Context, subjectID string) error {
	return i.service.store.DeleteBySubject(ctx, subjectID)
}

// writeBackSchedule records the earliest inferred target time on a subject
// that had no explicit schedule of its own.
func (i *Integrator) writeBackSchedule(ctx context.Context, subject *Subject, created []*Reminder) {
	if i.subjects == nil || subject.DeliveryTime != nil {
		return
	}

	var target time.Time
	for _, r := range created {
		if r.Condition.Time == nil || r.Condition.Time.TargetTime.IsZero() {
			continue
		}
		if target.IsZero() || r.Condition.Time.TargetTime.Before(target) {
			target = r.Condition.Time.TargetTime
		}
	}
	if target.IsZero() {
		return
	}

	if err := i.subjects.UpdateSubjectSchedule(ctx, subject.ID, target, DeliveryScheduled); err != nil {
		i.logger.Warn("failed to write back inferred schedule",
			slog.String("subject", subject.ID),
			slog.Any("error", err))
	}
}
