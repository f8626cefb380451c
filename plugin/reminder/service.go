package reminder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/memora/plugin/timeparse"
)

// DefaultSnoozeHours is used when a snooze request carries no duration.
const DefaultSnoozeHours = 1

// ReminderStore is the persistence boundary for reminders and their firing
// history. Bulk methods exist so a batch pass writes each collection once.
type ReminderStore interface {
	CreateReminder(ctx context.Context, reminder *Reminder) error
	GetReminder(ctx context.Context, id string) (*Reminder, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*Reminder, error)
	ListActive(ctx context.Context, scope Scope) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, reminder *Reminder) error
	DeleteBySubject(ctx context.Context, subjectID string) error

	// CreateTriggerEvents bulk-inserts firing history. Implementations must
	// dedup on (ReminderID, ScheduledAt) so re-evaluating an already-fired
	// reminder never double-inserts for the same instant.
	CreateTriggerEvents(ctx context.Context, events []*TriggerEvent) error
	// UpdateReminders bulk-updates reminder state after a batch pass.
	UpdateReminders(ctx context.Context, reminders []*Reminder) error
	ListTriggerEvents(ctx context.Context, reminderID string) ([]*TriggerEvent, error)
}

// Scope narrows a batch pass, typically to one user. Zero value means all.
type Scope struct {
	UserID *int32
}

// Service owns the reminder lifecycle: analysis, materialization, snoozing
// and dismissal. Batch evaluation lives in the scheduler.
type Service struct {
	store       ReminderStore
	analyzer    *Analyzer
	tz          *time.Location
	now         func() time.Time
	snoozeHours int
	logger      *slog.Logger
}

// NewService creates a reminder service resolving times in the given zone.
func NewService(store ReminderStore, tz *time.Location) *Service {
	if tz == nil {
		tz = time.UTC
	}
	return &Service{
		store:       store,
		analyzer:    NewAnalyzer(tz),
		tz:          tz,
		now:         time.Now,
		snoozeHours: DefaultSnoozeHours,
		logger:      slog.Default(),
	}
}

// WithNow returns a service with a fixed clock. The analyzer inherits it.
func (s *Service) WithNow(now func() time.Time) *Service {
	return &Service{
		store:       s.store,
		analyzer:    s.analyzer.WithNow(now),
		tz:          s.tz,
		now:         now,
		snoozeHours: s.snoozeHours,
		logger:      s.logger,
	}
}

// SetLogger sets a custom logger.
func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetSnoozeHours overrides the default snooze duration. Non-positive values
// are ignored.
func (s *Service) SetSnoozeHours(hours int) {
	if hours > 0 {
		s.snoozeHours = hours
	}
}

// Analyze returns candidate reminder descriptors for a subject. Pure: it
// reads the subject and the clock, never the store.
func (s *Service) Analyze(subject *Subject) []Descriptor {
	return s.analyzer.Analyze(subject)
}

// Materialize persists a Reminder from a descriptor. It returns (nil, nil)
// when the computed lead time is non-positive even after the single
// roll-forward retry; that is a normal outcome, not an error.
func (s *Service) Materialize(ctx context.Context, subject *Subject, d Descriptor) (*Reminder, error) {
	if subject == nil {
		return nil, errors.New("subject is nil")
	}

	now := s.now().In(s.tz)

	condition, nextTrigger, ok := s.computeTrigger(subject, d, now)
	if !ok {
		return nil, nil
	}

	reminder := &Reminder{
		ID:          uuid.New().String(),
		SubjectID:   subject.ID,
		UserID:      subject.UserID,
		Kind:        d.Kind,
		Priority:    maxPriority(d.Priority, PriorityFor(subject.Importance)),
		Condition:   condition,
		NextTrigger: nextTrigger,
		Active:      true,
		CreatedAt:   now,
	}

	if err := s.store.CreateReminder(ctx, reminder); err != nil {
		return nil, errors.Wrap(err, "failed to create reminder")
	}

	s.logger.Info("reminder created",
		slog.String("reminder", reminder.ID),
		slog.String("subject", subject.ID),
		slog.String("kind", string(d.Kind)),
		slog.Time("next_trigger", nextTrigger))

	return reminder, nil
}

// computeTrigger resolves the descriptor draft into a concrete condition and
// first trigger time.
func (s *Service) computeTrigger(subject *Subject, d Descriptor, now time.Time) (TriggerCondition, time.Time, bool) {
	switch d.Kind {
	case KindTimeBased:
		return s.computeTimeBased(subject, d, now)
	case KindDateBased:
		return s.computeDateBased(d, now)
	case KindFrequencyBased:
		return s.computeFrequencyBased(d, now)
	case KindContextBased:
		cond := d.Condition
		if cond.Context == nil {
			cond.Context = &ContextBasedCondition{}
		}
		cond.Kind = KindContextBased
		return cond, nextMorning(now, s.tz), true
	default:
		return TriggerCondition{}, time.Time{}, false
	}
}

// computeTimeBased resolves a clock time against the current day, applies
// date-context modifiers from the source text, and subtracts the advance
// offset. When the lead is non-positive and the target is today, the target
// rolls forward one day and the computation retries once.
func (s *Service) computeTimeBased(subject *Subject, d Descriptor, now time.Time) (TriggerCondition, time.Time, bool) {
	var target time.Time
	switch {
	case d.FromDeliveryTime && d.Condition.Time != nil && !d.Condition.Time.TargetTime.IsZero():
		target = d.Condition.Time.TargetTime.In(s.tz)
		return s.scheduleFromDelivery(subject, d, target, now)
	case d.HasTime:
		target = time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, s.tz)
		target = applyDateContext(target, d.Source, now)
	default:
		return TriggerCondition{}, time.Time{}, false
	}

	advance := d.OffsetMinutes
	if advance <= 0 {
		advance = defaultAdvanceMinutes
	}

	untilTarget := int(target.Sub(now).Minutes())
	if untilTarget < advance {
		advance = untilTarget - 1
		if advance < 1 {
			advance = 1
		}
	}

	if untilTarget-advance <= 0 {
		// Retry once with the target rolled to tomorrow, but only when the
		// target was still today; otherwise give up.
		if !sameDay(target, now) {
			return TriggerCondition{}, time.Time{}, false
		}
		target = target.AddDate(0, 0, 1)
		advance = d.OffsetMinutes
		if advance <= 0 {
			advance = defaultAdvanceMinutes
		}
		untilTarget = int(target.Sub(now).Minutes())
		if untilTarget-advance <= 0 {
			return TriggerCondition{}, time.Time{}, false
		}
	}

	nextTrigger := target.Add(-time.Duration(advance) * time.Minute)
	cond := d.Condition
	cond.Kind = KindTimeBased
	cond.Time = &TimeBasedCondition{
		TargetTime:    target,
		ReminderTime:  nextTrigger,
		OffsetMinutes: advance,
	}
	return cond, nextTrigger, true
}

// scheduleFromDelivery picks the largest viable advance-notice offset for a
// subject with an explicit delivery timestamp. Offsets that would land in
// the past are discarded; when none survive, the activity offset is tried
// before giving up.
func (s *Service) scheduleFromDelivery(subject *Subject, d Descriptor, target, now time.Time) (TriggerCondition, time.Time, bool) {
	if !target.After(now) {
		return TriggerCondition{}, time.Time{}, false
	}

	for _, hours := range AdvanceOffsets(subject.Importance, subject.Category, subject.Content) {
		reminderTime := target.Add(-time.Duration(hours * float64(time.Hour)))
		if reminderTime.After(now) {
			cond := d.Condition
			cond.Kind = KindTimeBased
			cond.Time = &TimeBasedCondition{
				TargetTime:    target,
				ReminderTime:  reminderTime,
				OffsetMinutes: int(hours * 60),
			}
			return cond, reminderTime, true
		}
	}

	// Delivery is closer than every policy offset; fall back to a shrunk
	// minute-level advance.
	advance := int(target.Sub(now).Minutes()) - 1
	if advance < 1 {
		return TriggerCondition{}, time.Time{}, false
	}
	if advance > d.OffsetMinutes && d.OffsetMinutes > 0 {
		advance = d.OffsetMinutes
	}
	reminderTime := target.Add(-time.Duration(advance) * time.Minute)
	cond := d.Condition
	cond.Kind = KindTimeBased
	cond.Time = &TimeBasedCondition{
		TargetTime:    target,
		ReminderTime:  reminderTime,
		OffsetMinutes: advance,
	}
	return cond, reminderTime, true
}

func (s *Service) computeDateBased(d Descriptor, now time.Time) (TriggerCondition, time.Time, bool) {
	cond := d.Condition
	cond.Kind = KindDateBased
	if cond.Date == nil || cond.Date.TargetDate.IsZero() {
		cond.Date = &DateBasedCondition{TargetDate: nextMorning(now, s.tz)}
	}
	target := cond.Date.TargetDate.In(s.tz)
	if !target.After(now) {
		return TriggerCondition{}, time.Time{}, false
	}
	return cond, target, true
}

func (s *Service) computeFrequencyBased(d Descriptor, now time.Time) (TriggerCondition, time.Time, bool) {
	cond := d.Condition
	cond.Kind = KindFrequencyBased
	if cond.Frequency == nil {
		cond.Frequency = &FrequencyBasedCondition{Frequency: timeparse.FrequencyDaily}
	}
	if cond.Frequency.Frequency == timeparse.FrequencyNone {
		cond.Frequency.Frequency = timeparse.FrequencyDaily
	}
	if d.HasTime {
		cond.Frequency.Hour, cond.Frequency.Minute = d.Hour, d.Minute
	} else if cond.Frequency.Hour == 0 && cond.Frequency.Minute == 0 {
		cond.Frequency.Hour = timeparse.DefaultAnchorHour
	}

	next := nextOccurrence(cond.Frequency, now, s.tz)
	if !next.After(now) {
		return TriggerCondition{}, time.Time{}, false
	}
	return cond, next, true
}

// Snooze pushes a reminder's next trigger N hours from now and clears its
// last-triggered mark, returning it to pending. Snoozing a dismissed
// reminder is ignored; dismissal is terminal.
func (s *Service) Snooze(ctx context.Context, id string, hours int) error {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return errors.Wrap(err, "failed to get reminder")
	}
	if !reminder.Active {
		return nil
	}
	if hours <= 0 {
		hours = s.snoozeHours
	}

	reminder.NextTrigger = s.now().In(s.tz).Add(time.Duration(hours) * time.Hour)
	reminder.LastTriggered = nil

	if err := s.store.UpdateReminder(ctx, reminder); err != nil {
		return errors.Wrap(err, "failed to snooze reminder")
	}

	s.logger.Info("reminder snoozed",
		slog.String("reminder", id),
		slog.Int("hours", hours),
		slog.Time("next_trigger", reminder.NextTrigger))
	return nil
}

// Dismiss deactivates a reminder permanently. Idempotent.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return errors.Wrap(err, "failed to get reminder")
	}
	if !reminder.Active {
		return nil
	}

	reminder.Active = false
	if err := s.store.UpdateReminder(ctx, reminder); err != nil {
		return errors.Wrap(err, "failed to dismiss reminder")
	}

	s.logger.Info("reminder dismissed", slog.String("reminder", id))
	return nil
}

// ListActive returns the active reminders for a user.
func (s *Service) ListActive(ctx context.Context, userID int32) ([]*Reminder, error) {
	return s.store.ListActive(ctx, Scope{UserID: &userID})
}

// applyDateContext shifts a same-day target by the date-context phrases
// still present in the source text. A named weekday always rolls to that
// day's next occurrence, treating today as a week out.
func applyDateContext(target time.Time, source string, now time.Time) time.Time {
	source = strings.ToLower(source)
	switch {
	case strings.Contains(source, "tonight"):
		if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
	case strings.Contains(source, "tomorrow"):
		target = target.AddDate(0, 0, 1)
	case strings.Contains(source, "next week"):
		target = target.AddDate(0, 0, 7)
	case strings.Contains(source, "next month"):
		target = target.AddDate(0, 0, 30)
	default:
		if wd, ok := timeparse.FindWeekday(source); ok {
			target = target.AddDate(0, 0, timeparse.DaysUntilWeekday(now.Weekday(), wd))
		} else if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
	}
	return target
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func nextMorning(now time.Time, tz *time.Location) time.Time {
	morning := time.Date(now.Year(), now.Month(), now.Day(), timeparse.DefaultAnchorHour, 0, 0, 0, tz)
	if !morning.After(now) {
		morning = morning.AddDate(0, 0, 1)
	}
	return morning
}

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// maxPriority keeps the stronger of the detector's placeholder and the
// importance-derived label.
func maxPriority(a, b Priority) Priority {
	if a == "" {
		return b
	}
	if priorityRank[a] >= priorityRank[b] {
		return a
	}
	return b
}
