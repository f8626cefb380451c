package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// RunBatch evaluates all active reminders in scope once: due ones fire, each
// producing a TriggerEvent paired with its updated reminder. Events and
// reminder updates are persisted as two bulk writes. "Now" is snapshotted
// once so the whole pass is internally consistent.
//
// Firing is idempotent: within a pass, duplicates on (reminder, next
// trigger) are dropped here, and the store dedups the same key at write
// time, so overlapping passes do not double-insert history.
func (s *Service) RunBatch(ctx context.Context, scope Scope) ([]FiredEvent, error) {
	now := s.now().In(s.tz)

	reminders, err := s.store.ListActive(ctx, scope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active reminders")
	}

	fired := make([]FiredEvent, 0)
	seen := make(map[string]bool)
	var events []*TriggerEvent
	var updated []*Reminder

	for _, r := range reminders {
		pair, ok := s.evaluate(r, now, seen)
		if !ok {
			continue
		}
		events = append(events, pair.Event)
		updated = append(updated, pair.Reminder)
		fired = append(fired, pair)
	}

	if len(fired) == 0 {
		return fired, nil
	}

	if err := s.store.CreateTriggerEvents(ctx, events); err != nil {
		return nil, errors.Wrap(err, "failed to insert trigger events")
	}
	if err := s.store.UpdateReminders(ctx, updated); err != nil {
		return nil, errors.Wrap(err, "failed to update fired reminders")
	}

	s.logger.Info("batch pass fired reminders", slog.Int("count", len(fired)))
	return fired, nil
}

// evaluate decides whether one reminder fires in this pass and, if so,
// builds its (event, updated reminder) pair. Failures computing a single
// reminder never abort the batch; the reminder is skipped and logged.
func (s *Service) evaluate(r *Reminder, now time.Time, seen map[string]bool) (FiredEvent, bool) {
	if r == nil || !r.Active || r.NextTrigger.IsZero() || r.NextTrigger.After(now) {
		return FiredEvent{}, false
	}
	// Already fired for this slot and not yet recomputed: one-shot kinds go
	// inert here until snoozed or dismissed.
	if r.LastTriggered != nil && !r.LastTriggered.Before(r.NextTrigger) {
		return FiredEvent{}, false
	}

	key := r.ID + "|" + r.NextTrigger.UTC().Format(time.RFC3339)
	if seen[key] {
		return FiredEvent{}, false
	}
	seen[key] = true

	event := &TriggerEvent{
		ID:          uuid.New().String(),
		ReminderID:  r.ID,
		FiredAt:     now,
		ScheduledAt: r.NextTrigger,
		Reason:      r.Condition.Reason,
	}

	next := *r
	firedAt := now
	next.LastTriggered = &firedAt

	if r.Kind == KindFrequencyBased {
		if r.Condition.Frequency == nil {
			s.logger.Warn("frequency reminder missing condition, skipping recompute",
				slog.String("reminder", r.ID))
		} else {
			trigger := r.NextTrigger.In(s.tz)
			for !trigger.After(now) {
				trigger = advanceByFrequency(trigger, r.Condition.Frequency.Frequency)
			}
			next.NextTrigger = trigger
		}
	}

	return FiredEvent{Event: event, Reminder: &next}, true
}

// Scheduler is the periodic driver around RunBatch. The engine itself has
// no timer; cadence belongs to this runner or to an external caller.
type Scheduler struct {
	service  *Service
	interval time.Duration
	limiter  *rate.Limiter
	scope    Scope

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	logger  *slog.Logger

	firedChan chan int // for tests: reports fired count per cycle
}

// SchedulerConfig holds configuration for the batch driver.
type SchedulerConfig struct {
	Interval time.Duration // how often to run a batch pass
	Burst    int           // max immediate passes before rate limiting
	Scope    Scope
}

// NewScheduler creates a periodic batch driver. The rate limiter bounds
// bursty external invocations of RunOnce on top of the ticker cadence.
func NewScheduler(service *Service, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 2
	}

	return &Scheduler{
		service:  service,
		interval: config.Interval,
		limiter:  rate.NewLimiter(rate.Every(config.Interval/2), config.Burst),
		scope:    config.Scope,
		stopCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("reminder scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// EnableTestMode enables a channel reporting fired counts per cycle.
func (s *Scheduler) EnableTestMode() <-chan int {
	s.firedChan = make(chan int, 100)
	return s.firedChan
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	fired, err := s.service.RunBatch(ctx, s.scope)
	if err != nil {
		s.logger.Error("batch pass failed", slog.Any("error", err))
		return
	}

	if s.firedChan != nil {
		select {
		case s.firedChan <- len(fired):
		default:
		}
	}
}

// RunOnce runs a single batch pass on demand, subject to the rate limit.
// Returns the fired set; an empty set when the limiter rejects the call.
func (s *Scheduler) RunOnce(ctx context.Context) ([]FiredEvent, error) {
	if !s.limiter.Allow() {
		s.logger.Warn("batch pass rate limited")
		return nil, nil
	}
	return s.service.RunBatch(ctx, s.scope)
}
