// Package reminder turns free-form note text into concrete future trigger
// times and runs the check-and-fire lifecycle around them.
package reminder

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/memora/plugin/timeparse"
)

// Kind defines how a reminder decides when to fire.
type Kind string

const (
	KindTimeBased      Kind = "time_based"
	KindDateBased      Kind = "date_based"
	KindFrequencyBased Kind = "frequency_based"
	KindContextBased   Kind = "context_based"
)

// Priority is the urgency label attached to a reminder. Derived solely from
// subject importance, independent of which advance offset is chosen.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DeliveryMode describes how a subject wants to be delivered to the user.
type DeliveryMode string

const (
	DeliveryImmediate   DeliveryMode = "immediate"
	DeliveryScheduled   DeliveryMode = "scheduled"
	DeliveryRecurring   DeliveryMode = "recurring"
	DeliveryConditional DeliveryMode = "conditional"
)

// Subject is the read-only view of the note a reminder is attached to.
// The note-store owns it; this package only reads it and writes back an
// inferred delivery time/mode through the SubjectStore.
type Subject struct {
	ID           string
	UserID       int32
	Content      string
	DeliveryTime *time.Time
	DeliveryMode DeliveryMode
	Importance   int // 1-10
	Category     string
	CreatedAt    time.Time
}

// TimeBasedCondition fires once at a clock time minus an advance offset.
type TimeBasedCondition struct {
	TargetTime    time.Time
	ReminderTime  time.Time
	OffsetMinutes int
}

// DateBasedCondition fires once on a calendar date.
type DateBasedCondition struct {
	TargetDate time.Time
}

// FrequencyBasedCondition fires on a fixed period, optionally pinned to a
// weekday and clock time.
type FrequencyBasedCondition struct {
	Frequency timeparse.Frequency
	TargetDay string // weekday name, empty when unpinned
	Hour      int
	Minute    int
}

// ContextBasedCondition fires when the caller decides its conditions hold.
// The core stores and surfaces it but never evaluates the conditions itself.
type ContextBasedCondition struct {
	Conditions []string
}

// TriggerCondition is a tagged union keyed by reminder kind. Exactly one of
// the variant fields is set for a well-formed condition. Reason is common to
// all variants and is copied verbatim into TriggerEvents at fire time.
type TriggerCondition struct {
	Kind   Kind
	Reason string

	Time      *TimeBasedCondition
	Date      *DateBasedCondition
	Frequency *FrequencyBasedCondition
	Context   *ContextBasedCondition
}

// conditionPayload is the persisted wire shape of a TriggerCondition: a flat
// key/value object. Consumers must tolerate unknown and absent keys, so every
// field is optional and decoding never fails on extras.
type conditionPayload struct {
	Kind          Kind     `json:"kind,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	TargetTime    *int64   `json:"target_time,omitempty"`
	ReminderTime  *int64   `json:"reminder_time,omitempty"`
	OffsetMinutes *int     `json:"offset_minutes,omitempty"`
	TargetDate    *int64   `json:"target_date,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	TargetDay     string   `json:"target_day,omitempty"`
	Hour          *int     `json:"hour,omitempty"`
	Minute        *int     `json:"minute,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
}

// MarshalJSON flattens the union into the persisted key/value payload.
func (c TriggerCondition) MarshalJSON() ([]byte, error) {
	p := conditionPayload{
		Kind:   c.Kind,
		Reason: c.Reason,
	}
	switch {
	case c.Time != nil:
		tt, rt := c.Time.TargetTime.Unix(), c.Time.ReminderTime.Unix()
		p.TargetTime, p.ReminderTime = &tt, &rt
		p.OffsetMinutes = &c.Time.OffsetMinutes
	case c.Date != nil:
		td := c.Date.TargetDate.Unix()
		p.TargetDate = &td
	case c.Frequency != nil:
		p.Frequency = string(c.Frequency.Frequency)
		p.TargetDay = c.Frequency.TargetDay
		p.Hour, p.Minute = &c.Frequency.Hour, &c.Frequency.Minute
	case c.Context != nil:
		p.Conditions = c.Context.Conditions
	}
	return json.Marshal(p)
}

// UnmarshalJSON rebuilds the union from the flat payload. Unknown keys are
// ignored; a payload without a recognizable kind decodes to an empty
// condition rather than failing.
func (c *TriggerCondition) UnmarshalJSON(data []byte) error {
	var p conditionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "failed to decode trigger condition")
	}

	*c = TriggerCondition{Kind: p.Kind, Reason: p.Reason}
	switch p.Kind {
	case KindTimeBased:
		tb := &TimeBasedCondition{}
		if p.TargetTime != nil {
			tb.TargetTime = time.Unix(*p.TargetTime, 0).UTC()
		}
		if p.ReminderTime != nil {
			tb.ReminderTime = time.Unix(*p.ReminderTime, 0).UTC()
		}
		if p.OffsetMinutes != nil {
			tb.OffsetMinutes = *p.OffsetMinutes
		}
		c.Time = tb
	case KindDateBased:
		db := &DateBasedCondition{}
		if p.TargetDate != nil {
			db.TargetDate = time.Unix(*p.TargetDate, 0).UTC()
		}
		c.Date = db
	case KindFrequencyBased:
		fb := &FrequencyBasedCondition{
			Frequency: timeparse.Frequency(p.Frequency),
			TargetDay: p.TargetDay,
		}
		if p.Hour != nil {
			fb.Hour = *p.Hour
		}
		if p.Minute != nil {
			fb.Minute = *p.Minute
		}
		c.Frequency = fb
	case KindContextBased:
		c.Context = &ContextBasedCondition{Conditions: p.Conditions}
	}
	return nil
}

// Reminder is the scheduled entity. Mutated only by the scheduler (firing,
// snoozing) or by explicit dismissal; deleted only when its subject is.
type Reminder struct {
	ID            string
	SubjectID     string
	UserID        int32
	Kind          Kind
	Priority      Priority
	Condition     TriggerCondition
	NextTrigger   time.Time
	LastTriggered *time.Time
	Active        bool
	CreatedAt     time.Time
}

// TriggerEvent is one row of append-only firing history.
type TriggerEvent struct {
	ID         string
	ReminderID string
	FiredAt    time.Time
	// ScheduledAt is the next_trigger value that made the reminder due.
	// Firing dedups on (ReminderID, ScheduledAt) at write time.
	ScheduledAt time.Time
	Reason      string
}

// FiredEvent pairs one firing with the reminder state it produced, so batch
// callers never reassemble the two by index.
type FiredEvent struct {
	Event    *TriggerEvent
	Reminder *Reminder
}

// Descriptor is a candidate reminder produced by analysis: kind, priority,
// a human-readable description and a trigger-condition draft. Descriptors
// become Reminders only through Materialize.
type Descriptor struct {
	Kind        Kind
	Priority    Priority
	Description string
	Condition   TriggerCondition

	// OffsetMinutes is the activity-specific advance offset for time_based
	// candidates, applied before the importance-derived offsets.
	OffsetMinutes int

	// Clock draft for time_based candidates. Materialize resolves it against
	// the current day and the date-context modifiers still present in Source.
	Hour    int
	Minute  int
	HasTime bool
	Source  string

	// FromDeliveryTime marks descriptors derived from an explicit subject
	// delivery timestamp; these take precedence over detected ones.
	FromDeliveryTime bool
}
