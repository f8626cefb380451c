package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/memora/plugin/reminder"
	"github.com/hrygo/memora/internal/observability"
	"github.com/hrygo/memora/server/timezone"
	"github.com/hrygo/memora/store"
)

var (
	remindersUser  int32
	backfillDryRun bool
	cleanupDays    int
)

var checkRemindersCmd = &cobra.Command{
	Use:   "check-reminders",
	Short: "Run one check-and-fire pass and print fired reminders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		instanceProfile, err := buildProfile()
		if err != nil {
			return err
		}
		engine, err := openEngine(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer engine.Close()

		passCtx := observability.NewPassContext(slog.Default(), remindersUser)
		fired, err := engine.service.RunBatch(observability.WithPassContext(ctx, passCtx), scopeFromFlags())
		if err != nil {
			passCtx.Error("check pass failed", err)
			return err
		}
		passCtx.Complete(len(fired))

		tz := timezone.ParseTimezoneOrDefault(instanceProfile.Timezone)
		for _, f := range fired {
			fmt.Printf("fired %s at %s (scheduled %s): %s\n",
				f.Event.ReminderID,
				timezone.FormatTriggerTime(f.Event.FiredAt, tz),
				timezone.FormatTriggerTime(f.Event.ScheduledAt, tz),
				f.Event.Reason)
		}
		fmt.Printf("%d reminder(s) fired\n", len(fired))
		return nil
	},
}

var backfillRemindersCmd = &cobra.Command{
	Use:   "backfill-reminders",
	Short: "Create reminders for scheduled notes that have none",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		instanceProfile, err := buildProfile()
		if err != nil {
			return err
		}
		engine, err := openEngine(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer engine.Close()

		hasDelivery := true
		find := &store.FindNote{HasDelivery: &hasDelivery}
		if remindersUser != 0 {
			find.CreatorID = &remindersUser
		}
		notes, err := engine.store.ListNotes(ctx, find)
		if err != nil {
			return err
		}

		created := 0
		for _, note := range notes {
			existing, err := engine.bridge.ListBySubject(ctx, note.UID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				continue
			}

			subject := store.NoteToSubject(note)
			descriptors := engine.service.Analyze(subject)
			if len(descriptors) == 0 {
				continue
			}

			if backfillDryRun {
				fmt.Printf("note %s: would create %d reminder(s)\n", note.UID, len(descriptors))
				continue
			}
			for _, d := range descriptors {
				r, err := engine.service.Materialize(ctx, subject, d)
				if err != nil {
					return err
				}
				if r != nil {
					created++
				}
			}
		}

		fmt.Printf("%d reminder(s) created over %d note(s)\n", created, len(notes))
		return nil
	},
}

var cleanupRemindersCmd = &cobra.Command{
	Use:   "cleanup-reminders",
	Short: "Dismiss active reminders whose trigger time is long past",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		instanceProfile, err := buildProfile()
		if err != nil {
			return err
		}
		engine, err := openEngine(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer engine.Close()

		cutoff := time.Now().Add(-time.Duration(cleanupDays) * 24 * time.Hour).Unix()
		active := true
		stale, err := engine.store.ListReminders(ctx, &store.FindReminder{
			Active:            &active,
			NextTriggerBefore: &cutoff,
		})
		if err != nil {
			return err
		}

		for _, r := range stale {
			if err := engine.service.Dismiss(ctx, r.UID); err != nil {
				return err
			}
		}
		fmt.Printf("%d stale reminder(s) dismissed\n", len(stale))
		return nil
	},
}

func scopeFromFlags() reminder.Scope {
	var scope reminder.Scope
	if remindersUser != 0 {
		scope.UserID = &remindersUser
	}
	return scope
}

func init() {
	checkRemindersCmd.Flags().Int32Var(&remindersUser, "user", 0, "limit the pass to one user id")
	backfillRemindersCmd.Flags().Int32Var(&remindersUser, "user", 0, "limit the backfill to one user id")
	backfillRemindersCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "report what would be created without writing")
	cleanupRemindersCmd.Flags().IntVar(&cleanupDays, "days", 30, "dismiss active reminders overdue by this many days")

	rootCmd.AddCommand(checkRemindersCmd)
	rootCmd.AddCommand(backfillRemindersCmd)
	rootCmd.AddCommand(cleanupRemindersCmd)
}
