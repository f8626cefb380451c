package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/memora/internal/profile"
	"github.com/hrygo/memora/plugin/reminder"
	"github.com/hrygo/memora/server/timezone"
	"github.com/hrygo/memora/store"
	"github.com/hrygo/memora/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "memora",
	Short: "Memora is a reminder scheduling engine for personal notes",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile, err := buildProfile()
		if err != nil {
			return err
		}

		engine, err := openEngine(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer engine.Close()

		scheduler := reminder.NewScheduler(engine.service, reminder.SchedulerConfig{
			Interval: instanceProfile.SchedulerInterval,
		})
		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		slog.Info("memora started",
			slog.String("mode", instanceProfile.Mode),
			slog.String("driver", instanceProfile.Driver),
			slog.Duration("interval", instanceProfile.SchedulerInterval))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		scheduler.Stop()
		return nil
	},
}

// engine bundles the persistence layer with the reminder service built on it.
type engine struct {
	store   *store.Store
	bridge  *store.ReminderBridge
	service *reminder.Service
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
}

func buildProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func openEngine(ctx context.Context, p *profile.Profile) (*engine, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}

	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	bridge := store.NewReminderBridge(st)
	svc := reminder.NewService(bridge, timezone.ParseTimezoneOrDefault(p.Timezone))
	svc.SetSnoozeHours(p.SnoozeHours)

	return &engine{store: st, bridge: bridge, service: svc}, nil
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("memora")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
