package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where memora stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Timezone is the IANA zone used when a note carries no zone of its own.
	// Invalid values fall back to UTC at resolution time.
	Timezone string

	// Scheduler configuration
	SchedulerInterval time.Duration // MEMORA_SCHEDULER_INTERVAL (default: 1m)
	SchedulerBatch    int           // MEMORA_SCHEDULER_BATCH (default: 100)
	SnoozeHours       int           // MEMORA_SNOOZE_HOURS (default: 1)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from MEMORA_* environment variables.
func (p *Profile) FromEnv() {
	p.Timezone = getEnvOrDefault("MEMORA_TIMEZONE", "UTC")

	if v := os.Getenv("MEMORA_SCHEDULER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.SchedulerInterval = d
		}
	}
	if p.SchedulerInterval <= 0 {
		p.SchedulerInterval = time.Minute
	}

	if v := os.Getenv("MEMORA_SCHEDULER_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.SchedulerBatch = n
		}
	}
	if p.SchedulerBatch <= 0 {
		p.SchedulerBatch = 100
	}

	if v := os.Getenv("MEMORA_SNOOZE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.SnoozeHours = n
		}
	}
	if p.SnoozeHours <= 0 {
		p.SnoozeHours = 1
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "memora")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/memora"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("memora_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
