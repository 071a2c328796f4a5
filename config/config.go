/*
Package config loads server configuration.

SOURCES (later wins):
  1. .env file in the working directory (optional)
  2. Environment variables
  3. Command-line flags

SETTINGS:
  PORT               -port               HTTP port (8080)
  DB_PATH            -db                 SQLite path (payroll.db); ":memory:" for an
                                         ephemeral SQLite DB, "memory" for the
                                         in-process store
  CORS_ORIGINS       -cors-origins       comma-separated allowed origins (*)
  RECONCILE_SCHEDULE -reconcile-schedule cron spec for month-end reconciliation
  RECONCILE_ENABLED  -reconcile          run the scheduler (true)
  WORKING_DAYS       -working-days       "calendar" or "weekdays"
*/
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/warp/payroll-engine/payroll"
)

const (
	// MemoryStore selects the in-process store instead of SQLite.
	MemoryStore = "memory"

	WorkingDaysCalendar = "calendar"
	WorkingDaysWeekdays = "weekdays"

	// DefaultReconcileSchedule runs at 01:00 on the first day of every month.
	DefaultReconcileSchedule = "0 1 1 * *"
)

// Config holds all configuration for the server.
type Config struct {
	Port              int
	DBPath            string
	CORSOrigins       []string
	ReconcileSchedule string
	ReconcileEnabled  bool
	WorkingDays       string
}

// Load reads envFiles (default ".env"), then the environment, then args.
// A missing env file is not an error.
func Load(args []string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[Config] Warning: .env file not found, using environment variables")
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	enabled, err := strconv.ParseBool(getEnv("RECONCILE_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_ENABLED: %w", err)
	}

	cfg := &Config{}
	var origins string

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", getEnv("DB_PATH", "payroll.db"), `SQLite database path (":memory:" ephemeral, "memory" in-process store)`)
	fs.StringVar(&origins, "cors-origins", getEnv("CORS_ORIGINS", "*"), "comma-separated allowed CORS origins")
	fs.StringVar(&cfg.ReconcileSchedule, "reconcile-schedule", getEnv("RECONCILE_SCHEDULE", DefaultReconcileSchedule), "cron spec for month-end reconciliation")
	fs.BoolVar(&cfg.ReconcileEnabled, "reconcile", enabled, "run scheduled month-end reconciliation")
	fs.StringVar(&cfg.WorkingDays, "working-days", getEnv("WORKING_DAYS", WorkingDaysCalendar), `working days per month: "calendar" or "weekdays"`)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(origins)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.WorkingDays != WorkingDaysCalendar && c.WorkingDays != WorkingDaysWeekdays {
		return fmt.Errorf("invalid WORKING_DAYS: '%s' (must be '%s' or '%s')",
			c.WorkingDays, WorkingDaysCalendar, WorkingDaysWeekdays)
	}
	if _, err := cron.ParseStandard(c.ReconcileSchedule); err != nil {
		return fmt.Errorf("invalid RECONCILE_SCHEDULE %q: %w", c.ReconcileSchedule, err)
	}
	return nil
}

// UseMemoryStore reports whether the in-process store was requested.
func (c *Config) UseMemoryStore() bool { return c.DBPath == MemoryStore }

// Calendar returns the working-day calendar the salary formula divides by.
func (c *Config) Calendar() payroll.WorkingDayCalendar {
	if c.WorkingDays == WorkingDaysWeekdays {
		return payroll.WeekdayCalendar{}
	}
	return payroll.CalendarDays{}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
