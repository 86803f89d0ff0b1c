package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// ErrMissingTodoistToken is returned by Validate when no backend token is configured.
var ErrMissingTodoistToken = errors.New("TODOIST_TOKEN is required")

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Todoist
	TodoistToken    string
	TodoistRESTURL  string
	TodoistSyncURL  string
	TodoistTimeout  time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration

	// Duration policy (minutes)
	EveryDayDuration     int
	EveryWeekdayDuration int
	SomeWeekdayDuration  int

	// Content markers
	Timezone        string
	DurationUnit    string
	RecurringMarker string
	DailyMarker     string
	WeekdayMarker   string

	// Slack
	SlackWebhookURL string
	SlackBotToken   string
	SlackChannel    string
	SlackAPIURL     string

	// Redis
	RedisURL     string
	NameCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Database
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	// Toggl
	TogglToken string
	TogglURL   string

	// Calendar
	CalendarProvider   string
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendar     string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// Matcher
	Matcher           string
	MatcherPluginPath string

	// Worker
	WorkerHealthAddr string
	WorkerQueue      string
	// APIAddr enables the worker's HTTP API when set.
	APIAddr string
	// HistoryRetentionDays bounds stored history; 0 keeps everything.
	HistoryRetentionDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		TodoistToken:    getEnv("TODOIST_TOKEN", ""),
		TodoistRESTURL:  getEnv("TODOIST_REST_URL", "https://api.todoist.com/rest/v2"),
		TodoistSyncURL:  getEnv("TODOIST_SYNC_URL", "https://api.todoist.com/sync/v9"),
		TodoistTimeout:  getDurationEnv("TODOIST_TIMEOUT", 15*time.Second),
		BreakerFailures: getIntEnv("BREAKER_FAILURES", 3),
		BreakerCooldown: getDurationEnv("BREAKER_COOLDOWN", 30*time.Second),

		EveryDayDuration:     getIntEnv("EVERY_DAY_DURATION", 30),
		EveryWeekdayDuration: getIntEnv("EVERY_WEEKDAY_DURATION", 60),
		SomeWeekdayDuration:  getIntEnv("SOME_WEEKDAY_DURATION", 90),

		Timezone:        getEnv("TIMEZONE", "Asia/Seoul"),
		DurationUnit:    getEnv("DURATION_UNIT", "분"),
		RecurringMarker: getEnv("RECURRING_MARKER", "매"),
		DailyMarker:     getEnv("DAILY_MARKER", "매일"),
		WeekdayMarker:   getEnv("WEEKDAY_MARKER", "평일"),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		SlackBotToken:   getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannel:    getEnv("SLACK_CHANNEL", "#general"),
		SlackAPIURL:     getEnv("SLACK_API_URL", "https://slack.com/api"),

		RedisURL:     getEnv("REDIS_URL", ""),
		NameCacheTTL: getDurationEnv("NAME_CACHE_TTL", 24*time.Hour),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		DatabaseDriver: getEnv("DATABASE_DRIVER", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", getDefaultSQLitePath()),

		TogglToken: getEnv("TOGGL_TOKEN", ""),
		TogglURL:   getEnv("TOGGL_URL", "https://api.track.toggl.com/api/v9"),

		CalendarProvider:   strings.ToLower(getEnv("CALENDAR_PROVIDER", "")),
		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendar:     getEnv("CALDAV_CALENDAR", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GoogleCalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		Matcher:           strings.ToLower(getEnv("MATCHER", "substring")),
		MatcherPluginPath: getEnv("MATCHER_PLUGIN_PATH", ""),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		WorkerQueue:      getEnv("WORKER_QUEUE", "taskpulse.time-entries"),
		APIAddr:          getEnv("API_ADDR", ""),

		HistoryRetentionDays: getIntEnv("HISTORY_RETENTION_DAYS", 90),
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = detectDriver(cfg.DatabaseURL)
	}

	return cfg, nil
}

// Validate reports configuration that would prevent the engine from running.
func (c *Config) Validate() error {
	if c.TodoistToken == "" && !c.IsDevelopment() {
		return ErrMissingTodoistToken
	}
	for name, v := range map[string]int{
		"EVERY_DAY_DURATION":     c.EveryDayDuration,
		"EVERY_WEEKDAY_DURATION": c.EveryWeekdayDuration,
		"SOME_WEEKDAY_DURATION":  c.SomeWeekdayDuration,
		"HISTORY_RETENTION_DAYS": c.HistoryRetentionDays,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	switch c.CalendarProvider {
	case "", "caldav", "google":
	default:
		return fmt.Errorf("unknown CALENDAR_PROVIDER %q", c.CalendarProvider)
	}
	return nil
}

// Location returns the reference time zone used for day boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HistoryEnabled reports whether a history store is configured.
func (c *Config) HistoryEnabled() bool {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseURL != ""
	}
	return c.SQLitePath != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func detectDriver(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDefaultSQLitePath() string {
	if getBoolEnv("TASKPULSE_NO_HISTORY", false) {
		return ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskpulse/history.db"
	}
	return home + "/.taskpulse/history.db"
}
