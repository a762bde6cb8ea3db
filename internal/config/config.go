package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-timeclock/internal/shared/connection"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration shared by the api, worker and consumer binaries.
type AppConfig struct {
	Environment string
	Port        string

	Postgres    connection.PostgresConfig
	RedisAddr   string
	KafkaBroker string

	ExpoPushURL       string
	ExpoAccessToken   string
	PushBatchSize     int
	PushRatePerSecond float64

	StaleThresholdHours     int
	AutoBreakThresholdHours int
	AutoBreakMinutes        int
	ForgotNominalMinutes    int
	MinReasonLength         int
	HistoricalWindowDays    int
	CheckInRequestMaxAge    time.Duration

	TickParallelism int
	TickLeaseTTL    time.Duration

	CronSpecReminderTick  string
	CronSpecWeeklySummary string
	CronSpecStaleSweep    string
	CronSpecCheckInExpiry string
	OutboxPollInterval    time.Duration
}

// Load reads configuration from environment variables and .env (if present).
// godotenv.Load never overrides variables that are already set.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Environment: strings.ToLower(getString("ENVIRONMENT", "development")),
		Port:        getString("PORT", "3000"),
		Postgres: connection.PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getString("DB_PORT", "5432"),
			SSLMode:  getString("DB_SSLMODE", "disable"),
		},
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		ExpoPushURL:     getString("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken: os.Getenv("EXPO_ACCESS_TOKEN"),

		CronSpecReminderTick:  getString("CRON_SPEC_REMINDER_TICK", "* * * * *"),
		CronSpecWeeklySummary: getString("CRON_SPEC_WEEKLY_SUMMARY", "0 * * * *"),
		CronSpecStaleSweep:    getString("CRON_SPEC_STALE_SWEEP", "0 * * * *"),
		CronSpecCheckInExpiry: getString("CRON_SPEC_CHECKIN_EXPIRY", "*/30 * * * *"),
	}

	if cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("DB_HOST is not set")
	}
	if cfg.Postgres.Name == "" {
		return nil, fmt.Errorf("DB_NAME is not set")
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"PUSH_BATCH_SIZE", 100, &cfg.PushBatchSize},
		{"STALE_THRESHOLD_HOURS", 16, &cfg.StaleThresholdHours},
		{"AUTO_BREAK_THRESHOLD_HOURS", 6, &cfg.AutoBreakThresholdHours},
		{"AUTO_BREAK_MINUTES", 30, &cfg.AutoBreakMinutes},
		{"FORGOT_NOMINAL_MINUTES", 1, &cfg.ForgotNominalMinutes},
		{"MIN_REASON_LENGTH", 10, &cfg.MinReasonLength},
		{"HISTORICAL_WINDOW_DAYS", 30, &cfg.HistoricalWindowDays},
		{"TICK_PARALLELISM", 4, &cfg.TickParallelism},
	}
	for _, it := range ints {
		v, err := getInt(it.key, it.def)
		if err != nil {
			return nil, err
		}
		*it.dest = v
	}

	rate, err := strconv.ParseFloat(getString("PUSH_RATE_PER_SECOND", "6"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_RATE_PER_SECOND: %w", err)
	}
	cfg.PushRatePerSecond = rate

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"CHECKIN_REQUEST_MAX_AGE", "72h", &cfg.CheckInRequestMaxAge},
		{"TICK_LEASE_TTL", "55s", &cfg.TickLeaseTTL},
		{"OUTBOX_POLL_INTERVAL", "3s", &cfg.OutboxPollInterval},
	}
	for _, it := range durations {
		d, err := time.ParseDuration(getString(it.key, it.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", it.key, err)
		}
		*it.dest = d
	}

	if cfg.StaleThresholdHours <= 0 {
		return nil, fmt.Errorf("STALE_THRESHOLD_HOURS must be positive")
	}
	if cfg.PushBatchSize <= 0 || cfg.PushBatchSize > 100 {
		return nil, fmt.Errorf("PUSH_BATCH_SIZE must be between 1 and 100")
	}

	return cfg, nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
