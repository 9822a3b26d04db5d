package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with STATE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	MonzoClientID     string // Required: OAuth client id
	MonzoClientSecret string // Required: OAuth client secret
	MonzoAccountID    string // Required: monitored account
	MonzoRefreshToken string // Optional: recovery refresh token used when the store has none
	MonzoAPIURL       string // Optional: API base URL (default: https://api.monzo.com)

	WebhookSecret    string // Required: shared secret sent by the provider
	AllowQuerySecret bool   // Optional: accept ?secret_key= (default: false)

	StateBackend   string // Optional: memory, sqlite, redis (default: sqlite)
	DatabaseFile   string // Optional: SQLite database file (default: balancebot.db)
	RedisAddr      string // Optional: Redis address (default: localhost:6379)
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string // Optional: key prefix (default: balancebot:)

	WarningLimit   int64         // Minor units (default: 25000)
	CriticalLimit  int64         // Minor units (default: 10000)
	AlertFreq      int           // Every Nth warning notifies (default: 10)
	ClickURLBase   string        // Notification deep link base (default: monzo://)
	SeenTTL        time.Duration // Dedupe window (default: 10m)
	DedupeFailOpen bool          // Admit events when the dedupe store fails (default: true)

	HTTPConnectTimeout time.Duration // (default: 3.05s)
	HTTPReadTimeout    time.Duration // (default: 10s)
	HTTPMaxRetries     int           // (default: 3, negative disables)

	SweepEnabled bool   // (default: false)
	SweepPotID   string // Required when the sweep is enabled

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	MetricsEnabled      bool          // Serve /metrics (default: true)
}

// LoadConfig reads the configuration from the environment. Where a variable
// has an older spelling both are accepted and the first listed wins.
func LoadConfig() Config {
	return Config{
		MonzoClientID:     getEnvOrDefault([]string{"MONZO_CLIENT_ID", "MONZOCLIENTID"}, ""),
		MonzoClientSecret: getEnvOrDefault([]string{"MONZO_CLIENT_SECRET", "MONZOCLIENTSECRET"}, ""),
		MonzoAccountID:    getEnvOrDefault([]string{"MONZO_ACCOUNT_ID", "MONZOACCOUNTID"}, ""),
		MonzoRefreshToken: getEnvOrDefault([]string{"MONZO_REFRESH_TOKEN", "MONZOREFRESHTOKEN"}, ""),
		MonzoAPIURL:       getEnvOrDefault([]string{"MONZO_API_URL"}, ""),

		WebhookSecret:    getEnvOrDefault([]string{"WEBHOOK_SECRET", "WEBHOOKSECRET"}, ""),
		AllowQuerySecret: getEnvBoolOrDefault([]string{"WEBHOOK_ALLOW_QUERY_SECRET"}, false),

		StateBackend:   strings.ToLower(getEnvOrDefault([]string{"STATE_BACKEND"}, BackendSQLite)),
		DatabaseFile:   getEnvOrDefault([]string{"DATABASE_FILE"}, "balancebot.db"),
		RedisAddr:      getEnvOrDefault([]string{"REDIS_ADDR"}, "localhost:6379"),
		RedisPassword:  getEnvOrDefault([]string{"REDIS_PASSWORD"}, ""),
		RedisDB:        getEnvIntOrDefault([]string{"REDIS_DB"}, 0),
		RedisKeyPrefix: getEnvOrDefault([]string{"REDIS_KEY_PREFIX"}, "balancebot:"),

		WarningLimit:   int64(getEnvIntOrDefault([]string{"BALANCE_LIMIT_WARNING", "LIMIT_WARNING"}, 25000)),
		CriticalLimit:  int64(getEnvIntOrDefault([]string{"BALANCE_LIMIT_CRITICAL", "LIMIT_CRITICAL"}, 10000)),
		AlertFreq:      getEnvIntOrDefault([]string{"ALERT_FREQUENCY"}, 10),
		ClickURLBase:   getEnvOrDefault([]string{"ALERT_CLICK_URL_BASE"}, "monzo://"),
		SeenTTL:        getEnvDurationOrDefault([]string{"SEEN_TTL"}, 10*time.Minute),
		DedupeFailOpen: getEnvBoolOrDefault([]string{"DEDUPE_FAIL_OPEN"}, true),

		HTTPConnectTimeout: getEnvDurationOrDefault([]string{"HTTP_CONNECT_TIMEOUT"}, 3050*time.Millisecond),
		HTTPReadTimeout:    getEnvDurationOrDefault([]string{"HTTP_READ_TIMEOUT"}, 10*time.Second),
		HTTPMaxRetries:     getEnvIntOrDefault([]string{"HTTP_MAX_RETRIES"}, 3),

		SweepEnabled: getEnvBoolOrDefault([]string{"SWEEP_ENABLED"}, false),
		SweepPotID:   getEnvOrDefault([]string{"SWEEP_POT_ID"}, ""),

		Env:                 getEnvOrDefault([]string{"ENV"}, "dev"),
		LogLevel:            getEnvOrDefault([]string{"LOG_LEVEL"}, "info"),
		LogFormat:           getEnvOrDefault([]string{"LOG_FORMAT"}, "json"),
		Port:                getEnvIntOrDefault([]string{"PORT"}, 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault([]string{"SHUTDOWN_GRACE_PERIOD"}, 10*time.Second),
		MetricsEnabled:      getEnvBoolOrDefault([]string{"METRICS_ENABLED"}, true),
	}
}

// Validate checks the settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error

	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("WEBHOOK_SECRET is required"))
	}
	if c.MonzoAccountID == "" {
		errs = append(errs, errors.New("MONZO_ACCOUNT_ID is required"))
	}
	if c.CriticalLimit > c.WarningLimit {
		errs = append(errs, fmt.Errorf("critical limit %d must not exceed warning limit %d", c.CriticalLimit, c.WarningLimit))
	}
	if c.AlertFreq < 1 {
		errs = append(errs, fmt.Errorf("ALERT_FREQUENCY must be at least 1, got %d", c.AlertFreq))
	}
	if c.SweepEnabled && c.SweepPotID == "" {
		errs = append(errs, errors.New("SWEEP_POT_ID is required when SWEEP_ENABLED is set"))
	}
	if err := c.validateBackend(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) validateBackend() error {
	switch c.StateBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
		return nil
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}
}

func getEnvOrDefault(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(keys []string, defaultValue int) int {
	value := getEnvOrDefault(keys, "")
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(keys []string, defaultValue bool) bool {
	value := getEnvOrDefault(keys, "")
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(keys []string, defaultValue time.Duration) time.Duration {
	value := getEnvOrDefault(keys, "")
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10m", "90s", "3.05s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare numbers are seconds
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}

	return defaultValue
}
