package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		MonzoAccountID: "acc_1",
		WebhookSecret:  "secret",
		StateBackend:   BackendMemory,
		WarningLimit:   25000,
		CriticalLimit:  10000,
		AlertFreq:      10,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"STATE_BACKEND", "BALANCE_LIMIT_WARNING", "LIMIT_WARNING", "BALANCE_LIMIT_CRITICAL",
		"LIMIT_CRITICAL", "ALERT_FREQUENCY", "SEEN_TTL", "DEDUPE_FAIL_OPEN", "HTTP_CONNECT_TIMEOUT",
		"HTTP_MAX_RETRIES", "PORT", "METRICS_ENABLED", "SWEEP_ENABLED", "WEBHOOK_ALLOW_QUERY_SECRET",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, BackendSQLite, cfg.StateBackend)
	require.Equal(t, int64(25000), cfg.WarningLimit)
	require.Equal(t, int64(10000), cfg.CriticalLimit)
	require.Equal(t, 10, cfg.AlertFreq)
	require.Equal(t, 10*time.Minute, cfg.SeenTTL)
	require.True(t, cfg.DedupeFailOpen)
	require.Equal(t, 3050*time.Millisecond, cfg.HTTPConnectTimeout)
	require.Equal(t, 3, cfg.HTTPMaxRetries)
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.MetricsEnabled)
	require.False(t, cfg.SweepEnabled)
	require.False(t, cfg.AllowQuerySecret)
	require.Equal(t, "monzo://", cfg.ClickURLBase)
}

func TestLoadConfigAliases(t *testing.T) {
	t.Setenv("MONZO_CLIENT_ID", "")
	t.Setenv("MONZOCLIENTID", "legacy-id")
	t.Setenv("BALANCE_LIMIT_WARNING", "")
	t.Setenv("LIMIT_WARNING", "5000")
	t.Setenv("BALANCE_LIMIT_CRITICAL", "1000")
	t.Setenv("LIMIT_CRITICAL", "2000")

	cfg := LoadConfig()
	require.Equal(t, "legacy-id", cfg.MonzoClientID)
	require.Equal(t, int64(5000), cfg.WarningLimit)
	require.Equal(t, int64(1000), cfg.CriticalLimit, "the new spelling wins when both are set")
}

func TestLoadConfigParsing(t *testing.T) {
	t.Setenv("STATE_BACKEND", "Redis")
	t.Setenv("SEEN_TTL", "90")
	t.Setenv("HTTP_READ_TIMEOUT", "2.5s")
	t.Setenv("DEDUPE_FAIL_OPEN", "false")
	t.Setenv("ALERT_FREQUENCY", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, BackendRedis, cfg.StateBackend)
	require.Equal(t, 90*time.Second, cfg.SeenTTL)
	require.Equal(t, 2500*time.Millisecond, cfg.HTTPReadTimeout)
	require.False(t, cfg.DedupeFailOpen)
	require.Equal(t, 10, cfg.AlertFreq)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret", func(c *Config) { c.WebhookSecret = "" }, "WEBHOOK_SECRET"},
		{"missing account", func(c *Config) { c.MonzoAccountID = "" }, "MONZO_ACCOUNT_ID"},
		{"critical above warning", func(c *Config) { c.CriticalLimit = 30000 }, "critical limit"},
		{"frequency below one", func(c *Config) { c.AlertFreq = 0 }, "ALERT_FREQUENCY"},
		{"sweep without pot", func(c *Config) { c.SweepEnabled = true }, "SWEEP_POT_ID"},
		{"unknown backend", func(c *Config) { c.StateBackend = "postgres" }, "STATE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
