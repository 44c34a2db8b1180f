package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15, cfg.Engine.MaxLength)
	assert.Equal(t, 8, cfg.Engine.DecimalPlaces)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Sessions.SweepInterval)
	assert.Equal(t, 10000, cfg.Sessions.MaxSessions)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "calculator-api", cfg.Telemetry.ServiceName)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CALC_SERVER_PORT", "9090")
	t.Setenv("CALC_SERVER_LOG_LEVEL", "debug")
	t.Setenv("CALC_ENGINE_MAX_LENGTH", "20")
	t.Setenv("CALC_SESSIONS_IDLE_TIMEOUT", "5m")
	t.Setenv("CALC_TELEMETRY_ENABLED", "true")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 20, cfg.Engine.MaxLength)
	assert.Equal(t, 5*time.Minute, cfg.Sessions.IdleTimeout)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoadFromFileWithEnvPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 7070
  log_level: warn
engine:
  decimal_places: 4
`)
	t.Setenv("CALC_SERVER_PORT", "6060")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Engine.DecimalPlaces)
	assert.Equal(t, 15, cfg.Engine.MaxLength, "unset keys keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFlags(t *testing.T) {
	flags := pflag.NewFlagSet("calc", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Int("max-length", 15, "")
	flags.Int("decimal-places", 8, "")
	require.NoError(t, flags.Parse([]string{"--max-length=30", "--log-level=error"}))

	cfg, err := LoadWithFlags("", flags)

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Engine.MaxLength)
	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Engine.DecimalPlaces)
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{name: "port out of range", envVars: map[string]string{"CALC_SERVER_PORT": "999999"}},
		{name: "unknown log level", envVars: map[string]string{"CALC_SERVER_LOG_LEVEL": "verbose"}},
		{name: "max length too large", envVars: map[string]string{"CALC_ENGINE_MAX_LENGTH": "100"}},
		{name: "negative decimal places", envVars: map[string]string{"CALC_ENGINE_DECIMAL_PLACES": "-1"}},
		{name: "zero max sessions", envVars: map[string]string{"CALC_SESSIONS_MAX_SESSIONS": "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadRequiresServiceNameWhenTelemetryEnabled(t *testing.T) {
	path := writeConfigFile(t, `
telemetry:
  enabled: true
  service_name: ""
`)

	cfg, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Nil(t, cfg)
}
