package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Sessions  SessionsConfig  `mapstructure:"sessions" validate:"required"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// EngineConfig tunes every calculator engine the process creates.
type EngineConfig struct {
	MaxLength     int `mapstructure:"max_length" validate:"gte=1,lte=64"`
	DecimalPlaces int `mapstructure:"decimal_places" validate:"gte=0,lte=15"`
}

type SessionsConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	MaxSessions   int           `mapstructure:"max_sessions" validate:"gt=0"`
}

// TelemetryConfig switches the OTLP exporters on. When disabled the global
// OTel providers stay no-op and logs only go to stdout.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
}
