// Package config provides centralized configuration management for csvclean.
//
// Values come from struct defaults, an optional YAML file, CSVCLEAN_*
// environment variables and command-line flags, in increasing precedence.
// All settings are validated on load so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	Clean    CleanConfig    `koanf:"clean"`
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Sink     SinkConfig     `koanf:"sink"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// InputConfig describes the file to clean.
type InputConfig struct {
	Path string `koanf:"path" env:"INPUT_PATH"`

	// MaxFileSize is the largest accepted input in bytes (default: 100MB)
	MaxFileSize int64 `koanf:"max_file_size" env:"INPUT_MAX_FILE_SIZE" default:"104857600"`
}

// OutputConfig describes where the cleaned file is written.
type OutputConfig struct {
	Path string `koanf:"path" env:"OUTPUT_PATH"`
}

// CleanConfig holds pipeline options.
type CleanConfig struct {
	// Threshold is the minimum share of present cells a column needs (default: 0.5)
	Threshold float64 `koanf:"threshold" env:"CLEAN_THRESHOLD" default:"0.5"`

	// Method is the fill statistic: mean, median or mode (default: mean)
	Method string `koanf:"method" env:"CLEAN_METHOD" default:"mean"`
}

// DatabaseConfig holds relational sink settings.
type DatabaseConfig struct {
	Enabled bool `koanf:"enabled" env:"DB_ENABLED" default:"false"`

	// Driver is postgres or sqlite (default: postgres)
	Driver string `koanf:"driver" env:"DB_DRIVER" default:"postgres"`

	Host     string `koanf:"host" env:"DB_HOST" default:"localhost"`
	Port     int    `koanf:"port" env:"DB_PORT" default:"5432"`
	User     string `koanf:"user" env:"DB_USER" default:"postgres"`
	Password string `koanf:"password" env:"DB_PASSWORD"`

	// Name is the database name, or the file path for sqlite
	Name string `koanf:"name" env:"DB_NAME"`

	// Table is the destination table, created if absent (default: cleaned_data)
	Table string `koanf:"table" env:"DB_TABLE" default:"cleaned_data"`

	SSLMode string `koanf:"sslmode" env:"DB_SSLMODE" default:"disable"`

	// Timeout bounds the whole sink run (default: 5m)
	Timeout time.Duration `koanf:"timeout" env:"DB_TIMEOUT" default:"5m"`
}

// HTTPConfig holds REST sink settings.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled" env:"HTTP_ENABLED" default:"false"`
	URL     string `koanf:"url" env:"HTTP_URL"`

	// Timeout is the per-request timeout (default: 10s)
	Timeout time.Duration `koanf:"timeout" env:"HTTP_TIMEOUT" default:"10s"`

	// Fields maps JSON field names to source columns, written as
	// "column" or "column:type" where type is string, number, integer or bool.
	// Empty means every column under its own name.
	Fields map[string]string `koanf:"fields"`

	// Headers are added to every request.
	Headers map[string]string `koanf:"headers"`
}

// SinkConfig holds settings shared by all sinks.
type SinkConfig struct {
	// FailOnError makes sink errors change the exit status (default: false)
	FailOnError bool `koanf:"fail_on_error" env:"SINK_FAIL_ON_ERROR" default:"false"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `koanf:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `koanf:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `koanf:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `koanf:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `koanf:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxConcurrent is the maximum number of files cleaned in parallel (default: 5)
	MaxConcurrent int `koanf:"max_concurrent" env:"SERVER_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `koanf:"max_wait_time" env:"SERVER_MAX_WAIT_TIME" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `koanf:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `koanf:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
