package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Clean.Threshold != 0.5 {
		t.Errorf("Clean.Threshold = %v, want %v", cfg.Clean.Threshold, 0.5)
	}
	if cfg.Clean.Method != "mean" {
		t.Errorf("Clean.Method = %q, want %q", cfg.Clean.Method, "mean")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Server.MaxConcurrent != 5 {
		t.Errorf("Server.MaxConcurrent = %d, want %d", cfg.Server.MaxConcurrent, 5)
	}
	if cfg.Input.MaxFileSize != 104857600 {
		t.Errorf("Input.MaxFileSize = %d, want %d", cfg.Input.MaxFileSize, 104857600)
	}
	if cfg.Database.Enabled {
		t.Error("Database.Enabled should default to false")
	}
	if cfg.Database.Table != "cleaned_data" {
		t.Errorf("Database.Table = %q, want %q", cfg.Database.Table, "cleaned_data")
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("HTTP.Timeout = %v, want %v", cfg.HTTP.Timeout, 10*time.Second)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CSVCLEAN_CLEAN_METHOD", "median")
	t.Setenv("CSVCLEAN_CLEAN_THRESHOLD", "0.8")
	t.Setenv("CSVCLEAN_SERVER_PORT", "9090")
	t.Setenv("CSVCLEAN_SERVER_READ_TIMEOUT", "45s")
	t.Setenv("CSVCLEAN_LOG_LEVEL", "debug")
	t.Setenv("CSVCLEAN_UNRELATED", "ignored")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Clean.Method != "median" {
		t.Errorf("Clean.Method = %q, want %q", cfg.Clean.Method, "median")
	}
	if cfg.Clean.Threshold != 0.8 {
		t.Errorf("Clean.Threshold = %v, want %v", cfg.Clean.Threshold, 0.8)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

const testYAML = `
input:
  path: data/in.csv
output:
  path: data/out.csv
clean:
  threshold: 0.3
  method: mode
http:
  enabled: true
  url: http://localhost:3000/items
  fields:
    nombre: name
    edad: age:integer
database:
  driver: sqlite
  name: out.db
`

func writeYAML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "csvclean.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeYAML(t), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.Path != "data/in.csv" {
		t.Errorf("Input.Path = %q, want %q", cfg.Input.Path, "data/in.csv")
	}
	if cfg.Clean.Method != "mode" {
		t.Errorf("Clean.Method = %q, want %q", cfg.Clean.Method, "mode")
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.URL != "http://localhost:3000/items" {
		t.Errorf("HTTP = %+v, want enabled with url", cfg.HTTP)
	}
	if got := cfg.HTTP.Fields["edad"]; got != "age:integer" {
		t.Errorf("HTTP.Fields[edad] = %q, want %q", got, "age:integer")
	}
	// defaults survive for keys the file does not set
	if cfg.Database.Table != "cleaned_data" {
		t.Errorf("Database.Table = %q, want %q", cfg.Database.Table, "cleaned_data")
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeYAML(t)
	t.Setenv("CSVCLEAN_CLEAN_METHOD", "median")
	t.Setenv("CSVCLEAN_CLEAN_THRESHOLD", "0.9")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("threshold", 0.5, "")
	flags.String("method", "mean", "")
	flags.String("unrelated", "", "")
	if err := flags.Parse([]string{"--threshold", "0.2", "--unrelated", "x"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// flag beats env beats file
	if cfg.Clean.Threshold != 0.2 {
		t.Errorf("Clean.Threshold = %v, want %v", cfg.Clean.Threshold, 0.2)
	}
	// unset flag does not override env
	if cfg.Clean.Method != "median" {
		t.Errorf("Clean.Method = %q, want %q", cfg.Clean.Method, "median")
	}
	// file beats default
	if cfg.Output.Path != "data/out.csv" {
		t.Errorf("Output.Path = %q, want %q", cfg.Output.Path, "data/out.csv")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err == nil {
		t.Fatal("Load() expected error for missing config file")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CSVCLEAN_CLEAN_METHOD", "promedio")

	_, err := Load("", nil)
	if err == nil {
		t.Fatal("Load() expected error for invalid method")
	}
	if !strings.Contains(err.Error(), "clean.method") {
		t.Errorf("error should mention clean.method: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Input:    InputConfig{MaxFileSize: 1},
		Clean:    CleanConfig{Threshold: 0.5, Method: "mean"},
		Database: DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, Table: "t", Timeout: time.Minute},
		HTTP:     HTTPConfig{Timeout: time.Second},
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"spanish method alias", func(c *Config) { c.Clean.Method = "media" }, ""},
		{"threshold too high", func(c *Config) { c.Clean.Threshold = 1.5 }, "clean.threshold"},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "server.port"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"database without name", func(c *Config) { c.Database.Enabled = true }, "database.name"},
		{"unknown driver", func(c *Config) {
			c.Database.Enabled = true
			c.Database.Name = "x"
			c.Database.Driver = "oracle"
		}, "database.driver"},
		{"http without url", func(c *Config) { c.HTTP.Enabled = true }, "http.url"},
		{"disabled sinks are not checked", func(c *Config) {
			c.Database.Driver = "oracle"
			c.HTTP.URL = "nope"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"server.port", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksPassword(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{User: "admin", Password: "s3cr3t"},
	}
	str := cfg.String()
	if strings.Contains(str, "s3cr3t") {
		t.Error("String() should mask database password")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Clean.Threshold != 0.5 {
		t.Errorf("Clean.Threshold = %v, want 0.5", cfg.Clean.Threshold)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestContext(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Path: "out.csv"}}
	ctx := NewContext(context.Background(), cfg)
	if got := FromContext(ctx); got != cfg {
		t.Errorf("FromContext returned %p, want %p", got, cfg)
	}

	if got := FromContext(context.Background()); got.Clean.Method != "mean" {
		t.Errorf("fallback Clean.Method = %q, want mean", got.Clean.Method)
	}
}
