package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag, e.g. CSVCLEAN_CLEAN_METHOD.
const EnvPrefix = "CSVCLEAN_"

// DefaultFiles are searched in the working directory when no file is given.
var DefaultFiles = []string{"csvclean.yaml", "csvclean.yml"}

// flagKeys maps command-line flag names to config keys.
// Flags not listed here are not configuration.
var flagKeys = map[string]string{
	"input":       "input.path",
	"output":      "output.path",
	"threshold":   "clean.threshold",
	"method":      "clean.method",
	"db":          "database.enabled",
	"http":        "http.enabled",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
	"host":        "server.host",
	"port":        "server.port",
	"max-workers": "server.max_concurrent",
}

// Load builds the configuration from, lowest to highest precedence:
// struct defaults, the YAML file at path (or a DefaultFiles match),
// CSVCLEAN_* environment variables and explicitly set flags.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults, envKeys, err := walk(reflect.TypeOf(Config{}), "")
	if err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path = findConfigFile(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config holding only the struct tag defaults.
func Defaults() *Config {
	cfg := &Config{}
	defaults, _, err := walk(reflect.TypeOf(Config{}), "")
	if err != nil {
		return cfg
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return cfg
	}
	_ = k.Unmarshal("", cfg)
	return cfg
}

// findConfigFile returns explicit if set, else the first DefaultFiles entry
// that exists, else "".
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// walk collects typed defaults from `default` tags and maps `env` tag
// names to dotted koanf keys, recursing into nested structs.
func walk(t reflect.Type, prefix string) (map[string]interface{}, map[string]string, error) {
	defaults := make(map[string]interface{})
	envKeys := make(map[string]string)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		key := field.Tag.Get("koanf")
		if key == "" {
			key = strings.ToLower(field.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			d, e, err := walk(field.Type, key)
			if err != nil {
				return nil, nil, err
			}
			for k, v := range d {
				defaults[k] = v
			}
			for k, v := range e {
				envKeys[k] = v
			}
			continue
		}

		if name := field.Tag.Get("env"); name != "" {
			envKeys[name] = key
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			v := reflect.New(field.Type).Elem()
			if err := setField(v, def); err != nil {
				return nil, nil, fmt.Errorf("invalid default for %s=%q: %w", key, def, err)
			}
			defaults[key] = v.Interface()
		}
	}

	return defaults, envKeys, nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Clean validation
	if c.Clean.Threshold < 0 || c.Clean.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("clean.threshold (%v) must be between 0 and 1", c.Clean.Threshold))
	}
	validMethods := map[string]bool{"mean": true, "median": true, "mode": true, "media": true, "mediana": true, "moda": true}
	if !validMethods[strings.ToLower(c.Clean.Method)] {
		errs = append(errs, fmt.Sprintf("clean.method (%q) must be one of: mean, median, mode", c.Clean.Method))
	}
	if c.Input.MaxFileSize <= 0 {
		errs = append(errs, "input.max_file_size must be positive")
	}

	// Database validation
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres":
			if c.Database.Host == "" {
				errs = append(errs, "database.host is required for postgres")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database.port (%d) must be 1-65535", c.Database.Port))
			}
		case "sqlite":
		default:
			errs = append(errs, fmt.Sprintf("database.driver (%q) must be one of: postgres, sqlite", c.Database.Driver))
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required when the database sink is enabled")
		}
		if c.Database.Table == "" {
			errs = append(errs, "database.table is required when the database sink is enabled")
		}
		if c.Database.Timeout <= 0 {
			errs = append(errs, "database.timeout must be positive")
		}
	}

	// HTTP sink validation
	if c.HTTP.Enabled {
		if !strings.HasPrefix(c.HTTP.URL, "http://") && !strings.HasPrefix(c.HTTP.URL, "https://") {
			errs = append(errs, fmt.Sprintf("http.url (%q) must be an http or https URL", c.HTTP.URL))
		}
		if c.HTTP.Timeout <= 0 {
			errs = append(errs, "http.timeout must be positive")
		}
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, "server.max_concurrent must be positive")
	}
	if c.Server.MaxWaitTime <= 0 {
		errs = append(errs, "server.max_wait_time must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database password is masked.
func (c *Config) String() string {
	password := ""
	if c.Database.Password != "" {
		password = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Input: %q, Output: %q, ", c.Input.Path, c.Output.Path))
	b.WriteString(fmt.Sprintf("Clean: {Threshold: %v, Method: %q}, ", c.Clean.Threshold, c.Clean.Method))
	b.WriteString(fmt.Sprintf("Database: {Enabled: %v, Driver: %q, Host: %q, Port: %d, User: %q, Password: %q, Name: %q, Table: %q}, ",
		c.Database.Enabled, c.Database.Driver, c.Database.Host, c.Database.Port,
		c.Database.User, password, c.Database.Name, c.Database.Table))
	b.WriteString(fmt.Sprintf("HTTP: {Enabled: %v, URL: %q}, ", c.HTTP.Enabled, c.HTTP.URL))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d, MaxConcurrent: %d}, ",
		c.Server.Host, c.Server.Port, c.Server.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
