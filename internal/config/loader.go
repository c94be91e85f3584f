package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup, for example a viper
// instance's GetString or a map in tests.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envTag is the parsed `env`, `envAlt`, `default` and `required` tags of a
// config field.
type envTag struct {
	name     string
	alt      string
	fallback string
	required bool
}

func tagOf(f reflect.StructField) envTag {
	return envTag{
		name:     f.Tag.Get("env"),
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
}

// lookup returns the raw value for the tag: primary variable, then the
// alternate, then the default.
func (t envTag) lookup(getenv func(string) string) (string, error) {
	value := getenv(t.name)
	if value == "" && t.alt != "" {
		value = getenv(t.alt)
	}
	if value == "" {
		if t.required {
			return "", fmt.Errorf("required environment variable %s is not set", t.name)
		}
		value = t.fallback
	}
	return value, nil
}

// loadStruct recursively populates struct fields from environment variables.
// Every bad variable is reported, not just the first.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if sf.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv, getenv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		tag := tagOf(sf)
		if tag.name == "" {
			continue
		}
		value, err := tag.lookup(getenv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if value == "" {
			continue
		}
		if err := setField(fv, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", tag.name, value, err))
		}
	}

	return errors.Join(errs...)
}

var durationType = reflect.TypeFor[time.Duration]()

// setField parses value into field according to the field's type.
func setField(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var problems []string
	for _, check := range []func() []string{
		c.Server.problems,
		c.Database.problems,
		c.Upload.problems,
		c.Reader.problems,
		c.Security.problems,
		c.Logging.problems,
	} {
		problems = append(problems, check()...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (c *ServerConfig) problems() (p []string) {
	if c.Port < 1 || c.Port > 65535 {
		p = append(p, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Port))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 || c.RequestTimeout < 0 {
		p = append(p, "SERVER_*_TIMEOUT values must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		p = append(p, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return p
}

// Pool settings only matter when imports are enabled.
func (c *DatabaseConfig) problems() (p []string) {
	if !c.Enabled() {
		return nil
	}
	switch {
	case c.MaxConns <= 0:
		p = append(p, "DB_MAX_CONNS must be positive")
	case c.MaxConns < c.MinConns:
		p = append(p, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns))
	}
	if c.MinConns < 0 {
		p = append(p, "DB_MIN_CONNS must be non-negative")
	}
	return p
}

func (c *UploadConfig) problems() (p []string) {
	positive := []struct {
		name string
		ok   bool
	}{
		{"UPLOAD_MAX_FILE_SIZE", c.MaxFileSize > 0},
		{"UPLOAD_MAX_CONCURRENT", c.MaxConcurrent > 0},
		{"UPLOAD_BATCH_SIZE", c.BatchSize > 0},
		{"UPLOAD_MAX_WAIT_TIME", c.MaxWaitTime > 0},
		{"UPLOAD_TIMEOUT", c.Timeout > 0},
	}
	for _, v := range positive {
		if !v.ok {
			p = append(p, v.name+" must be positive")
		}
	}
	if c.PreviewLimit < 0 {
		p = append(p, "UPLOAD_PREVIEW_LIMIT must be non-negative")
	}
	return p
}

func (c *ReaderConfig) problems() (p []string) {
	if _, err := c.Settings(); err != nil {
		p = append(p, err.Error())
	}
	if _, err := core.ParseHeaderMode(c.HeaderMode); err != nil {
		p = append(p, "CSV_HEADER_MODE: "+err.Error())
	}
	return p
}

func (c *SecurityConfig) problems() []string {
	if c.RequireAPIKey && len(c.APIKeys) == 0 {
		return []string{"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth"}
	}
	return nil
}

func (c *LoggingConfig) problems() (p []string) {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		p = append(p, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		p = append(p, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Format))
	}
	return p
}

// String returns a safe string representation of the config for logging.
// The database URL is never printed.
func (c *Config) String() string {
	dbURL := "[NONE]"
	if c.Database.Enabled() {
		dbURL = "[MASKED]"
	}
	return fmt.Sprintf("Config{Server: {Addr: %q}, Database: {URL: %s, MaxConns: %d, MinConns: %d}, "+
		"Upload: {MaxFileSize: %d, MaxConcurrent: %d, BatchSize: %d, PreviewLimit: %d}, "+
		"Reader: {Delimiter: %q, Quote: %q, HeaderComparison: %s, ErrorPolicy: %s, HeaderMode: %s}, "+
		"Security: {TrustedProxies: %d, RequireAPIKey: %t}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), dbURL, c.Database.MaxConns, c.Database.MinConns,
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Upload.BatchSize, c.Upload.PreviewLimit,
		c.Reader.Delimiter, c.Reader.Quote, c.Reader.HeaderComparison, c.Reader.ErrorPolicy, c.Reader.HeaderMode,
		len(c.Security.TrustedProxies), c.Security.RequireAPIKey, c.Logging.Level, c.Logging.Format)
}
