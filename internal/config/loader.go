package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Storage backends for the data service.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load reads configuration from the process environment and validates the
// sections used by the UI server.
func Load() (*Config, error) {
	cfg, err := LoadWith(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadDataService reads configuration from the process environment and
// validates the sections used by the data service, including the database.
func LoadDataService() (*Config, error) {
	cfg, err := LoadWith(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateDataService(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadWith populates a Config using getenv for lookups and applies defaults.
// It does not validate.
func LoadWith(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Primary name wins over the alternate
		value := getenv(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = getenv(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
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
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		parts := splitList(value)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			field.Set(reflect.ValueOf(parts))
		case reflect.Int:
			ints := make([]int, 0, len(parts))
			for _, p := range parts {
				n, err := strconv.Atoi(p)
				if err != nil {
					return fmt.Errorf("invalid integer %q in list: %w", p, err)
				}
				ints = append(ints, n)
			}
			field.Set(reflect.ValueOf(ints))
		default:
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// splitList splits a comma-separated value, trimming and dropping empties.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the sections used by the UI server.
// Returns one error describing all validation failures.
func (c *Config) Validate() error {
	errs := c.validateCommon()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("REMOTE_BASE_URL (%q) must be an http(s) URL", c.Remote.BaseURL))
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, "REMOTE_TIMEOUT must be positive")
	}
	if c.Remote.ImportTimeout <= 0 {
		errs = append(errs, "REMOTE_IMPORT_TIMEOUT must be positive")
	}

	if len(c.Listing.PageSizes) == 0 {
		errs = append(errs, "LISTING_PAGE_SIZES must list at least one size")
	}
	for _, n := range c.Listing.PageSizes {
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("LISTING_PAGE_SIZES entry %d must be positive", n))
		}
	}
	if c.Listing.FallbackPageSize <= 0 {
		errs = append(errs, "LISTING_FALLBACK_PAGE_SIZE must be positive")
	}
	if c.Enrich.MaxLookups <= 0 {
		errs = append(errs, "ENRICH_MAX_LOOKUPS must be positive")
	}
	if c.Enrich.LookupTimeout <= 0 {
		errs = append(errs, "ENRICH_LOOKUP_TIMEOUT must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.BulkLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_BULK must be positive when rate limiting is enabled")
	}

	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, "SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.Session.CleanupInterval <= 0 {
		errs = append(errs, "SESSION_CLEANUP_INTERVAL must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, "SESSION_MAX must be positive")
	}

	return joinErrors(errs)
}

// ValidateDataService checks the sections used by the data service.
func (c *Config) ValidateDataService() error {
	errs := c.validateCommon()

	if c.DataService.Port <= 0 || c.DataService.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DATASERVICE_PORT (%d) must be 1-65535", c.DataService.Port))
	}
	if c.DataService.DefaultPageSize <= 0 {
		errs = append(errs, "DATA_DEFAULT_PAGE_SIZE must be positive")
	}
	if c.DataService.MaxPageSize < c.DataService.DefaultPageSize {
		errs = append(errs, fmt.Sprintf("DATA_MAX_PAGE_SIZE (%d) must be >= DATA_DEFAULT_PAGE_SIZE (%d)",
			c.DataService.MaxPageSize, c.DataService.DefaultPageSize))
	}
	if c.DataService.ShutdownTimeout <= 0 {
		errs = append(errs, "DATASERVICE_SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.DataService.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("DATA_BACKEND (%q) must be one of: postgres, memory", c.DataService.Backend))
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if c.Upload.Timeout <= 0 {
		errs = append(errs, "UPLOAD_TIMEOUT must be positive")
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		errs = append(errs, "REDIS_TTL must be positive when REDIS_ADDR is set")
	}
	if c.Sample.Stations <= 0 {
		errs = append(errs, "SAMPLE_STATIONS must be positive")
	}
	if c.Sample.SensorsPerStation <= 0 {
		errs = append(errs, "SAMPLE_SENSORS_PER_STATION must be positive")
	}

	return joinErrors(errs)
}

// validateCommon checks settings shared by both binaries.
func (c *Config) validateCommon() []string {
	var errs []string

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	return errs
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

// String returns a safe representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "DataService: {Addr: %q, EmbedStationNames: %v}, ", c.DataService.Addr(), c.DataService.EmbedStationNames)
	fmt.Fprintf(&b, "Remote: {BaseURL: %q, Timeout: %s}, ", c.Remote.BaseURL, c.Remote.Timeout)
	fmt.Fprintf(&b, "Listing: {PageSizes: %v, Fallback: %d}, ", c.Listing.PageSizes, c.Listing.FallbackPageSize)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		mask(c.Database.URL), c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Redis: {Addr: %q, Password: %s}, ", c.Redis.Addr, mask(c.Redis.Password))
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
