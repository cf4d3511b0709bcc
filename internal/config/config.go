// Package config provides centralized configuration for both binaries.
// Settings come from environment variables (optionally seeded from a .env
// file by main) with defaults, and are validated on startup so a
// misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// The UI server and the data service read the same struct; each validates
// only the sections it uses.
type Config struct {
	Server      ServerConfig
	DataService DataServiceConfig
	Remote      RemoteConfig
	Listing     ListingConfig
	Enrich      EnrichConfig
	Upload      UploadConfig
	Rate        RateLimitConfig
	Session     SessionConfig
	Security    SecurityConfig
	Logging     LoggingConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Sample      SampleConfig
}

// ServerConfig holds settings for the UI HTTP server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, exports can be large)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataServiceConfig holds settings for the reference data service binary.
type DataServiceConfig struct {
	Host string `env:"DATASERVICE_HOST" default:"0.0.0.0"`
	Port int    `env:"DATASERVICE_PORT" default:"8081"`

	// Backend selects the storage: postgres or memory (default: postgres)
	Backend string `env:"DATA_BACKEND" default:"postgres"`

	// DefaultPageSize is what GET /api/v1/settings/page-size reports (default: 10)
	DefaultPageSize int `env:"DATA_DEFAULT_PAGE_SIZE" default:"10"`

	// EmbedStationNames joins station names into page results.
	// Off by default so the UI resolves them itself.
	EmbedStationNames bool `env:"DATA_EMBED_STATION_NAMES" default:"false"`

	// MaxPageSize caps the limit query parameter (default: 1000)
	MaxPageSize int `env:"DATA_MAX_PAGE_SIZE" default:"1000"`

	ShutdownTimeout time.Duration `env:"DATASERVICE_SHUTDOWN_TIMEOUT" default:"30s"`
}

// RemoteConfig holds the UI server's data service client settings.
type RemoteConfig struct {
	// BaseURL is the data service root (default: http://localhost:8081)
	BaseURL string `env:"REMOTE_BASE_URL" envAlt:"DATASERVICE_URL" default:"http://localhost:8081"`

	// Timeout applies to every call except imports (default: 15s)
	Timeout time.Duration `env:"REMOTE_TIMEOUT" default:"15s"`

	// ImportTimeout applies to file imports (default: 10m)
	ImportTimeout time.Duration `env:"REMOTE_IMPORT_TIMEOUT" default:"10m"`
}

// ListingConfig holds the sensor table settings.
type ListingConfig struct {
	// PageSizes is the comma-separated list of offered page sizes
	PageSizes []int `env:"LISTING_PAGE_SIZES" default:"10,25,50,100,200"`

	// FallbackPageSize is used when the service default is unavailable (default: 10)
	FallbackPageSize int `env:"LISTING_FALLBACK_PAGE_SIZE" default:"10"`
}

// EnrichConfig holds station lookup settings.
type EnrichConfig struct {
	// MaxLookups bounds concurrent station lookups per page (default: 8)
	MaxLookups int `env:"ENRICH_MAX_LOOKUPS" default:"8"`

	// LookupTimeout bounds one station lookup shared by all sessions (default: 10s)
	LookupTimeout time.Duration `env:"ENRICH_LOOKUP_TIMEOUT" default:"10s"`
}

// UploadConfig holds CSV import settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel imports in the data service (default: 3)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long an import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single import (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// BulkLimit is requests per minute for import, sample and delete-all (default: 10)
	BulkLimit int `env:"RATE_LIMIT_BULK" envAlt:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SessionConfig holds view session settings.
type SessionConfig struct {
	// CookieName identifies the browser's view session (default: sensordesk_view)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"sensordesk_view"`

	// IdleTimeout evicts sessions not used for this long (default: 30m)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`

	// CleanupInterval is how often idle sessions are swept (default: 5m)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" default:"5m"`

	// MaxSessions caps live sessions; the least recently used is evicted (default: 1000)
	MaxSessions int `env:"SESSION_MAX" default:"1000"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DatabaseConfig holds the data service's PostgreSQL settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required by the postgres backend.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RedisConfig holds the station-name cache settings. Caching is off when Addr is empty.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" default:"0"`
	TTL      time.Duration `env:"REDIS_TTL" default:"10m"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// SampleConfig sizes the synthetic dataset.
type SampleConfig struct {
	// Stations is the number of base stations generated (default: 5)
	Stations int `env:"SAMPLE_STATIONS" default:"5"`

	// SensorsPerStation is the number of sensors per station (default: 20)
	SensorsPerStation int `env:"SAMPLE_SENSORS_PER_STATION" default:"20"`
}

// Addr returns the UI server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns the data service listen address in host:port format.
func (c *DataServiceConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
