// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Scoring  ScoringConfig
	Engine   EngineConfig
	Advisory AdvisoryConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects and tunes the repository backend.
type StorageConfig struct {
	// Backend is memory, postgres or sqlite (default: memory)
	Backend string `env:"STORAGE_BACKEND" default:"memory"`

	// DatabaseURL is the PostgreSQL connection string, required for postgres.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file for the sqlite backend (default: dataquality.db)
	SQLitePath string `env:"SQLITE_PATH" default:"dataquality.db"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds dataset upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`
}

// ScoringConfig holds the initial severity scoring configuration.
type ScoringConfig struct {
	PrimaryKeyViolationBoost float64 `env:"SCORING_PK_BOOST" default:"0"`
	ComplianceRiskBoost      float64 `env:"SCORING_COMPLIANCE_BOOST" default:"0"`

	// DecayMaxDays is the age at which decay reaches its floor; 0 disables decay (default: 30)
	DecayMaxDays   float64 `env:"SCORING_DECAY_MAX_DAYS" default:"30"`
	DecayMinFactor float64 `env:"SCORING_DECAY_MIN_FACTOR" default:"0.5"`

	HighThreshold   float64 `env:"SCORING_HIGH_THRESHOLD" default:"0.70"`
	MediumThreshold float64 `env:"SCORING_MEDIUM_THRESHOLD" default:"0.35"`
}

// EngineConfig holds analysis and lineage settings.
type EngineConfig struct {
	// LineageCapacity is how many actions and snapshots are kept per table (default: 50)
	LineageCapacity int `env:"ENGINE_LINEAGE_CAPACITY" default:"50"`

	// MaxConcurrent is the maximum number of parallel analyses (default: 4)
	MaxConcurrent int `env:"ENGINE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an analysis slot (default: 30s)
	MaxWaitTime time.Duration `env:"ENGINE_MAX_WAIT_TIME" default:"30s"`

	// RescoreInterval refreshes decayed scores of open issues; 0 disables (default: 0)
	RescoreInterval time.Duration `env:"ENGINE_RESCORE_INTERVAL" default:"0s"`
}

// AdvisoryConfig holds the optional suggestion provider settings.
type AdvisoryConfig struct {
	Enabled  bool          `env:"ADVISORY_ENABLED" default:"false"`
	Provider string        `env:"ADVISORY_PROVIDER" default:"openai"`
	Endpoint string        `env:"ADVISORY_ENDPOINT"`
	APIKey   string        `env:"ADVISORY_API_KEY" envAlt:"OPENAI_API_KEY"`
	Model    string        `env:"ADVISORY_MODEL"`
	Timeout  time.Duration `env:"ADVISORY_TIMEOUT" default:"15s"`
	RetryMax int           `env:"ADVISORY_RETRY_MAX" default:"2"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of actor:key pairs. A bare key is
	// attributed to the actor "api".
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects unauthenticated API requests (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
