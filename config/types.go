package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Redis         RedisConfig         `mapstructure:"redis"`
	Nats          NatsConfig          `mapstructure:"nats"`
	Server        ServerConfig        `mapstructure:"server"`
	Authorization AuthorizationConfig `mapstructure:"authorization"`
	Persistence   PersistenceConfig   `mapstructure:"persistence"`
	Scheduling    SchedulingConfig    `mapstructure:"scheduling"`
	Customers     CustomersConfig     `mapstructure:"customers"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type NatsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	// SubjectPrefix is prepended to every published subject, e.g. "spa".
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type RedisConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerWindow int  `mapstructure:"requests_per_window"`
	WindowSeconds     int  `mapstructure:"window_seconds"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AuthorizationConfig maps staff roles to their base permission set and
// individual staff members to sparse overrides on top of it.
type AuthorizationConfig struct {
	Enabled   bool                             `mapstructure:"enabled"`
	Roles     map[string][]string              `mapstructure:"roles"`
	Overrides map[string]PermissionOverrideSet `mapstructure:"overrides"`
}

type PermissionOverrideSet struct {
	Added   []string `mapstructure:"added"`
	Removed []string `mapstructure:"removed"`
}

type PersistenceConfig struct {
	// SnapshotKey is the Redis key holding the serialized store.
	SnapshotKey string `mapstructure:"snapshot_key"`
	// LockKey is the Redis key used to serialize writers across processes.
	LockKey        string `mapstructure:"lock_key"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds"`
}

type SchedulingConfig struct {
	AppointmentCodePrefix string `mapstructure:"appointment_code_prefix"`
	AppointmentCodeDigits int    `mapstructure:"appointment_code_digits"`
	OrderCodePrefix       string `mapstructure:"order_code_prefix"`
	// EnforceConflicts rejects appointments that double-book a technician or bed.
	EnforceConflicts bool `mapstructure:"enforce_conflicts"`
}

type CustomersConfig struct {
	// DefaultRegion is the ISO 3166 region used to parse local phone numbers.
	DefaultRegion string `mapstructure:"default_region"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Scheduling.AppointmentCodePrefix) == "" {
		errs = append(errs, errors.New("scheduling.appointment_code_prefix is required"))
	}
	if c.Scheduling.AppointmentCodeDigits < 1 || c.Scheduling.AppointmentCodeDigits > 12 {
		errs = append(errs, fmt.Errorf("scheduling.appointment_code_digits %d out of range", c.Scheduling.AppointmentCodeDigits))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Nats.Enabled && c.Nats.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats is enabled"))
	}
	if c.Logging.Output.File.Enabled && c.Logging.Output.File.Path == "" {
		errs = append(errs, errors.New("logging.output.file.path is required when file output is enabled"))
	}

	return errors.Join(errs...)
}
