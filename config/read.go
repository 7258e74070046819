package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "SPA"
)

var GlobalConf *Config

// SetDefaults registers the values used when neither the config file nor the
// environment provides one.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.requests_per_window", 60)
	v.SetDefault("server.rate_limit.window_seconds", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "spa")

	v.SetDefault("persistence.snapshot_key", "spa:store:snapshot")
	v.SetDefault("persistence.lock_key", "spa:store:lock")
	v.SetDefault("persistence.lock_ttl_seconds", 10)

	v.SetDefault("scheduling.appointment_code_prefix", "LH")
	v.SetDefault("scheduling.appointment_code_digits", 6)
	v.SetDefault("scheduling.order_code_prefix", "HD")
	v.SetDefault("scheduling.enforce_conflicts", true)

	v.SetDefault("customers.default_region", "VN")

	v.SetDefault("observability.service_name", "spa_backend")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigFormat)
	v.AddConfigPath(configPath)
	SetDefaults(v)

	// Allow env vars to override config values.
	// e.g. SPA_REDIS_ADDR overrides redis.addr
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; defaults plus env vars are enough to boot.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}
