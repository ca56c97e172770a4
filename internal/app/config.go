package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/tempoview/tempoview/pkg/validator"
)

// Config represents the runtime configuration for the TempoView backend.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Backends   BackendConfig    `mapstructure:"backends"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json console"`
}

// DatabaseConfig describes connection options for the workspace store.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// VaultConfig documents encryption requirements for stored secrets.
type VaultConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
	Algorithm     string `mapstructure:"algorithm"`
}

// BackendConfig toggles the individual database backends.
type BackendConfig struct {
	InfluxDB      BackendToggle `mapstructure:"influxdb"`
	IoTDB         BackendToggle `mapstructure:"iotdb"`
	ObjectStorage BackendToggle `mapstructure:"object_storage"`
}

// BackendToggle enables a backend family.
type BackendToggle struct {
	Enabled bool `mapstructure:"enabled"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// BridgeConfig tunes the command bridge.
type BridgeConfig struct {
	InvokeTimeout time.Duration `mapstructure:"invoke_timeout"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("TEMPOVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.ValidateStruct(&config); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/tempoview.sqlite")

	v.SetDefault("vault.algorithm", "aes-256-gcm")

	v.SetDefault("backends.influxdb.enabled", true)
	v.SetDefault("backends.iotdb.enabled", true)
	v.SetDefault("backends.object_storage.enabled", true)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("bridge.invoke_timeout", "30s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
