// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/validation"
)

// EnvPrefix is prepended to every environment override, e.g. ALERTBOARD_SERVER_PORT
const EnvPrefix = "ALERTBOARD"

// ErrInvalidConfig is returned when the loaded configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Source types
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceNATS   = "nats"
)

// Config is the root configuration of the alert dashboard backend
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Source SourceConfig `mapstructure:"source"`
	Auth   AuthConfig   `mapstructure:"auth"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Query  QueryConfig  `mapstructure:"query"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Addr returns the listen address for the configured port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// SourceConfig selects where alerts are loaded from at startup
type SourceConfig struct {
	Type        string        `mapstructure:"type" validate:"oneof=file sqlite nats"`
	Path        string        `mapstructure:"path" validate:"required_unless=Type nats"`
	Strict      bool          `mapstructure:"strict"`
	LoadTimeout time.Duration `mapstructure:"load_timeout" validate:"gt=0"`
	NATS        NATSConfig    `mapstructure:"nats"`
}

// NATSConfig configures the JetStream source
type NATSConfig struct {
	URL            string        `mapstructure:"url" validate:"required"`
	Stream         string        `mapstructure:"stream" validate:"required"`
	Subject        string        `mapstructure:"subject" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	MaxWait        time.Duration `mapstructure:"max_wait" validate:"gt=0"`
}

// AuthConfig configures bearer token validation
type AuthConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Algorithm     string `mapstructure:"algorithm" validate:"oneof=HS256 RS256"`
	Secret        string `mapstructure:"secret" validate:"required_if=Enabled true Algorithm HS256"`
	PublicKeyFile string `mapstructure:"public_key_file" validate:"required_if=Enabled true Algorithm RS256"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxAge         time.Duration `mapstructure:"max_age" validate:"gte=0"`
}

// QueryConfig bounds query parameters accepted at the HTTP boundary
type QueryConfig struct {
	MaxMonths     int `mapstructure:"max_months" validate:"min=1,max=1200"`
	DefaultMonths int `mapstructure:"default_months" validate:"min=1,ltefield=MaxMonths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5555)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("source.type", SourceFile)
	v.SetDefault("source.path", "data/alerts.json")
	v.SetDefault("source.strict", false)
	v.SetDefault("source.load_timeout", 30*time.Second)
	v.SetDefault("source.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("source.nats.stream", "ALERTS")
	v.SetDefault("source.nats.subject", "alerts.>")
	v.SetDefault("source.nats.connect_timeout", 5*time.Second)
	v.SetDefault("source.nats.max_wait", 5*time.Second)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.public_key_file", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("query.max_months", 120)
	v.SetDefault("query.default_months", 12)
}

// Load reads the YAML file at path, applies ALERTBOARD_* environment overrides
// and validates the result. A missing file leaves the defaults in place.
func Load(path string, logger *zap.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Config file not found, using defaults", zap.String("path", path))
		} else {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			logger.Info("Loaded config file", zap.String("path", v.ConfigFileUsed()))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section of the configuration
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
