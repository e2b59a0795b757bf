package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable the loader reads.
	EnvPrefix = "MONGOINIT"

	DefaultURI              = "mongodb://localhost:27017"
	DefaultConnectTimeout   = 10 * time.Second
	DefaultOperationTimeout = 30 * time.Second
)

// Config is the full runtime configuration.
type Config struct {
	Mongo MongoConfig `mapstructure:"mongo" yaml:"mongo"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
}

// MongoConfig describes how to reach the engine.
type MongoConfig struct {
	URI              string        `mapstructure:"uri" yaml:"uri"`
	Username         string        `mapstructure:"username" yaml:"username"`
	Password         string        `mapstructure:"password" yaml:"-"`
	AuthSource       string        `mapstructure:"auth_source" yaml:"auth_source"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// LogConfig controls log level and the optional rotating log file.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Defaults returns the built-in default values keyed by config path.
func Defaults() map[string]any {
	return map[string]any{
		"mongo.uri":               DefaultURI,
		"mongo.username":          "",
		"mongo.password":          "",
		"mongo.auth_source":       "admin",
		"mongo.connect_timeout":   DefaultConnectTimeout,
		"mongo.operation_timeout": DefaultOperationTimeout,
		"log.level":               "info",
		"log.file":                "",
		"log.max_size_mb":         50,
		"log.max_backups":         5,
		"log.max_age_days":        30,
		"log.compress":            true,
	}
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"uri":               "mongo.uri",
	"username":          "mongo.username",
	"password":          "mongo.password",
	"auth-source":       "mongo.auth_source",
	"connect-timeout":   "mongo.connect_timeout",
	"operation-timeout": "mongo.operation_timeout",
	"log-level":         "log.level",
	"log-file":          "log.file",
}

// Load resolves the configuration from, in increasing precedence: defaults,
// the config file, the environment (including a .env file) and changed flags.
// configFile may be empty, in which case the standard locations are searched.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("mongoinit")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mongoinit")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "mongoinit"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional variable used by MongoDB tooling is honored as a fallback.
	if err := v.BindEnv("mongo.uri", EnvPrefix+"_MONGO_URI", "MONGODB_URI"); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are never overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	uri := strings.TrimSpace(c.Mongo.URI)
	if uri == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return fmt.Errorf("mongo.uri must use the mongodb:// or mongodb+srv:// scheme")
	}
	if c.Mongo.Password != "" && c.Mongo.Username == "" {
		return fmt.Errorf("mongo.password is set without mongo.username")
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("mongo.connect_timeout must be positive, got %s", c.Mongo.ConnectTimeout)
	}
	if c.Mongo.OperationTimeout <= 0 {
		return fmt.Errorf("mongo.operation_timeout must be positive, got %s", c.Mongo.OperationTimeout)
	}
	return nil
}

// Timeouts returns the Mongo timeouts as a TimeoutConfig.
func (c *Config) Timeouts() *TimeoutConfig {
	return &TimeoutConfig{
		Connect:   c.Mongo.ConnectTimeout,
		Operation: c.Mongo.OperationTimeout,
	}
}
