package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. MAYABUS_INPUT_DIR
const EnvPrefix = "MAYABUS"

// ETLConfig contains the configuration of the reconciliation runs
type ETLConfig struct {
	// Directory scanned for tickets*, servicios* and validaciones* exports
	InputDir string `mapstructure:"input_dir"`

	// Interval between scheduled runs
	RunInterval time.Duration `mapstructure:"run_interval"`

	// Goroutines evaluating the per-row join; 0 or 1 means sequential
	JoinWorkers int `mapstructure:"join_workers"`

	// Enables debug output
	EnableDetailedLogging bool `mapstructure:"enable_detailed_logging"`

	Log     LogConfig      `mapstructure:"log"`
	Storage DatabaseConfig `mapstructure:"storage"`
	Kafka   KafkaConfig    `mapstructure:"kafka"`
	Server  ServerConfig   `mapstructure:"server"`
}

// LogConfig contains logger options
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// KafkaConfig contains the optional event publishing options
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Enabled reports whether events should be published
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// ServerConfig contains the dashboard server options
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultETLConfig is used when no file or environment override is present
var DefaultETLConfig = ETLConfig{
	InputDir:              "data",
	RunInterval:           1 * time.Hour,
	JoinWorkers:           1,
	EnableDetailedLogging: false,
	Log: LogConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	},
	Storage: DatabaseConfig{
		Driver: "none",
		Host:   "localhost",
		Port:   3306,
		User:   "root",
		DBName: "mayabus_analytics",
	},
	Kafka: KafkaConfig{
		Topic: "mayabus.reconciliation",
	},
	Server: ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		MaxUploadMB:     32,
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 10 * time.Second,
	},
}

// GetConfig returns the default configuration
func GetConfig() ETLConfig {
	return DefaultETLConfig
}

// Load reads the configuration. Precedence (highest to lowest):
// 1. Environment variables (MAYABUS_*)
// 2. Config file at path, when path is not empty
// 3. Built-in defaults
func Load(path string) (ETLConfig, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ETLConfig{}, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg ETLConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ETLConfig{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ETLConfig{}, err
	}
	return cfg, nil
}

// Validate checks the values that would break a run
func (c ETLConfig) Validate() error {
	var errs []error
	if c.RunInterval <= 0 {
		errs = append(errs, fmt.Errorf("run_interval must be positive, got %v", c.RunInterval))
	}
	if c.JoinWorkers < 0 {
		errs = append(errs, fmt.Errorf("join_workers must not be negative, got %d", c.JoinWorkers))
	}
	switch Dialect(strings.ToLower(c.Storage.Driver)) {
	case DialectMySQL, DialectSQLite, DialectNone, "":
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.Storage.Driver))
	}
	if c.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must not be negative"))
	}
	return errors.Join(errs...)
}

// setDefaults registers every key so that environment overrides are picked up
func setDefaults(v *viper.Viper) {
	d := DefaultETLConfig

	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("run_interval", d.RunInterval.String())
	v.SetDefault("join_workers", d.JoinWorkers)
	v.SetDefault("enable_detailed_logging", d.EnableDetailedLogging)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.host", d.Storage.Host)
	v.SetDefault("storage.port", d.Storage.Port)
	v.SetDefault("storage.user", d.Storage.User)
	v.SetDefault("storage.password", d.Storage.Password)
	v.SetDefault("storage.dbname", d.Storage.DBName)

	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout.String())
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout.String())
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())
}
