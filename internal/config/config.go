package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the resolved application configuration.
type Config struct {
	Storage        StorageConfig
	Redis          RedisConfig
	Classification ClassificationConfig
	Server         ServerConfig
	Logging        LoggingConfig
	Learning       LearningConfig
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend      string
	DatabasePath string
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	URL    string
	Prefix string
}

// ClassificationConfig tunes the classifier.
type ClassificationConfig struct {
	MinInvestmentAmount  int64
	LearnedRuleThreshold float64
}

// LearningConfig tunes rule synthesis.
type LearningConfig struct {
	MinAssignments int
	FrequencyFloor float64
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("database.path", "$HOME/.local/share/tally/tally.db")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.prefix", "tally:")
	v.SetDefault("classification.min_investment_amount", 1000)
	v.SetDefault("classification.learned_rule_threshold", 0.6)
	v.SetDefault("learning.min_assignments", 2)
	v.SetDefault("learning.frequency_floor", 0.5)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration from v, applying defaults for unset keys.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Storage: StorageConfig{
			Backend:      strings.ToLower(v.GetString("storage.backend")),
			DatabasePath: ExpandPath(v.GetString("database.path")),
		},
		Redis: RedisConfig{
			URL:    v.GetString("redis.url"),
			Prefix: v.GetString("redis.prefix"),
		},
		Classification: ClassificationConfig{
			MinInvestmentAmount:  v.GetInt64("classification.min_investment_amount"),
			LearnedRuleThreshold: v.GetFloat64("classification.learned_rule_threshold"),
		},
		Learning: LearningConfig{
			MinAssignments: v.GetInt("learning.min_assignments"),
			FrequencyFloor: v.GetFloat64("learning.frequency_floor"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DatabasePath == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite backend", common.ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: redis.url is required for the redis backend", common.ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidConfig, c.Storage.Backend)
	}

	if t := c.Classification.LearnedRuleThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: learned_rule_threshold must be in (0,1], got %v", common.ErrInvalidConfig, t)
	}
	if c.Classification.MinInvestmentAmount < 0 {
		return fmt.Errorf("%w: min_investment_amount must not be negative", common.ErrInvalidConfig)
	}
	if c.Learning.MinAssignments < 1 {
		return fmt.Errorf("%w: min_assignments must be at least 1, got %d", common.ErrInvalidConfig, c.Learning.MinAssignments)
	}
	if f := c.Learning.FrequencyFloor; f < 0 || f >= 1 {
		return fmt.Errorf("%w: frequency_floor must be in [0,1), got %v", common.ErrInvalidConfig, f)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}
