package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DBDriver      string `mapstructure:"db_driver"`
	DBHost        string `mapstructure:"db_host"`
	DBPort        string `mapstructure:"db_port"`
	DBUser        string `mapstructure:"db_user"`
	DBPassword    string `mapstructure:"db_password"`
	DBName        string `mapstructure:"db_name"`
	DBPath        string `mapstructure:"db_path"`
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	SessionSecret string `mapstructure:"session_secret"`
	GinMode       string `mapstructure:"gin_mode"`
	ServerAddr    string `mapstructure:"server_addr"`

	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	LLMEnabled    bool   `mapstructure:"llm_enabled"`
	LLMBaseURL    string `mapstructure:"llm_base_url"`
	LLMModel      string `mapstructure:"llm_model"`
	LLMTimeoutMS  int    `mapstructure:"llm_timeout_ms"`
	LLMMaxRetries int    `mapstructure:"llm_max_retries"`

	LogLevel       string `mapstructure:"log_level"`
	LogDevelopment bool   `mapstructure:"log_development"`
}

var defaults = map[string]interface{}{
	"db_driver":       DriverMySQL,
	"db_host":         "localhost",
	"db_port":         "3306",
	"db_user":         "taskuser",
	"db_password":     "taskpassword",
	"db_name":         "task_management",
	"db_path":         "task_assistant.db",
	"redis_host":      "",
	"redis_port":      "6379",
	"session_secret":  "default-secret-key-change-me",
	"gin_mode":        "debug",
	"server_addr":     ":8080",
	"openai_api_key":  "",
	"llm_enabled":     false,
	"llm_base_url":    "",
	"llm_model":       "gpt-4o-mini",
	"llm_timeout_ms":  8000,
	"llm_max_retries": 1,
	"log_level":       "info",
	"log_development": false,
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.LLMTimeoutMS < 0 {
		return fmt.Errorf("%w: llm_timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("%w: llm_max_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LLMConfigured reports whether an LLM endpoint should be used.
func (c *Config) LLMConfigured() bool {
	return c.LLMEnabled && (c.OpenAIAPIKey != "" || c.LLMBaseURL != "")
}

// LLMTimeout returns the per-call LLM timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// UseRedisSessions reports whether sessions are kept in redis rather than cookies.
func (c *Config) UseRedisSessions() bool {
	return c.RedisHost != ""
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
