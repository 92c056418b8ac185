package llm

import (
	"time"

	"github.com/yukikurage/task-assistant-api/internal/config"
)

// TaskType identifies the kind of LLM call being made.
type TaskType string

const (
	TaskClassify TaskType = "classify"
	TaskRepair   TaskType = "repair"
	TaskAnswer   TaskType = "answer"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float32
	MaxTokens   int
	TimeoutMs   int // overrides the global timeout if > 0
}

// Config holds all configuration for the LLM subsystem.
type Config struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns a disabled Config with per-task defaults.
func DefaultConfig() Config {
	return Config{
		Model:      "gpt-4o-mini",
		TimeoutMs:  8000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskClassify: {Temperature: 0, MaxTokens: 700},
			TaskRepair:   {Temperature: 0, MaxTokens: 700},
			TaskAnswer:   {Temperature: 0.2, MaxTokens: 300, TimeoutMs: 6000},
		},
	}
}

// FromAppConfig derives the LLM configuration from application settings.
func FromAppConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	c.Enabled = cfg.LLMConfigured()
	c.BaseURL = cfg.LLMBaseURL
	c.APIKey = cfg.OpenAIAPIKey
	if cfg.LLMModel != "" {
		c.Model = cfg.LLMModel
	}
	if cfg.LLMTimeoutMS > 0 {
		c.TimeoutMs = cfg.LLMTimeoutMS
	}
	c.MaxRetries = cfg.LLMMaxRetries
	return c
}

// TaskTimeout returns the effective timeout for a task.
func (c Config) TaskTimeout(task TaskType) time.Duration {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return time.Duration(tc.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
