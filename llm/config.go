package llm

import (
	"time"

	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/validation"
)

// Config holds configuration for creating a model unit.
// It is backend-agnostic; the Backend field selects the implementation.
type Config struct {
	// Name identifies this model in logs and metrics (e.g., "primary-llm").
	Name string `yaml:"name" mapstructure:"name"`

	// Backend selects the implementation (e.g., "openai", "ollama").
	// Must match a backend registered via RegisterBackend.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Model is the default model to use (e.g., "gpt-4o-mini", "qwen2.5:1.5b").
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey authenticates against hosted backends.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the backend's API base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Temperature is the default sampling temperature. Nil leaves it to the backend.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default maximum tokens for responses. 0 means backend default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds each model call. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Resilience configures rate limiting, circuit breaking and retry
	// around the backend.
	Resilience node.ResilienceConfig `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults sets default values for unset config fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Name == "" && c.Backend != "" {
		c.Name = c.Backend + "-llm"
	}
	if c.Resilience.Retry != nil {
		c.Resilience.Retry.ApplyDefaults()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Required("backend", c.Backend)
	v.Min("max_tokens", c.MaxTokens, 0)
	if c.Temperature != nil {
		v.Range("temperature", *c.Temperature, 0, 2)
	}
	v.Check(c.Timeout >= 0, "timeout", "must not be negative")
	return v.Validate()
}
