package agent

import (
	"strings"

	"github.com/kbukum/chainkit/validation"
)

const (
	// HistoryKey is the store key holding the conversation.
	HistoryKey = "agent_history"

	DefaultMaxIterations = 10
	DefaultSystemPrompt  = "You are a helpful assistant."
	DefaultInstruction   = "Given the tools available, answer the user's question: %s"
	DefaultSeparator     = "\n\n"
)

// Config holds the loop settings. It can be loaded with config.LoadConfig.
type Config struct {
	Name          string `yaml:"name" mapstructure:"name"`
	MaxIterations int    `yaml:"max_iterations" mapstructure:"max_iterations"`
	SystemPrompt  string `yaml:"system_prompt" mapstructure:"system_prompt"`
	// Instruction wraps each question. A %s verb marks where the
	// question goes; without one the question is appended.
	Instruction string `yaml:"instruction" mapstructure:"instruction"`
	Separator   string `yaml:"separator" mapstructure:"separator"`
}

// ApplyDefaults sets default values for unset config fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "agent"
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Instruction == "" {
		c.Instruction = DefaultInstruction
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.Min("max_iterations", c.MaxIterations, 1)
	v.Check(strings.Count(c.Instruction, "%s") <= 1, "instruction", "must contain at most one %s")
	return v.Validate()
}

// Options converts the config into executor options.
func (c Config) Options() []Option {
	return []Option{
		WithName(c.Name),
		WithMaxIterations(c.MaxIterations),
		WithSystemPrompt(c.SystemPrompt),
		WithInstruction(c.Instruction),
		WithSeparator(c.Separator),
	}
}
