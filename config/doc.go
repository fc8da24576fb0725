// Package config loads chainkit application configuration.
//
// Configuration comes from a YAML file, a .env file and the process
// environment, in increasing order of precedence. Environment variables map
// onto nested keys by splitting on underscores, so AGENT_MAX_ITERATIONS
// overrides agent.max_iterations.
//
// # Usage
//
//	type AppConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Agent agent.Config   `mapstructure:"agent"`
//	    Model llm.Config     `mapstructure:"model"`
//	}
//
//	cfg, err := config.Load[AppConfig]("research-agent")
//
// Load applies defaults and validation when the target implements
// ApplyDefaults and Validate.
package config
