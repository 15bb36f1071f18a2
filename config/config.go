// Package config loads the agent's configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Anthropic API key for the model.
	AnthropicKey string

	// Optional 1-Click API key; listing and quoting work without one at
	// reduced rate limits.
	OneClickKey string

	// Optional HOT Pay partner token; payment history needs it.
	HotPayToken string

	// Claude model name.
	Model string

	// HTTP listen port.
	Port int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		OneClickKey:  os.Getenv("ONECLICK_API_KEY"),
		HotPayToken:  os.Getenv("HOTPAY_API_TOKEN"),
		Model:        os.Getenv("MODEL"),
		Port:         8080,
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("parsing PORT: %w", err)
		}
		cfg.Port = p
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AnthropicKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
