package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ErrNoAPIKey marks the missing-credential condition. It is a warning
// at startup, not a fatal error: requests simply fail at call time with
// the remote service's authentication error.
var ErrNoAPIKey = errors.New("no API key configured")

type Config struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"THUMBCHAT_BASE_URL"`
	Model      string `env:"THUMBCHAT_MODEL" envDefault:"gpt-image-1"`
	Size       string `env:"THUMBCHAT_SIZE" envDefault:"1536x1024"`
	Quality    string `env:"THUMBCHAT_QUALITY" envDefault:"high"`
	TimeoutSec int    `env:"THUMBCHAT_TIMEOUT_SEC" envDefault:"120"`
	DataDir    string `env:"THUMBCHAT_DATA_DIR"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// CheckAPIKey returns ErrNoAPIKey when no credential is set.
func (c *Config) CheckAPIKey() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
