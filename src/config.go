package src

import (
	"fmt"

	"leadchat/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig       model.LogConfig       `envconfig:"LOG"`
	ServerConfig    model.ServerConfig    `envconfig:"SERVER"`
	StoreConfig     model.StoreConfig     `envconfig:"STORE"`
	RateLimitConfig model.RateLimitConfig `envconfig:"RATELIMIT"`
	LLMConfig       model.LLMConfig       `envconfig:"LLM"`
	EmailConfig     model.EmailConfig     `envconfig:"EMAIL"`
	VoiceConfig     model.VoiceConfig     `envconfig:"VOICE"`
	TracingConfig   model.TracingConfig   `envconfig:"TRACING"`

	LeadThreshold        int    `envconfig:"LEAD_THRESHOLD" default:"60"`
	ClientLoggingEnabled bool   `envconfig:"CLIENT_LOGGING_ENABLED" default:"false"`
	ContentPath          string `envconfig:"CONTENT_PATH"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if config.LeadThreshold < 0 || config.LeadThreshold > 100 {
		return nil, fmt.Errorf("LEAD_THRESHOLD must be within 0..100, got %d", config.LeadThreshold)
	}

	return &config, nil
}
