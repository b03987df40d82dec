package src

import (
	"fmt"

	"tracking_ivr/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig           model.LogConfig           `envconfig:""`
	ServerConfig        model.ServerConfig        `envconfig:""`
	SessionConfig       model.SessionConfig       `envconfig:""`
	RecordServiceConfig model.RecordServiceConfig `envconfig:""`
	TelephonyConfig     model.TelephonyConfig     `envconfig:""`
	LLMConfig           model.LLMConfig           `envconfig:""`
	TranscriptionConfig model.TranscriptionConfig `envconfig:""`
	QuotationConfig     model.QuotationConfig     `envconfig:""`
	CatalogPath         string                    `envconfig:"CATALOG_PATH"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.SessionConfig.Backend {
	case "memory":
	case "redis":
		if c.SessionConfig.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionConfig.Backend)
	}
	if c.SessionConfig.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RecordServiceConfig.BaseURL == "" && c.RecordServiceConfig.FixturePath == "" {
		return fmt.Errorf("one of RECORD_API_URL or RECORD_FIXTURE_PATH is required")
	}
	if c.TelephonyConfig.TransferEnabled && c.TelephonyConfig.AgentNumber == "" {
		return fmt.Errorf("AGENT_NUMBER is required when AGENT_TRANSFER_ENABLED=true")
	}
	return nil
}
