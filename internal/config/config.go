package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"production"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`

	// Dify upstream settings. The API key is deliberately not marked required:
	// its absence must surface as a 500 on the chat and health endpoints, not
	// as a boot failure.
	DifyAPIURL string `envconfig:"DIFY_API_URL" default:"https://api.dify.ai/v1"`
	DifyAPIKey string `envconfig:"DIFY_API_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
