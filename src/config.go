package src

import (
	"fmt"

	"runwizard/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig    model.LogConfig    `envconfig:""`
	StoreConfig  model.StoreConfig  `envconfig:""`
	ServerConfig model.ServerConfig `envconfig:""`
	WizardConfig model.WizardConfig `envconfig:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	return &config, nil
}
