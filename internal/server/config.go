package server

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/quillpad/identity/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

func LoadConfig() (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath("./config/server")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config config.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Load environment-specific configurations
	for _, section := range []string{"server", "auth", "throttle"} {
		key := fmt.Sprintf("%s.%s", section, env)
		if envSettings := v.GetStringMap(key); len(envSettings) > 0 {
			var target interface{}
			switch section {
			case "server":
				target = &config.Server
			case "auth":
				target = &config.Auth
			case "throttle":
				target = &config.Throttle
			}
			if err := v.UnmarshalKey(key, target); err != nil {
				return nil, fmt.Errorf("error unmarshaling env config: %w", err)
			}
		}
	}

	return &config, nil
}
