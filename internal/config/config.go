// Package config loads runtime settings from ~/.config/remi/config.yaml
// and REMI_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"remi/internal/recognizer"
	"remi/internal/store"
)

// Config holds everything the client needs to reach its collaborators.
type Config struct {
	APIBaseURL        string `mapstructure:"api_base_url"`
	ExtractionBaseURL string `mapstructure:"extraction_base_url"`
	RecognizerSocket  string `mapstructure:"recognizer_socket"`
	Locale            string `mapstructure:"locale"`
	DataPath          string `mapstructure:"data_path"`
	Debug             bool   `mapstructure:"debug"`
}

// Load reads configuration. path overrides the default search locations
// when non-empty. A missing config file is fine; defaults apply.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("extraction_base_url", "http://localhost:5678")
	v.SetDefault("recognizer_socket", recognizer.SocketPath())
	v.SetDefault("locale", "ru-RU")
	v.SetDefault("data_path", store.DefaultPath())
	v.SetDefault("debug", false)

	v.SetEnvPrefix("REMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "remi"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
