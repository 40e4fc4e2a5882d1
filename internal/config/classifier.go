package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/pixelproof/pixelproof/internal/classify"
)

// LoadClassifierConfig loads classifier configuration from Viper and
// environment variables, with the same precedence as LoadLedgerConfig.
func LoadClassifierConfig() classify.Config {
	cfg := classify.Config{
		Provider: "server",
	}

	if v := viper.GetString("classifier.provider"); v != "" {
		cfg.Provider = v
	}
	if v := viper.GetString("classifier.endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := viper.GetString("classifier.command"); v != "" {
		cfg.Command = ExpandPath(v)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("CLASSIFIER_ENDPOINT")
	}
	if cfg.Command == "" {
		cfg.Command = os.Getenv("CLASSIFIER_COMMAND")
	}

	return cfg
}
