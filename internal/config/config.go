// Package config loads this module's tunable economic parameters and
// process settings, following RovshanMuradov-solana-bot's
// internal/config/config.go idiom almost exactly: a
// mapstructure-tagged struct, viper defaults, an environment-variable
// overlay, and a validateConfig pass.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds every tunable this module's components are constructed
// with. Economic constants (FeeBps and friends) are compile-time
// constants in internal/curve, not here — Config only covers the
// parameters a deployer legitimately varies per environment.
type Config struct {
	OwnerAddress         string `mapstructure:"owner_address"`
	ProtocolWalletAddress string `mapstructure:"protocol_wallet_address"`
	GraduationThreshold  string `mapstructure:"graduation_threshold"`
	LogLevel             string `mapstructure:"log_level"`
	Environment          string `mapstructure:"environment"`
}

const (
	DefaultGraduationThreshold = "1000000000000000000000" // 1000 coin, wad-scaled
	DefaultLogLevel            = "info"
	DefaultEnvironment         = "development"
)

// LoadConfig reads path through viper (a missing or unreadable file is
// an error), overlays NILE_-prefixed environment variables onto the
// keys viper knows (those with a default or present in the file), and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("graduation_threshold", DefaultGraduationThreshold)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("environment", DefaultEnvironment)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("NILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.OwnerAddress == "" {
		return errors.New("missing owner_address in configuration")
	}
	if cfg.ProtocolWalletAddress == "" {
		return errors.New("missing protocol_wallet_address in configuration")
	}
	if cfg.GraduationThreshold == "" {
		return errors.New("missing graduation_threshold in configuration")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("invalid log_level, must be one of debug/info/warn/error")
	}
	return nil
}
