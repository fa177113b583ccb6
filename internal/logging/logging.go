// Package logging constructs the process-wide zap logger, following
// RovshanMuradov-solana-bot's cmd/bot/main.go construction idiom
// (zap.NewDevelopment()/zap.NewProduction(), deferred Sync()).
package logging

import "go.uber.org/zap"

// New builds a logger appropriate for environment ("development"
// yields human-readable console output; anything else yields
// production JSON output), at the given level ("debug", "info",
// "warn", "error").
func New(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl

	return cfg.Build()
}
