package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigRejectsMissingOwner(t *testing.T) {
	cfg := &Config{
		ProtocolWalletAddress: "account:wallet",
		GraduationThreshold:   DefaultGraduationThreshold,
		LogLevel:              DefaultLogLevel,
	}
	err := validateConfig(cfg)
	assert.Error(t, err)
}

func TestValidateConfigRejectsBadLogLevel(t *testing.T) {
	cfg := &Config{
		OwnerAddress:          "account:owner",
		ProtocolWalletAddress: "account:wallet",
		GraduationThreshold:   DefaultGraduationThreshold,
		LogLevel:              "verbose",
	}
	err := validateConfig(cfg)
	assert.Error(t, err)
}

func TestValidateConfigAcceptsWellFormed(t *testing.T) {
	cfg := &Config{
		OwnerAddress:          "account:owner",
		ProtocolWalletAddress: "account:wallet",
		GraduationThreshold:   DefaultGraduationThreshold,
		LogLevel:              DefaultLogLevel,
	}
	assert.NoError(t, validateConfig(cfg))
}
