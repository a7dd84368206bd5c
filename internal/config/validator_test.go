package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Default()
	cfg.Listener.Address = "127.0.0.1"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains string
	}{
		{
			name:          "unsatisfied required_version",
			mutate:        func(c *Config) { c.RequiredVersion = ">= 99.0" },
			errorContains: "required_version: version",
		},
		{
			name:          "malformed required_version",
			mutate:        func(c *Config) { c.RequiredVersion = "soon" },
			errorContains: "invalid version constraint",
		},
		{
			name:          "hostname instead of address",
			mutate:        func(c *Config) { c.Listener.Address = "localhost" },
			errorContains: "is not an IP address",
		},
		{
			name:          "IPv6 address",
			mutate:        func(c *Config) { c.Listener.Address = "::1" },
			errorContains: "address must be IPv4",
		},
		{
			name: "port out of range",
			mutate: func(c *Config) {
				port := 70000
				c.Listener.Port = &port
			},
			errorContains: "port must be between 0 and 65535",
		},
		{
			name: "negative port",
			mutate: func(c *Config) {
				port := -1
				c.Listener.Port = &port
			},
			errorContains: "port must be between 0 and 65535",
		},
		{
			name:          "zero backlog",
			mutate:        func(c *Config) { c.Listener.Backlog = 0 },
			errorContains: "backlog must be >= 1",
		},
		{
			name:          "tiny buffer",
			mutate:        func(c *Config) { c.Ingest.BufferSize = 16 },
			errorContains: "buffer_size must be >= 512B",
		},
		{
			name:          "invalid logging level",
			mutate:        func(c *Config) { c.Logging.Level = "trace" },
			errorContains: "level must be 'debug', 'info', or 'error'",
		},
		{
			name:          "invalid logging format",
			mutate:        func(c *Config) { c.Logging.Format = "xml" },
			errorContains: "format must be 'text' or 'json'",
		},
		{
			name:          "blank logging output",
			mutate:        func(c *Config) { c.Logging.Output = "  " },
			errorContains: "output cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestValidate_NormalizesCase(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "DEBUG"
	cfg.Logging.Format = "JSON"

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}
