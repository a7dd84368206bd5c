package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/gitrgoliveira/tcp-sink/internal/version"
)

// ValidationFunc is a function that validates a config and returns an error
type ValidationFunc func(*Config) error

// validationRules defines all validation rules to be applied to the configuration
var validationRules = []ValidationFunc{
	validateRequiredVersion,
	validateListenerAddress,
	validateListenerPort,
	validateListenerBacklog,
	validateIngestBufferSize,
	validateLoggingLevel,
	validateLoggingFormat,
	validateLoggingOutput,
}

// Validate validates the configuration using all validation rules
func (c *Config) Validate() error {
	for _, rule := range validationRules {
		if err := rule(c); err != nil {
			return err
		}
	}
	return nil
}

func validateRequiredVersion(c *Config) error {
	if err := version.Check(c.RequiredVersion); err != nil {
		return fmt.Errorf("required_version: %w", err)
	}
	return nil
}

// Listener validation rules
func validateListenerAddress(c *Config) error {
	addr, err := netip.ParseAddr(c.Listener.Address)
	if err != nil {
		return fmt.Errorf("listener config: address %q is not an IP address", c.Listener.Address)
	}
	if !addr.Is4() {
		return fmt.Errorf("listener config: address must be IPv4, got '%s'", c.Listener.Address)
	}
	return nil
}

func validateListenerPort(c *Config) error {
	port := c.Listener.PortNumber()
	if port < 0 || port > 65535 {
		return fmt.Errorf("listener config: port must be between 0 and 65535, got %d", port)
	}
	return nil
}

func validateListenerBacklog(c *Config) error {
	if c.Listener.Backlog < 1 {
		return fmt.Errorf("listener config: backlog must be >= 1, got %d", c.Listener.Backlog)
	}
	return nil
}

// Ingest validation rules
func validateIngestBufferSize(c *Config) error {
	if c.Ingest == nil {
		return nil
	}

	if c.Ingest.BufferSize < MinBufferSize {
		return fmt.Errorf("ingest config: buffer_size must be >= 512B, got %s", FormatSize(c.Ingest.BufferSize))
	}

	if c.Ingest.BufferSize > MaxBufferSize {
		return fmt.Errorf("ingest config: buffer_size must be <= 1MiB, got %s", FormatSize(c.Ingest.BufferSize))
	}

	return nil
}

// Logging validation rules
func validateLoggingLevel(c *Config) error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "error" {
		return fmt.Errorf("logging config: level must be 'debug', 'info', or 'error', got '%s'", level)
	}
	c.Logging.Level = level
	return nil
}

func validateLoggingFormat(c *Config) error {
	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("logging config: format must be 'text' or 'json', got '%s'", format)
	}
	c.Logging.Format = format
	return nil
}

func validateLoggingOutput(c *Config) error {
	if strings.TrimSpace(c.Logging.Output) == "" {
		return fmt.Errorf("logging config: output cannot be empty")
	}
	return nil
}
