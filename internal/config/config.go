package config

import (
	"fmt"
	"net"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// RequiredVersion is an optional semver constraint on the running binary
	RequiredVersion string `hcl:"required_version,optional"`

	Listener ListenerConfig `hcl:"listener,block"`
	Ingest   *IngestConfig  `hcl:"ingest,block"`
	Reload   *ReloadConfig  `hcl:"reload,block"`
	Logging  LoggingConfig  `hcl:"logging,block"`
}

// ListenerConfig holds the listening socket settings
type ListenerConfig struct {
	Address        string `hcl:"address,optional"`
	Port           *int   `hcl:"port,optional"`
	Backlog        int    `hcl:"backlog,optional"`
	ReuseAddr      *bool  `hcl:"reuse_addr,optional"`
	BindTimeoutStr string `hcl:"bind_timeout,optional"`
	BindTimeout    Duration // Parsed from BindTimeoutStr
}

// IngestConfig holds settings for draining the active connection
type IngestConfig struct {
	BufferSizeStr string `hcl:"buffer_size,optional"`
	BufferSize    int    // Parsed from BufferSizeStr
}

// ReloadConfig holds hot-reload settings
type ReloadConfig struct {
	WatchConfig bool `hcl:"watch_config,optional"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `hcl:"level,optional"`
	Output    string `hcl:"output,optional"`
	Format    string `hcl:"format,optional"`
	AuditLog  bool   `hcl:"audit_log,optional"`
	AuditPath string `hcl:"audit_path,optional"`
}

// SetDefaults sets default values for optional fields
func (c *Config) SetDefaults() error {
	// Listener defaults
	if c.Listener.Address == "" {
		c.Listener.Address = DefaultAddress
	}
	if c.Listener.Port == nil {
		port := DefaultPort
		c.Listener.Port = &port
	}
	if c.Listener.Backlog == 0 {
		c.Listener.Backlog = DefaultBacklog
	}
	if c.Listener.ReuseAddr == nil {
		reuse := true
		c.Listener.ReuseAddr = &reuse
	}
	if c.Listener.BindTimeoutStr != "" {
		if err := c.Listener.BindTimeout.UnmarshalText([]byte(c.Listener.BindTimeoutStr)); err != nil {
			return fmt.Errorf("invalid bind_timeout: %w", err)
		}
	}

	// Ingest defaults
	if c.Ingest == nil {
		c.Ingest = &IngestConfig{}
	}
	if c.Ingest.BufferSizeStr != "" {
		size, err := ParseSize(c.Ingest.BufferSizeStr)
		if err != nil {
			return fmt.Errorf("invalid buffer_size: %w", err)
		}
		c.Ingest.BufferSize = size
	}
	if c.Ingest.BufferSize == 0 {
		c.Ingest.BufferSize = DefaultBufferSize
	}

	if c.Reload == nil {
		c.Reload = &ReloadConfig{}
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.AuditLog && c.Logging.AuditPath == "" {
		c.Logging.AuditPath = "audit.log"
	}

	return nil
}

// PortNumber returns the configured port; 0 asks the kernel for an ephemeral one.
func (l *ListenerConfig) PortNumber() int {
	if l.Port == nil {
		return DefaultPort
	}
	return *l.Port
}

// ListenAddress returns host:port for logging
func (l *ListenerConfig) ListenAddress() string {
	return net.JoinHostPort(l.Address, strconv.Itoa(l.PortNumber()))
}

// ReuseAddress reports whether SO_REUSEADDR should be set
func (l *ListenerConfig) ReuseAddress() bool {
	return l.ReuseAddr == nil || *l.ReuseAddr
}

// ListenerChanged reports whether applying other requires rebinding the socket.
func (c *Config) ListenerChanged(other *Config) bool {
	a, b := c.Listener, other.Listener
	return a.Address != b.Address ||
		a.PortNumber() != b.PortNumber() ||
		a.Backlog != b.Backlog ||
		a.ReuseAddress() != b.ReuseAddress()
}
