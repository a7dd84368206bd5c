package config

import (
	"fmt"
	"sync"
)

// Manager holds the live configuration and re-reads it on demand. The loop
// calls Reload from its reload hook, so listeners run on the loop goroutine.
type Manager struct {
	path string

	mu        sync.RWMutex
	current   *Config
	listeners []func(old, updated *Config)
	applied   int
}

// NewManager loads and validates path.
func NewManager(path string) (*Manager, error) {
	cfg, err := loadValid(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, current: cfg}, nil
}

func loadValid(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Get returns the current configuration. Callers must not modify it.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Path returns the file the configuration is loaded from
func (m *Manager) Path() string {
	return m.path
}

// Reloads returns how many reloads have been applied
func (m *Manager) Reloads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}

// Reload re-reads the file. A file that fails to parse or validate leaves
// the current configuration in place and no listener is called.
func (m *Manager) Reload() error {
	updated, err := loadValid(m.path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	m.mu.Lock()
	old := m.current
	m.current = updated
	m.applied++
	listeners := append([]func(old, updated *Config){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(old, updated)
	}
	return nil
}

// OnReload registers fn to run after every successful Reload, on the
// goroutine that called Reload.
func (m *Manager) OnReload(fn func(old, updated *Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}
