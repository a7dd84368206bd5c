package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromString(t *testing.T) {
	hclContent := `
required_version = ">= 0.1"

listener {
  address      = "127.0.0.1"
  port         = 9000
  backlog      = 32
  reuse_addr   = false
  bind_timeout = "3s"
}

ingest {
  buffer_size = "8KiB"
}

reload {
  watch_config = true
}

logging {
  level      = "debug"
  output     = "stdout"
  format     = "json"
  audit_log  = true
  audit_path = "/tmp/audit.log"
}
`

	cfg, err := LoadFromString("test.hcl", hclContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ">= 0.1", cfg.RequiredVersion)

	// Verify Listener config
	assert.Equal(t, "127.0.0.1", cfg.Listener.Address)
	assert.Equal(t, 9000, cfg.Listener.PortNumber())
	assert.Equal(t, 32, cfg.Listener.Backlog)
	assert.False(t, cfg.Listener.ReuseAddress())
	assert.Equal(t, Duration(3*time.Second), cfg.Listener.BindTimeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listener.ListenAddress())

	// Verify Ingest config
	require.NotNil(t, cfg.Ingest)
	assert.Equal(t, 8192, cfg.Ingest.BufferSize)

	// Verify Reload config
	require.NotNil(t, cfg.Reload)
	assert.True(t, cfg.Reload.WatchConfig)

	// Verify Logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Logging.AuditLog)
	assert.Equal(t, "/tmp/audit.log", cfg.Logging.AuditPath)
}

func TestLoadFromString_Minimal(t *testing.T) {
	hclContent := `
listener {}

logging {}
`

	cfg, err := LoadFromString("test.hcl", hclContent)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.Listener.Address)
	assert.Equal(t, DefaultPort, cfg.Listener.PortNumber())
	assert.Equal(t, DefaultBacklog, cfg.Listener.Backlog)
	assert.True(t, cfg.Listener.ReuseAddress())
	assert.True(t, cfg.Listener.BindTimeout.IsZero())
	assert.Equal(t, DefaultBufferSize, cfg.Ingest.BufferSize)
	assert.False(t, cfg.Reload.WatchConfig)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromString_EphemeralPort(t *testing.T) {
	hclContent := `
listener {
  address = "127.0.0.1"
  port    = 0
}

logging {}
`

	cfg, err := LoadFromString("test.hcl", hclContent)
	require.NoError(t, err)

	// An explicit zero survives defaulting
	require.NotNil(t, cfg.Listener.Port)
	assert.Equal(t, 0, cfg.Listener.PortNumber())
}

func TestLoadFromString_InvalidBindTimeout(t *testing.T) {
	hclContent := `
listener {
  bind_timeout = "-1s"
}

logging {}
`

	cfg, err := LoadFromString("test.hcl", hclContent)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid bind_timeout")
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}

	err := cfg.SetDefaults()
	assert.NoError(t, err)

	// Listener defaults
	assert.Equal(t, "0.0.0.0", cfg.Listener.Address)
	assert.Equal(t, 12345, cfg.Listener.PortNumber())
	assert.Equal(t, 10, cfg.Listener.Backlog)
	assert.True(t, cfg.Listener.ReuseAddress())

	// Ingest defaults
	assert.Equal(t, 4096, cfg.Ingest.BufferSize)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestSetDefaults_AuditPath(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			AuditLog: true,
		},
	}

	err := cfg.SetDefaults()
	assert.NoError(t, err)

	// Audit path should be set when audit_log is true
	assert.Equal(t, "audit.log", cfg.Logging.AuditPath)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:12345", cfg.Listener.ListenAddress())
}

func TestListenerChanged(t *testing.T) {
	base := Default()

	same := Default()
	assert.False(t, base.ListenerChanged(same))

	port := 9999
	moved := Default()
	moved.Listener.Port = &port
	assert.True(t, base.ListenerChanged(moved))

	reuse := false
	noReuse := Default()
	noReuse.Listener.ReuseAddr = &reuse
	assert.True(t, base.ListenerChanged(noReuse))

	// Ingest and logging changes never require a rebind
	tuned := Default()
	tuned.Ingest.BufferSize = 8192
	tuned.Logging.Level = "debug"
	assert.False(t, base.ListenerChanged(tuned))
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.hcl")

	hclContent := `
listener {
  address = "127.0.0.1"
  port    = 12345
}

logging {
  level = "info"
}
`

	err := os.WriteFile(configPath, []byte(hclContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Listener.Address)
	assert.Equal(t, 12345, cfg.Listener.PortNumber())
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.hcl")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_InvalidHCL(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.hcl")

	err := os.WriteFile(configPath, []byte("invalid { hcl syntax"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse configuration")
}

func TestBufferSizeConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		bufferSize    string
		expectedSize  int
		expectError   bool
		errorContains string
	}{
		{
			name:         "IEC 4KiB",
			bufferSize:   "4KiB",
			expectedSize: 4096,
		},
		{
			name:         "SI 4KB",
			bufferSize:   "4KB",
			expectedSize: 4000,
		},
		{
			name:         "plain bytes",
			bufferSize:   "2048",
			expectedSize: 2048,
		},
		{
			name:         "1MiB (max)",
			bufferSize:   "1MiB",
			expectedSize: 1 << 20,
		},
		{
			name:         "512B (min)",
			bufferSize:   "512B",
			expectedSize: 512,
		},
		{
			name:          "too small",
			bufferSize:    "100B",
			expectError:   true,
			errorContains: "buffer_size must be >= 512B",
		},
		{
			name:          "too large",
			bufferSize:    "2MiB",
			expectError:   true,
			errorContains: "buffer_size must be <= 1MiB",
		},
		{
			name:          "invalid format",
			bufferSize:    "lots",
			expectError:   true,
			errorContains: "invalid buffer_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hcl := `
listener {}

ingest {
  buffer_size = "` + tt.bufferSize + `"
}

logging {}
`
			cfg, err := LoadFromString("test.hcl", hcl)
			if tt.expectError {
				// Range errors surface from Validate, format errors from loading
				if err == nil && cfg != nil {
					err = cfg.Validate()
				}
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}

			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.expectedSize, cfg.Ingest.BufferSize,
				"Buffer size should be %d bytes (%s)", tt.expectedSize, FormatSize(tt.expectedSize))
		})
	}
}
