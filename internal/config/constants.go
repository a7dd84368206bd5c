package config

// Default listener and ingest constants
const (
	// DefaultAddress is the IPv4 address the listener binds to
	DefaultAddress = "0.0.0.0"
	// DefaultPort is the TCP port the listener binds to
	DefaultPort = 12345
	// DefaultBacklog is the number of pending connections the kernel queues
	DefaultBacklog = 10
	// DefaultBufferSize is the size of a single read from the active peer
	DefaultBufferSize = 4096

	// MinBufferSize and MaxBufferSize bound ingest.buffer_size
	MinBufferSize = 512
	MaxBufferSize = 1 << 20
)
