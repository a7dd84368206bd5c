package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a size string to bytes using dustin/go-humanize.
//
// Both unit families are accepted and they differ:
//   - SI (base 1000): "4KB" = 4,000 bytes, "1MB" = 1,000,000 bytes
//   - IEC (base 1024): "4KiB" = 4,096 bytes, "1MiB" = 1,048,576 bytes
//
// Plain numbers ("4096") are bytes. Read buffers are usually sized in IEC units.
func ParseSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("size string cannot be empty")
	}

	bytes, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s (expected format: 4KiB, 4096, 1MB, etc.): %w", sizeStr, err)
	}

	if bytes > uint64(int(^uint(0)>>1)) {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	return int(bytes), nil
}

// FormatSize renders a byte count in IEC units ("4.0 KiB"), matching how
// buffer sizes are usually configured.
func FormatSize(bytes int) string {
	if bytes < 0 {
		return fmt.Sprintf("%dB", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatTotal renders a running byte total in SI units ("1.2 MB") for logs.
func FormatTotal(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%dB", bytes)
	}
	return humanize.Bytes(uint64(bytes))
}
