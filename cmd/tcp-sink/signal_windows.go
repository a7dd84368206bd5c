//go:build windows

package main

import (
	"os"
	"syscall"
)

// Windows has no SIGHUP. Reload is available through
// reload { watch_config = true } instead.
var (
	reloadSignals   []os.Signal
	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
)
