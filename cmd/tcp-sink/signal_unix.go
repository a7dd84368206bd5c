//go:build !windows

package main

import (
	"os"
	"syscall"
)

// SIGHUP raises the reload latch. SIGINT and SIGTERM stop the loop between
// iterations.
var (
	reloadSignals   = []os.Signal{syscall.SIGHUP}
	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
)
