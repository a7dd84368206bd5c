package main

import (
	"os"
	"os/signal"
	"slices"
)

// setupSignalHandler subscribes to the reload and shutdown signals of the
// current platform. The service only forwards them; the loop never sees an
// os.Signal.
func setupSignalHandler() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, append(slices.Clone(shutdownSignals), reloadSignals...)...)
	return sigChan
}

func isReloadSignal(sig os.Signal) bool {
	return slices.Contains(reloadSignals, sig)
}

func isShutdownSignal(sig os.Signal) bool {
	return slices.Contains(shutdownSignals, sig)
}
