package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"imagematcher/logging"
)

// SetupHandler calls onInterrupt on the first SIGINT or SIGTERM so a running
// search can stop cleanly. A second signal exits immediately. The returned
// function stops signal delivery.
func SetupHandler(onInterrupt func()) (stop func()) {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})

	// Register for specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %s, cancelling the current search", sig)
			if onInterrupt != nil {
				onInterrupt()
			}
		case <-done:
			return
		}

		select {
		case <-sigChan:
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	return max(runtime.NumCPU(), 1)
}
