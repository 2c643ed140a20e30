package matcher

import "sync/atomic"

// CancelToken is the cooperative cancellation flag of a single run.
// A fresh token is created when a run starts; it is never reset by workers.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel sets the flag. Safe to call any number of times from any goroutine.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}
