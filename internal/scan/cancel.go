package scan

import "sync/atomic"

// CancelToken is the cooperative cancellation flag shared between a scan and
// its controller. Setting it is idempotent; it never interrupts an in-flight
// single-file operation, it only prevents new work from starting.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cancellation.
func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (t *CancelToken) Cancelled() bool {
	return t.flag.Load()
}
