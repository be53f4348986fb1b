package scan

import (
	"errors"
	"fmt"
)

// ErrCancelled is reported when cooperative cancellation was observed.
// Partial results already committed to the store are not rolled back.
var ErrCancelled = errors.New("scan cancelled")

// CancelledError carries how many items were processed before cancellation
// was observed. errors.Is(err, ErrCancelled) matches it.
type CancelledError struct {
	Processed int
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("scan cancelled after %d items", e.Processed)
}

func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

// InvalidPathError aborts a scan before any work begins: a root path does
// not exist or is not a directory.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %s: %s", e.Path, e.Reason)
}
