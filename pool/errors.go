package pool

import (
	"errors"
	"fmt"
)

// ErrBatchAborted matches any *BatchAbortedError.
var ErrBatchAborted = errors.New("batch aborted")

// BatchAbortedError reports the request whose failure aborted a batch.
type BatchAbortedError struct {
	// Index is the position of the failed request in the batch.
	Index    int
	Provider string
	// Err is the classified provider error.
	Err error
}

func (e *BatchAbortedError) Error() string {
	return fmt.Sprintf("batch aborted: request %d (%s): %v", e.Index, e.Provider, e.Err)
}

// Unwrap returns the provider error.
func (e *BatchAbortedError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBatchAborted.
func (e *BatchAbortedError) Is(target error) bool { return target == ErrBatchAborted }
