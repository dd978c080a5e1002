package editstore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by operations that reach the gateway after Close.
var ErrClosed = errors.New("edit store is closed")

// PersistenceError wraps a gateway failure for one operation on one item.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SaveError aggregates the per-item failures of one save. When it is returned
// nothing from the batch was committed.
type SaveError struct {
	Attempted int
	Failures  []*PersistenceError
}

func (e *SaveError) Error() string {
	msg := fmt.Sprintf("save failed for %d of %d items (%s)", len(e.Failures), e.Attempted, strings.Join(e.FailedIDs(), ", "))
	if len(e.Failures) > 0 {
		msg += ": " + e.Failures[0].Err.Error()
	}
	return msg
}

func (e *SaveError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

// FailedIDs lists the items whose update was rejected, in batch order.
func (e *SaveError) FailedIDs() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.ID)
	}
	return out
}
