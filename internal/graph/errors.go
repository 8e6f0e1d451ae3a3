package graph

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks failures to reach or execute against the
// backing store. Never retried here; health_check converts it into a
// structured unhealthy result instead of propagating it.
var ErrStoreUnavailable = errors.New("graph store unavailable")

// NotFoundError reports a referenced entity that does not exist where one
// is required (relation endpoints, observation targets). Inside batches it
// is reported per item, never as a whole-batch abort.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found", e.Entity)
}

// storeErr wraps a driver error without leaking query text into the
// caller-visible message.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s failed: %v", ErrStoreUnavailable, op, err)
}
