// Package errors defines the failure taxonomy of the reservation engine.
// Every error other than ErrTransient is terminal for the request that
// produced it; ErrTransient may be retried by the caller.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest means the request is missing or malformed fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownSlot means the requested time matches no administered slot.
	ErrUnknownSlot = errors.New("unknown time slot")
	// ErrDuplicateSlot means a slot already exists for that time of day.
	ErrDuplicateSlot = errors.New("time slot already exists")
	// ErrNotFound means the reservation, slot or place does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor lacks rights over the target.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidStatus means the requested status transition is not allowed.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrTransient wraps storage or timeout failures that are safe to retry.
	ErrTransient = errors.New("transient storage failure")
)

// CapacityExceededError is returned when a party does not fit in the slot's
// remaining capacity. Available carries the headroom left so the caller can
// offer a smaller party size or another slot.
type CapacityExceededError struct {
	Available int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("slot capacity exceeded, %d seats available", e.Available)
}

// AsCapacityExceeded unwraps err into a CapacityExceededError if it is one.
func AsCapacityExceeded(err error) (*CapacityExceededError, bool) {
	var ce *CapacityExceededError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
