package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/collide/systems"
)

// Lifecycle errors.
var (
	ErrNotInitialized = errors.New("sim: not initialized, call Reset first")
	ErrDisposed       = errors.New("sim: simulation disposed")
)

// ResourceAllocationError reports a reset or resize that did not fit the
// device limits. Nothing from the failed call stays allocated.
type ResourceAllocationError struct {
	Resource string
	Bytes    int64
	Limit    int64
	Err      error
}

func (e *ResourceAllocationError) Error() string {
	return fmt.Sprintf("sim: resource allocation failed: %v", e.Err)
}

func (e *ResourceAllocationError) Unwrap() error {
	return e.Err
}

func allocationError(err error) error {
	var ae *systems.AllocationError
	if errors.As(err, &ae) {
		return &ResourceAllocationError{Resource: ae.Resource, Bytes: ae.Bytes, Limit: ae.Limit, Err: err}
	}
	return &ResourceAllocationError{Err: err}
}
