package jobs

import (
	"errors"
	"fmt"
)

// DeliveryError is a gateway failure for one item. It is recorded and the
// tick continues.
type DeliveryError struct {
	ItemID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed for %s: %v", e.ItemID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// PersistenceError is a store read or write failure. A write failure after a
// successful send leaves the item delivered but unrecorded.
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigurationError describes a setting or record field that could not be
// interpreted. Callers fall back to defaults instead of aborting.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

var errMalformedClock = errors.New("expected HH:MM")
