package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrRoomInactive is returned when a reservation targets a room withdrawn from booking.
	ErrRoomInactive = errors.New("application: room is not active")
	// ErrInvalidCredentials is returned when authentication input does not match a user.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a disabled account attempts to authenticate.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a requested window collides with existing
// reservations on the room. Touching boundaries count as collisions.
type ConflictError struct {
	RoomID        string
	Start         time.Time
	End           time.Time
	ConflictsWith []string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	if len(c.ConflictsWith) == 0 {
		return fmt.Sprintf("room %s is not available", c.RoomID)
	}
	return fmt.Sprintf("room %s is not available: conflicts with %s", c.RoomID, strings.Join(c.ConflictsWith, ", "))
}

// FetchError wraps a failure to read reservation state. Availability is never
// decided on partial data, so callers always see the failure.
type FetchError struct {
	RoomID string
	Err    error
}

// Error implements the error interface.
func (f *FetchError) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("failed to fetch reservations for room %s: %v", f.RoomID, f.Err)
}

// Unwrap exposes the underlying cause.
func (f *FetchError) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// CommitError wraps a failure to persist a reservation after its window
// already passed the availability check.
type CommitError struct {
	RoomID string
	Err    error
}

// Error implements the error interface.
func (c *CommitError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("failed to commit reservation for room %s: %v", c.RoomID, c.Err)
}

// Unwrap exposes the underlying cause.
func (c *CommitError) Unwrap() error {
	if c == nil {
		return nil
	}
	return c.Err
}
