package upstream

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures where the upstream could not give a usable answer.
var ErrTransport = errors.New("upstream unavailable")

// TransportError describes a network failure, a 5xx, or an unreadable body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ValidationError carries field errors the upstream attached to a 400.
type ValidationError struct {
	Op          string
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: upstream rejected input (%d field errors)", e.Op, len(e.FieldErrors))
}

// NotFoundError is returned for 404 answers.
type NotFoundError struct {
	Op string
}

func (e *NotFoundError) Error() string { return e.Op + ": not found" }

// ErrUnauthorized is returned when the upstream rejects the forwarded session.
var ErrUnauthorized = errors.New("upstream rejected the session")
