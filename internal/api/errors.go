package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the API answered 401. The gateway has already
	// reset the session and forced navigation; callers must not report it.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequestFailed matches every non-401 failure, transport included.
	ErrRequestFailed = errors.New("request failed")
	// ErrTransport matches failures where no HTTP response was received.
	ErrTransport = errors.New("transport failure")
)

// RequestError describes a failed call that was reported to the user once.
type RequestError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	Transport bool
	Err       error
}

func (e *RequestError) Error() string {
	if e.Transport {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrTransport:
		return e.Transport
	}
	return false
}
