package apiclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call
type Kind int

const (
	// KindTransport means no response was received
	KindTransport Kind = iota + 1
	// KindServer means a response arrived with a non-2xx status or success=false
	KindServer
	// KindUnauthorized means the API answered 401
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against *Error
var (
	ErrTransport    = errors.New("api transport failure")
	ErrServer       = errors.New("api reported failure")
	ErrUnauthorized = errors.New("api authentication failure")
)

// Error is the typed failure returned by every Client call.
// It carries no UI decision; callers choose what the user sees.
type Error struct {
	Kind   Kind
	Status int
	// ServerMessage is the envelope message, empty when the server sent none
	ServerMessage string
	// Message describes the failure at the transport level
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api %s error", e.Kind)
}

// Unwrap returns the underlying transport error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrServer:
		return e.Kind == KindServer
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	}
	return false
}

// AsError extracts an *Error from err
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
