package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/skyblock-client/pkg/ratelimit"
)

// ErrorClass represents the kind of failure behind an Error.
type ErrorClass string

const (
	// ErrorClassTransport represents connection, I/O and cancellation failures.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassDecode represents bodies that are not valid JSON or do not
	// match the expected shape.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassAPI represents failures reported by the API itself.
	ErrorClassAPI ErrorClass = "api"

	// ErrorClassRateLimit represents failures to obtain a credential.
	ErrorClassRateLimit ErrorClass = "rate_limit"
)

// Common errors returned by the client.
var (
	// ErrRateLimitExhausted is returned (wrapped) when no credential became
	// admissible within the configured maximum wait.
	ErrRateLimitExhausted = ratelimit.ErrExhausted

	// ErrAuctionNotFound is returned when an auction lookup matches nothing.
	ErrAuctionNotFound = errors.New("auction not found")
)

// Error is the error type returned by every request the client makes.
type Error struct {
	Class      ErrorClass
	Endpoint   string
	StatusCode int
	// Message is the server's cause verbatim for API errors.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Class == ErrorClassAPI {
		return "api call failed: " + e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("skyblock %s error (%s): %s: %v", e.Class, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("skyblock %s error (%s): %s", e.Class, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err carries a failure reported by the API and
// returns it.
func IsAPIError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Class == ErrorClassAPI {
		return e, true
	}
	return nil, false
}

// ClassOf returns the class of the first *Error in err's chain, or "" if
// there is none.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}
