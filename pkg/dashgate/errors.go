package dashgate

import (
	"errors"
	"fmt"

	"github.com/edhire/dashgate-go/internal/request"
)

var (
	// ErrInvalidBaseURL is returned by NewClient when the configured
	// backend base URL is empty or unparsable. Fatal: nothing is sent.
	ErrInvalidBaseURL = request.ErrInvalidBaseURL

	// ErrNotFound is returned when the backend reports 404 for a
	// resource.
	ErrNotFound = errors.New("resource not found")

	// ErrProtocolMismatch is returned when the backend answered 2xx with
	// a non-JSON body, which means a proxy or backend misconfiguration
	// rather than business data.
	ErrProtocolMismatch = errors.New("unexpected backend content type")
)

// BackendError is a well-formed backend failure, recoverable by the
// caller: render an error page from the status and message, or ignore it
// for a partial page. Authentication failures never surface as a
// BackendError; they become a Redirect.
type BackendError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}

// Unwrap returns the wrapped sentinel, if any.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target
func (e *BackendError) Is(target error) bool {
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	t, ok := target.(*BackendError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}
