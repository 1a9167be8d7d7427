package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Gateway errors. Callers compare with errors.Is.
var (
	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("publications API network error")
	// ErrDecode means the response body did not match the expected shape.
	ErrDecode = errors.New("publications API returned a malformed response")
)

// APIError is a non-2xx response from the publications API. It unwraps to ErrNetwork.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("publications API error (%s %s, status %d): %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap lets errors.Is(err, ErrNetwork) match HTTP failures.
func (e *APIError) Unwrap() error { return ErrNetwork }

// IsNetwork reports whether err came from talking to the API, including malformed
// responses. Renderers show these as "could not load publications".
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrDecode)
}

// IsDecode reports whether err is a malformed response.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
