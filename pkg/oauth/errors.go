package oauth

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// RandomGenerationError reports that the secure random source could not supply bytes.
// The attempt that needed them is lost, but retrying is safe.
type RandomGenerationError struct {
	Requested int
	Err       error
}

func (e *RandomGenerationError) Error() string {
	return fmt.Sprintf("secure random source failed to produce %d bytes: %v", e.Requested, e.Err)
}

func (e *RandomGenerationError) Unwrap() error {
	return e.Err
}

// ValidationError is a precondition violation, e.g. a state shorter than 32 bytes.
type ValidationError struct {
	Field   string
	Value   int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Message)
}

// HTTPError is returned when an endpoint answers with a non-2xx status.
// Body holds the raw response body; it is kept for the caller and never logged.
type HTTPError struct {
	// Endpoint names the call that failed ("token", "userinfo", "logout", ...).
	Endpoint   string
	StatusCode int
	Body       string
}

// NewHTTPError builds an HTTPError from a response status and its already-read body.
func NewHTTPError(endpoint string, statusCode int, body []byte) *HTTPError {
	return &HTTPError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       string(body),
	}
}

func (e *HTTPError) Error() string {
	if code := e.OAuthErrorCode(); code != "" {
		return fmt.Sprintf("%s request failed with status %d: %s", e.Endpoint, e.StatusCode, code)
	}
	return fmt.Sprintf("%s request failed with status %d", e.Endpoint, e.StatusCode)
}

// OAuthErrorCode returns the RFC 6749 "error" member of a JSON error body, if any.
func (e *HTTPError) OAuthErrorCode() string {
	if !gjson.Valid(e.Body) {
		return ""
	}
	return gjson.Get(e.Body, "error").String()
}

// OAuthErrorDescription returns the "error_description" member of a JSON error body, if any.
func (e *HTTPError) OAuthErrorDescription() string {
	if !gjson.Valid(e.Body) {
		return ""
	}
	return gjson.Get(e.Body, "error_description").String()
}

// IsUnauthorized reports whether the response was a 401.
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// DecodeError is returned when a 2xx body does not match the expected schema.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
