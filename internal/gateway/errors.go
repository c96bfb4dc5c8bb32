package gateway

import (
	"errors"

	pkgoauth "everp/pkg/oauth"
)

// ErrUnauthorized matches every UnauthorizedError via errors.Is.
var ErrUnauthorized = errors.New("gateway rejected the access token")

// UnauthorizedError is returned when the gateway answers 401. The session
// must be invalidated when it sees one.
type UnauthorizedError struct {
	Endpoint string

	// Challenge is the parsed WWW-Authenticate header, if the gateway sent one.
	Challenge *pkgoauth.AuthChallenge
}

func (e *UnauthorizedError) Error() string {
	if e.Challenge != nil && e.Challenge.Error != "" {
		return e.Endpoint + ": " + ErrUnauthorized.Error() + " (" + e.Challenge.Error + ")"
	}
	return e.Endpoint + ": " + ErrUnauthorized.Error()
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// IsUnauthorized reports whether err means the access token is no longer
// accepted, either from the gateway or from any other endpoint returning 401.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var httpErr *pkgoauth.HTTPError
	return errors.As(err, &httpErr) && httpErr.IsUnauthorized()
}
