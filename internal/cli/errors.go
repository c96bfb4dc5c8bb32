package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/session"
	pkgoauth "everp/pkg/oauth"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a refused or unreachable connection.
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates that an EVERP server could not be reached.
type ConnectionError struct {
	// Target names what was being contacted, e.g. "token" or "userinfo".
	Target string
	Type   ConnectionErrorType
	Reason error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf(`%s while contacting %s: %v

Check your network connection and the endpoints in:
  everp config show`, e.Type, e.Target, e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes err and returns a ConnectionError with the
// appropriate type. A nil err yields nil.
func ClassifyConnectionError(err error, target string) *ConnectionError {
	if err == nil {
		return nil
	}

	kind := ConnectionErrorUnknown
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		kind = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		kind = ConnectionErrorDNS
	case isTimeoutError(err):
		kind = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		kind = ConnectionErrorNetwork
	}
	return &ConnectionError{Target: target, Type: kind, Reason: err}
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	msg := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

func isNetworkError(msg string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
	} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates there is no usable session.
type AuthRequiredError struct {
	// Reason says why, e.g. "not logged in" or "token rejected by the gateway".
	Reason string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required: %s

To authenticate, run:
  everp auth login

To check current authentication status:
  everp auth status`, e.Reason)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the stored access token is past its expiry.
type AuthExpiredError struct {
	ExpiredAt time.Time
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Authentication expired at %s

To re-authenticate, run:
  everp auth login --force`, e.ExpiredAt.Local().Format(time.RFC1123))
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates a login attempt or token request was rejected.
type AuthFailedError struct {
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed: %v

To retry authentication, run:
  everp auth login`, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// Translate maps errors from the session, oauth and gateway layers onto the
// CLI error types. Errors it does not recognise are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var (
		required  *AuthRequiredError
		expired   *AuthExpiredError
		failed    *AuthFailedError
		conn      *ConnectionError
		callback  *oauth.CallbackValidationError
		authErr   *oauth.AuthorizationError
		httpErr   *pkgoauth.HTTPError
		networkEr *oauth.NetworkError
	)
	switch {
	case errors.As(err, &required), errors.As(err, &expired), errors.As(err, &failed), errors.As(err, &conn):
		return err
	case errors.Is(err, session.ErrNotAuthenticated):
		return &AuthRequiredError{Reason: "not logged in"}
	case gateway.IsUnauthorized(err):
		return &AuthRequiredError{Reason: "the access token was rejected by the gateway"}
	case errors.As(err, &callback), errors.As(err, &authErr), errors.As(err, &httpErr):
		return &AuthFailedError{Reason: err}
	case errors.As(err, &networkEr):
		return ClassifyConnectionError(networkEr.Err, networkEr.Op)
	}
	return err
}
