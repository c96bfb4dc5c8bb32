package oauth

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an unusable authorization setting, such as a
// redirect URI without a scheme or a token endpoint that does not parse.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Reasons carried by CallbackValidationError.
const (
	ReasonStaleCallback = "no authorization attempt in flight"
	ReasonMissingState  = "redirect has no state parameter"
	ReasonStateMismatch = "state does not match the current attempt"
	ReasonMissingCode   = "redirect has no authorization code"
)

// CallbackValidationError is returned when a redirect addressed to this
// client cannot be accepted. The attempt it targeted, if any, has failed.
type CallbackValidationError struct {
	Reason string
}

func (e *CallbackValidationError) Error() string {
	return "invalid authorization callback: " + e.Reason
}

// AuthorizationError is the error the authorization server reported on the
// redirect, e.g. access_denied when the user cancels.
type AuthorizationError struct {
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Code, e.Description)
	}
	return "authorization failed: " + e.Code
}

// IsAccessDenied reports whether the user declined the authorization request.
func (e *AuthorizationError) IsAccessDenied() bool {
	return e.Code == "access_denied"
}

// NetworkError wraps a transport failure. errors.Is sees through it, so a
// cancelled request still matches context.Canceled.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsCallbackError reports whether err rejected an authorization redirect,
// either locally or by the authorization server.
func IsCallbackError(err error) bool {
	var callbackErr *CallbackValidationError
	var authErr *AuthorizationError
	return errors.As(err, &callbackErr) || errors.As(err, &authErr)
}
