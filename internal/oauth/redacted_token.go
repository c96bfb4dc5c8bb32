package oauth

import (
	"log/slog"

	pkgoauth "everp/pkg/oauth"
)

// RedactedToken wraps an access token so it cannot leak through fmt, slog or
// encoding/json.
//
// Usage:
//
//	token := oauth.NewRedactedToken("eyJhbGciOi...")
//	fmt.Println(token)           // prints: [REDACTED]
//	req.Header.Set("Authorization", "Bearer "+token.Value())
type RedactedToken struct {
	value string
}

// NewRedactedToken creates a new RedactedToken wrapping the given value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the actual token value.
// Use it only to authenticate a request. Never log the result.
func (t RedactedToken) Value() string {
	return t.value
}

// String implements fmt.Stringer.
func (t RedactedToken) String() string {
	return pkgoauth.Redacted
}

// GoString implements fmt.GoStringer for %#v formatting.
func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{" + pkgoauth.Redacted + "}"
}

// LogValue implements slog.LogValuer.
func (t RedactedToken) LogValue() slog.Value {
	return slog.StringValue(pkgoauth.Redacted)
}

// IsEmpty returns true if the token value is empty.
func (t RedactedToken) IsEmpty() bool {
	return t.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte(pkgoauth.Redacted), nil
}

// MarshalJSON implements json.Marshaler.
func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"` + pkgoauth.Redacted + `"`), nil
}
