package session

import "everp/internal/gateway"

// State is the session state of the CLI.
type State int

const (
	// Unauthenticated means no usable token is known.
	Unauthenticated State = iota

	// AwaitingLogin means a login was requested and the authorization flow
	// is expected to run.
	AwaitingLogin

	// Authenticated means a token is stored. The identity may still be loading.
	Authenticated
)

// String returns the string representation of the session state.
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AwaitingLogin:
		return "awaiting_login"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the session at one point in time.
type Snapshot struct {
	State State

	// User is the identity of the token's owner, once fetched.
	User *gateway.UserInfo

	// Generation increases on every login, logout and invalidation.
	Generation uint64
}

// HasIdentity reports whether the identity of an authenticated session is known.
func (s Snapshot) HasIdentity() bool {
	return s.State == Authenticated && s.User != nil
}
