// Package tokenstore persists the single access token of the everp CLI.
//
// Three backends implement Store:
//
//   - KeyringStore: the OS credential store (macOS Keychain, Secret Service, Windows Credential Manager)
//   - FileStore: a 0600 JSON file under the XDG state home, with change watching
//   - MemoryStore: process-local, for tests and --token-store=memory
//
// SECURITY: Token values are never logged. Only the backend, operation and
// outcome are recorded.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// ServiceName identifies the everp credentials in the OS credential store.
	ServiceName = "everp.auth"

	// AccountName is the account under which the access token is stored.
	AccountName = "access_token"
)

// ErrEmptyToken is wrapped in a StorageError when Save is called with "".
var ErrEmptyToken = errors.New("refusing to store an empty token")

// Store persists exactly one access token. Saving replaces the previous
// token; last write wins.
type Store interface {
	// Save replaces the stored token.
	Save(token string) error

	// Load returns the stored token. An absent or unreadable token reports false.
	Load() (string, bool)

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// Watcher is implemented by stores that can report changes made by other
// processes, e.g. a second everp invocation logging out.
type Watcher interface {
	// Watch calls onChange after the stored token may have changed, until ctx
	// is done. It returns once watching is set up.
	Watch(ctx context.Context, onChange func()) error
}

// StorageError reports a failed store operation.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("token store (%s): %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Backend names a Store implementation.
type Backend string

const (
	BackendKeyring Backend = "keyring"
	BackendFile    Backend = "file"
	BackendMemory  Backend = "memory"
)

// ParseBackend parses a backend name as used in configuration and flags.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case BackendKeyring, "":
		return BackendKeyring, nil
	case BackendFile:
		return BackendFile, nil
	case BackendMemory:
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unknown token store %q (expected keyring, file or memory)", name)
	}
}

// Options configures Open.
type Options struct {
	// Dir is the FileStore directory. Empty means the XDG state home.
	Dir string

	Logger *slog.Logger
}

// Open constructs the store for backend.
func Open(backend Backend, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case BackendKeyring:
		return NewKeyringStore(WithKeyringLogger(logger)), nil
	case BackendFile:
		return NewFileStore(opts.Dir, WithFileLogger(logger))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", backend)
	}
}
