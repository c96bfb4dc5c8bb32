package tokenstore

import (
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the token in the OS credential store under
// ServiceName/AccountName.
//
// The item is readable whenever the user session is unlocked; go-keyring
// exposes no per-item accessibility policy beyond what the platform applies.
type KeyringStore struct {
	service string
	account string
	logger  *slog.Logger
}

// KeyringOption configures a KeyringStore.
type KeyringOption func(*KeyringStore)

// WithKeyringLogger sets the logger.
func WithKeyringLogger(logger *slog.Logger) KeyringOption {
	return func(s *KeyringStore) {
		s.logger = logger
	}
}

// WithKeyringAccount overrides the account name, e.g. to isolate profiles.
func WithKeyringAccount(account string) KeyringOption {
	return func(s *KeyringStore) {
		s.account = account
	}
}

// NewKeyringStore creates a store backed by the OS credential store.
func NewKeyringStore(opts ...KeyringOption) *KeyringStore {
	s := &KeyringStore{
		service: ServiceName,
		account: AccountName,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save deletes any existing item and writes token.
func (s *KeyringStore) Save(token string) error {
	if token == "" {
		return &StorageError{Backend: string(BackendKeyring), Op: "save", Err: ErrEmptyToken}
	}

	if err := keyring.Delete(s.service, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Debug("Keyring delete before save failed", "error", err)
	}

	if err := keyring.Set(s.service, s.account, token); err != nil {
		s.logger.Warn("SECURITY_AUDIT: token storage failed",
			"event", "token_store_failed",
			"backend", BackendKeyring,
			"error", err.Error())
		return &StorageError{Backend: string(BackendKeyring), Op: "save", Err: err}
	}

	s.logger.Debug("SECURITY_AUDIT: token stored", "event", "token_stored", "backend", BackendKeyring)
	return nil
}

// Load returns the stored token, or false if there is none or it cannot be read.
func (s *KeyringStore) Load() (string, bool) {
	token, err := keyring.Get(s.service, s.account)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			s.logger.Warn("Keyring read failed", "error", err)
		}
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// Clear removes the item. A missing item is not an error.
func (s *KeyringStore) Clear() error {
	err := keyring.Delete(s.service, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &StorageError{Backend: string(BackendKeyring), Op: "clear", Err: err}
	}

	s.logger.Debug("SECURITY_AUDIT: token cleared", "event", "token_cleared", "backend", BackendKeyring)
	return nil
}
