package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDirName is the directory below the XDG state home.
	DefaultDirName = "everp"

	tokenFileName = "access_token.json"

	// DefaultDebounceInterval coalesces the burst of events an atomic
	// replace produces into one notification.
	DefaultDebounceInterval = 100 * time.Millisecond
)

// storedToken is the on-disk format.
type storedToken struct {
	Service     string    `json:"service"`
	Account     string    `json:"account"`
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
//
// SECURITY:
//   - the directory is created with 0700 permissions
//   - the file is written with 0600 permissions
//   - writes go to a temporary file that is renamed over the old one
type FileStore struct {
	mu       sync.Mutex
	dir      string
	path     string
	logger   *slog.Logger
	debounce time.Duration
	now      func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// WithDebounce sets how long Watch waits for events to settle.
func WithDebounce(d time.Duration) FileOption {
	return func(s *FileStore) {
		s.debounce = d
	}
}

// NewFileStore creates a file store in dir. An empty dir selects
// $XDG_STATE_HOME/everp.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(xdg.StateHome, DefaultDirName)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &StorageError{Backend: string(BackendFile), Op: "open", Err: err}
	}

	s := &FileStore{
		dir:      abs,
		path:     filepath.Join(abs, tokenFileName),
		logger:   slog.Default(),
		debounce: DefaultDebounceInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save atomically replaces the token file.
func (s *FileStore) Save(token string) error {
	if token == "" {
		return &StorageError{Backend: string(BackendFile), Op: "save", Err: ErrEmptyToken}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(storedToken{
		Service:     ServiceName,
		Account:     AccountName,
		AccessToken: token,
		SavedAt:     s.now().UTC(),
	})
	if err != nil {
		return &StorageError{Backend: string(BackendFile), Op: "save", Err: err}
	}

	if err := s.writeAtomic(data); err != nil {
		s.logger.Warn("SECURITY_AUDIT: token storage failed",
			"event", "token_store_failed",
			"backend", BackendFile,
			"path", s.path,
			"error", err.Error())
		return &StorageError{Backend: string(BackendFile), Op: "save", Err: err}
	}

	s.logger.Debug("SECURITY_AUDIT: token stored", "event", "token_stored", "backend", BackendFile, "path", s.path)
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".access_token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict temporary file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	return os.Rename(tmpName, s.path)
}

// Load reads the token file. A missing, unreadable or malformed file reports false.
func (s *FileStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Token file read failed", "path", s.path, "error", err)
		}
		return "", false
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("Token file is malformed", "path", s.path, "error", err)
		return "", false
	}
	if stored.AccessToken == "" {
		return "", false
	}
	return stored.AccessToken, true
}

// Clear deletes the token file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Backend: string(BackendFile), Op: "clear", Err: err}
	}

	s.logger.Debug("SECURITY_AUDIT: token cleared", "event", "token_cleared", "backend", BackendFile, "path", s.path)
	return nil
}

// Watch reports changes of the token file until ctx is done. The directory is
// watched rather than the file so replacements and deletions are seen.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return &StorageError{Backend: string(BackendFile), Op: "watch", Err: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &StorageError{Backend: string(BackendFile), Op: "watch", Err: err}
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return &StorageError{Backend: string(BackendFile), Op: "watch", Err: err}
	}

	// Capture channels before starting the goroutine.
	eventsCh := watcher.Events
	errorsCh := watcher.Errors

	go s.processEvents(ctx, watcher, eventsCh, errorsCh, onChange)

	s.logger.Debug("Watching token file", "path", s.path)
	return nil
}

func (s *FileStore) processEvents(ctx context.Context, watcher *fsnotify.Watcher, eventsCh <-chan fsnotify.Event, errorsCh <-chan error, onChange func()) {
	defer watcher.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != tokenFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, func() {
				if ctx.Err() == nil {
					onChange()
				}
			})

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			s.logger.Warn("Token file watcher error", "error", err)
		}
	}
}
