package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var _ Watcher = (*FileStore)(nil)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	keyring.MockInit()

	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	return map[string]Store{
		"keyring": NewKeyringStore(),
		"file":    file,
		"memory":  NewMemoryStore(),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := store.Load()
			assert.False(t, ok, "fresh store should be empty")

			require.NoError(t, store.Save("eyJ.first"))
			got, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, "eyJ.first", got)

			require.NoError(t, store.Save("eyJ.second"))
			got, ok = store.Load()
			require.True(t, ok)
			assert.Equal(t, "eyJ.second", got, "last write wins")

			require.NoError(t, store.Clear())
			got, ok = store.Load()
			assert.False(t, ok)
			assert.Empty(t, got)

			assert.NoError(t, store.Clear(), "clearing an empty store is not an error")
		})
	}
}

func TestStore_RejectsEmptyToken(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save("")

			var storageErr *StorageError
			require.True(t, errors.As(err, &storageErr))
			assert.Equal(t, "save", storageErr.Op)
			assert.ErrorIs(t, err, ErrEmptyToken)
		})
	}
}

func TestKeyringStore_Failure(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	defer keyring.MockInit()

	store := NewKeyringStore()

	err := store.Save("eyJ.token")
	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "keyring", storageErr.Backend)

	_, ok := store.Load()
	assert.False(t, ok)

	assert.Error(t, store.Clear())
}

func TestKeyringStore_Account(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, NewKeyringStore().Save("default-account"))
	other := NewKeyringStore(WithKeyringAccount("staging"))
	_, ok := other.Load()
	assert.False(t, ok)

	stored, err := keyring.Get(ServiceName, AccountName)
	require.NoError(t, err)
	assert.Equal(t, "default-account", stored)
}

func TestFileStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	dir := filepath.Join(t.TempDir(), "everp")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("eyJ.token"))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))
	_, ok := store.Load()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"access_token":""}`), 0600))
	_, ok = store.Load()
	assert.False(t, ok)
}

func TestFileStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	require.NoError(t, store.Watch(ctx, func() { changes.Add(1) }))

	other, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, other.Save("eyJ.from-another-process"))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := changes.Load()
	require.NoError(t, other.Clear())
	assert.Eventually(t, func() bool { return changes.Load() > before }, 2*time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	stopped := changes.Load()
	require.NoError(t, other.Save("eyJ.after-cancel"))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, stopped, changes.Load(), "no notifications after ctx is done")
}

func TestFileStore_WatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	require.NoError(t, store.Watch(ctx, func() { changes.Add(1) }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, changes.Load())
}

func TestParseBackend(t *testing.T) {
	tests := map[string]Backend{
		"":        BackendKeyring,
		"keyring": BackendKeyring,
		" FILE ":  BackendFile,
		"memory":  BackendMemory,
	}
	for in, want := range tests {
		got, err := ParseBackend(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseBackend("vault")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	keyring.MockInit()

	for _, backend := range []Backend{BackendKeyring, BackendFile, BackendMemory} {
		store, err := Open(backend, Options{Dir: t.TempDir()})
		require.NoError(t, err)
		require.NoError(t, store.Save("tok"))
		got, ok := store.Load()
		assert.True(t, ok)
		assert.Equal(t, "tok", got)
	}

	_, err := Open("vault", Options{})
	assert.Error(t, err)
}
