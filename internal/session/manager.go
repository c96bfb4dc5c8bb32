// Package session owns the login state of the everp CLI.
//
// A Manager is the only writer of session state. It is constructed once per
// process and handed to every component that needs a token or reports a 401.
// Work that outlives a call, such as fetching the user's identity, runs in
// the background and is applied only if no login, logout or invalidation
// happened in the meantime.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/tokenstore"
)

const (
	// DefaultLogoutTimeout bounds the best-effort remote logout.
	DefaultLogoutTimeout = 10 * time.Second

	// DefaultIdentityTimeout bounds one identity fetch.
	DefaultIdentityTimeout = 30 * time.Second
)

var (
	// ErrNotAuthenticated is returned by AccessToken outside an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrStaleResult is returned when a background result was discarded because
	// the session changed while it was computed.
	ErrStaleResult = errors.New("session changed while the request was in flight")
)

// IdentityFetcher resolves the user behind an access token.
type IdentityFetcher interface {
	FetchUserInfo(ctx context.Context, token oauth.RedactedToken) (*gateway.UserInfo, error)
}

// RemoteLogout ends the server-side session of a token.
type RemoteLogout interface {
	Logout(ctx context.Context, token oauth.RedactedToken) error
}

// Manager is the session state container.
type Manager struct {
	mu         sync.Mutex
	state      State
	token      oauth.RedactedToken
	user       *gateway.UserInfo
	generation uint64

	store    tokenstore.Store
	identity IdentityFetcher
	remote   RemoteLogout
	logger   *slog.Logger

	logoutTimeout   time.Duration
	identityTimeout time.Duration

	// deduplicates identity fetches of the same generation
	identityGroup singleflight.Group

	subscribers map[int]chan Snapshot
	nextSubID   int

	tasks sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRemoteLogout sets the client used to end the server-side session on Logout.
func WithRemoteLogout(remote RemoteLogout) Option {
	return func(m *Manager) {
		m.remote = remote
	}
}

// WithLogoutTimeout bounds the remote logout request.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.logoutTimeout = d
	}
}

// WithIdentityTimeout bounds each identity fetch.
func WithIdentityTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.identityTimeout = d
	}
}

// NewManager creates an unauthenticated session manager.
func NewManager(store tokenstore.Store, identity IdentityFetcher, opts ...Option) *Manager {
	m := &Manager{
		state:           Unauthenticated,
		store:           store,
		identity:        identity,
		logger:          slog.Default(),
		logoutTimeout:   DefaultLogoutTimeout,
		identityTimeout: DefaultIdentityTimeout,
		subscribers:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckOnLaunch derives the initial state from the token store.
//
// Without a token the session is Unauthenticated. With a token it is
// Authenticated immediately and the identity is fetched in the background:
// a 401 clears the store and returns to Unauthenticated, any other failure
// leaves the session Authenticated without identity.
func (m *Manager) CheckOnLaunch(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.store.Load()
	if !ok {
		m.setLocked(Unauthenticated, oauth.RedactedToken{}, nil)
		m.logger.Debug("No stored token", "session_state", m.state)
		return m.state
	}

	gen := m.setLocked(Authenticated, oauth.NewRedactedToken(token), nil)
	m.logger.Debug("Stored token found", "session_state", m.state, "generation", gen)
	m.spawnIdentityLocked(ctx, gen)
	return m.state
}

// RequestLogin moves an unauthenticated session to AwaitingLogin. It returns
// false if the session is already authenticated.
func (m *Manager) RequestLogin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Authenticated:
		return false
	case AwaitingLogin:
		return true
	}
	m.state = AwaitingLogin
	m.notifyLocked()
	return true
}

// CancelLogin returns an AwaitingLogin session to Unauthenticated.
func (m *Manager) CancelLogin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == AwaitingLogin {
		m.state = Unauthenticated
		m.notifyLocked()
	}
}

// HandleAuthSuccess persists a freshly obtained access token and
// authenticates the session. If the token cannot be stored the session is
// Unauthenticated and the *tokenstore.StorageError is returned. A token
// delivered to a cancelled ctx is discarded and ctx.Err() returned.
func (m *Manager) HandleAuthSuccess(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		m.logger.Debug("Discarding token of a cancelled login", "error", err)
		return err
	}

	if err := m.store.Save(accessToken); err != nil {
		m.setLocked(Unauthenticated, oauth.RedactedToken{}, nil)
		m.logger.Warn("Could not persist access token", "error", err)
		return err
	}

	gen := m.setLocked(Authenticated, oauth.NewRedactedToken(accessToken), nil)
	m.logger.Debug("Session authenticated", "generation", gen)
	m.spawnIdentityLocked(ctx, gen)
	return nil
}

// Logout ends the session. The remote logout runs in the background on a
// context detached from ctx; its outcome is logged and otherwise ignored.
// Logout itself never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	if token.IsEmpty() {
		if stored, ok := m.store.Load(); ok {
			token = oauth.NewRedactedToken(stored)
		}
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Could not clear stored token", "error", err)
	}
	gen := m.setLocked(Unauthenticated, oauth.RedactedToken{}, nil)
	m.logger.Debug("Logged out", "generation", gen)

	if m.remote != nil && !token.IsEmpty() {
		m.tasks.Add(1)
		go m.remoteLogout(context.WithoutCancel(ctx), token)
	}
	m.mu.Unlock()
}

func (m *Manager) remoteLogout(ctx context.Context, token oauth.RedactedToken) {
	defer m.tasks.Done()

	ctx, cancel := context.WithTimeout(ctx, m.logoutTimeout)
	defer cancel()

	if err := m.remote.Logout(ctx, token); err != nil {
		m.logger.Debug("Remote logout failed", "error", err)
		return
	}
	m.logger.Debug("Remote logout completed")
}

// ReportUnauthorized invalidates the session after an API call made with
// token was rejected with 401. The stored token is removed. A rejection of
// a token the session no longer holds is ignored and false is returned.
func (m *Manager) ReportUnauthorized(token oauth.RedactedToken, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Authenticated || token.IsEmpty() || token.Value() != m.token.Value() {
		m.logger.Debug("Ignoring 401 for a token the session no longer holds", "reason", reason)
		return false
	}
	m.invalidateLocked(reason)
	return true
}

func (m *Manager) invalidateLocked(reason string) {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Could not clear stored token", "error", err)
	}
	gen := m.setLocked(Unauthenticated, oauth.RedactedToken{}, nil)
	m.logger.Info("Session invalidated", "reason", reason, "generation", gen)
}

// AccessToken returns the token of an authenticated session.
func (m *Manager) AccessToken() (oauth.RedactedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Authenticated || m.token.IsEmpty() {
		return oauth.RedactedToken{}, ErrNotAuthenticated
	}
	return m.token, nil
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// RefreshIdentity fetches the identity of the current session now. A result
// that arrives after the session changed is discarded with ErrStaleResult.
// A 401 invalidates the session.
func (m *Manager) RefreshIdentity(ctx context.Context) (*gateway.UserInfo, error) {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	gen := m.generation
	m.mu.Unlock()

	return m.resolveIdentity(ctx, gen)
}

func (m *Manager) spawnIdentityLocked(ctx context.Context, gen uint64) {
	if m.identity == nil {
		return
	}
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		_, _ = m.resolveIdentity(ctx, gen)
	}()
}

func (m *Manager) resolveIdentity(ctx context.Context, gen uint64) (*gateway.UserInfo, error) {
	if m.identity == nil {
		return nil, errors.New("no identity fetcher configured")
	}

	// Every caller of one generation shares a single fetch and a single
	// application of its result.
	v, err, _ := m.identityGroup.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		m.mu.Lock()
		if m.generation != gen {
			m.mu.Unlock()
			return nil, ErrStaleResult
		}
		token := m.token
		m.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(ctx, m.identityTimeout)
		defer cancel()
		user, err := m.identity.FetchUserInfo(fetchCtx, token)

		if ctx.Err() != nil {
			m.logger.Debug("Discarding identity result of cancelled request", "generation", gen)
			return nil, ctx.Err()
		}
		return m.applyIdentity(gen, user, err)
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return v.(*gateway.UserInfo), nil
}

func (m *Manager) applyIdentity(gen uint64, user *gateway.UserInfo, err error) (*gateway.UserInfo, error) {
	if err == nil && user == nil {
		err = errors.New("identity response carried no user")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state != Authenticated {
		m.logger.Debug("Discarding stale identity result", "generation", gen, "current", m.generation)
		return nil, ErrStaleResult
	}

	if err != nil {
		if gateway.IsUnauthorized(err) {
			m.invalidateLocked("identity fetch returned 401")
			return nil, err
		}
		m.logger.Warn("Could not fetch user identity", "error", err)
		return nil, err
	}

	m.user = user
	m.logger.Debug("Identity attached", "user_id", user.UserID, "generation", gen)
	m.notifyLocked()
	return user, nil
}

// WatchStore keeps the session in sync with changes other processes make to
// the token store, such as a logout in a second terminal.
func (m *Manager) WatchStore(ctx context.Context, watcher tokenstore.Watcher) error {
	return watcher.Watch(ctx, func() { m.reconcile(ctx) })
}

func (m *Manager) reconcile(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.store.Load()
	switch {
	case !ok && m.state == Authenticated:
		gen := m.setLocked(Unauthenticated, oauth.RedactedToken{}, nil)
		m.logger.Info("Stored token removed externally", "generation", gen)

	case ok && (m.state != Authenticated || stored != m.token.Value()):
		gen := m.setLocked(Authenticated, oauth.NewRedactedToken(stored), nil)
		m.logger.Info("Stored token changed externally", "generation", gen)
		m.spawnIdentityLocked(ctx, gen)
	}
}

// Subscribe returns a channel that receives a Snapshot after every change.
// Sends never block: a subscriber that falls behind misses intermediate
// snapshots. Call the returned function to unsubscribe.
func (m *Manager) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Wait blocks until background work (identity fetches, remote logout) has
// finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setLocked replaces the session and starts a new generation.
func (m *Manager) setLocked(state State, token oauth.RedactedToken, user *gateway.UserInfo) uint64 {
	m.state = state
	m.token = token
	m.user = user
	m.generation++
	m.notifyLocked()
	return m.generation
}

func (m *Manager) snapshotLocked() Snapshot {
	var user *gateway.UserInfo
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return Snapshot{State: m.state, User: user, Generation: m.generation}
}

func (m *Manager) notifyLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
