package login

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everp/internal/browser"
	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/session"
	"everp/internal/tokenstore"
	pkgoauth "everp/pkg/oauth"
)

// fakeSurface replays navigations against the policy. "{state}" in a
// navigation is replaced with the state of the authorization URL.
type fakeSurface struct {
	navigations []string
	err         error
	loaded      string
}

func (s *fakeSurface) Load(_ context.Context, authURL string, policy browser.NavigationPolicy) error {
	s.loaded = authURL
	if s.err != nil {
		return s.err
	}
	parsed, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	state := parsed.Query().Get("state")

	for _, raw := range s.navigations {
		u, err := url.Parse(strings.ReplaceAll(raw, "{state}", state))
		if err != nil {
			return err
		}
		if policy(u) == browser.Cancel {
			return nil
		}
	}
	return browser.ErrClosed
}

type fakeExchanger struct {
	mu        sync.Mutex
	codes     []string
	verifiers []string
	token     *pkgoauth.TokenResponse
	err       error
	// during runs while the exchange is in flight.
	during    func()
}

func (e *fakeExchanger) ExchangeCode(_ context.Context, _ *oauth.AuthorizationConfig, code, verifier string) (*pkgoauth.TokenResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.codes = append(e.codes, code)
	e.verifiers = append(e.verifiers, verifier)
	if e.during != nil {
		e.during()
	}
	return e.token, e.err
}

type fakeIdentity struct {
	user *gateway.UserInfo
	err  error
}

func (f *fakeIdentity) FetchUserInfo(context.Context, oauth.RedactedToken) (*gateway.UserInfo, error) {
	return f.user, f.err
}

type fixture struct {
	runner    *Runner
	flow      *oauth.FlowController
	store     *tokenstore.MemoryStore
	session   *session.Manager
	surface   *fakeSurface
	exchanger *fakeExchanger
}

func newFixture(t *testing.T, identity *fakeIdentity) *fixture {
	t.Helper()
	cfg, err := oauth.NewAuthorizationConfig("https://auth.example.com/oauth2/authorize", "https://auth.example.com/oauth2/token",
		"everp-ios", "everp-ios://callback", []string{"erp.user.profile"})
	require.NoError(t, err)

	f := &fixture{
		flow:      oauth.NewFlowController(),
		store:     tokenstore.NewMemoryStore(),
		surface:   &fakeSurface{},
		exchanger: &fakeExchanger{token: &pkgoauth.TokenResponse{AccessToken: "at-1", TokenType: "Bearer"}},
	}
	f.session = session.NewManager(f.store, identity)
	f.runner = NewRunner(cfg, f.surface, f.exchanger, f.session, WithFlowController(f.flow))
	return f
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t, &fakeIdentity{user: &gateway.UserInfo{UserID: "u-1", UserName: "Kim"}})
	f.surface.navigations = []string{
		"https://auth.example.com/login",
		"everp-ios://callback?code=c-1&state={state}",
	}

	user, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.UserID)
	assert.True(t, strings.HasPrefix(f.surface.loaded, "https://auth.example.com/oauth2/authorize?"))

	assert.Equal(t, []string{"c-1"}, f.exchanger.codes)
	require.Len(t, f.exchanger.verifiers, 1)
	assert.Len(t, f.exchanger.verifiers[0], 86)

	stored, ok := f.store.Load()
	require.True(t, ok)
	assert.Equal(t, "at-1", stored)
	assert.Equal(t, session.Authenticated, f.session.Snapshot().State)
	assert.Equal(t, oauth.FlowIdle, f.flow.State())
}

// A rejected exchange never reaches the session: nothing is stored.
func TestRun_ExchangeRejected(t *testing.T) {
	f := newFixture(t, &fakeIdentity{user: &gateway.UserInfo{UserID: "u-1"}})
	f.surface.navigations = []string{"everp-ios://callback?code=bad&state={state}"}
	f.exchanger.token = nil
	f.exchanger.err = pkgoauth.NewHTTPError("token", 400, []byte(`{"error":"invalid_grant"}`))

	user, err := f.runner.Run(context.Background())

	assert.Nil(t, user)
	var httpErr *pkgoauth.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 400, httpErr.StatusCode)

	_, ok := f.store.Load()
	assert.False(t, ok)
	assert.Equal(t, session.Unauthenticated, f.session.Snapshot().State)
	assert.Equal(t, oauth.FlowIdle, f.flow.State())
}

func TestRun_StateMismatch(t *testing.T) {
	f := newFixture(t, &fakeIdentity{})
	f.surface.navigations = []string{"everp-ios://callback?code=c-1&state=forged"}

	_, err := f.runner.Run(context.Background())

	var cbErr *oauth.CallbackValidationError
	require.True(t, errors.As(err, &cbErr))
	assert.Equal(t, oauth.ReasonStateMismatch, cbErr.Reason)
	assert.Empty(t, f.exchanger.codes)
	assert.Equal(t, session.Unauthenticated, f.session.Snapshot().State)
}

func TestRun_AccessDenied(t *testing.T) {
	f := newFixture(t, &fakeIdentity{})
	f.surface.navigations = []string{"everp-ios://callback?error=access_denied&state={state}"}

	_, err := f.runner.Run(context.Background())

	var authErr *oauth.AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.True(t, authErr.IsAccessDenied())
	assert.Empty(t, f.exchanger.codes)
}

func TestRun_SurfaceClosed(t *testing.T) {
	f := newFixture(t, &fakeIdentity{})
	f.surface.err = browser.ErrClosed

	_, err := f.runner.Run(context.Background())

	assert.ErrorIs(t, err, browser.ErrClosed)
	assert.Equal(t, session.Unauthenticated, f.session.Snapshot().State)
	assert.Equal(t, oauth.FlowIdle, f.flow.State())
}

func TestRun_AlreadyAuthenticated(t *testing.T) {
	f := newFixture(t, &fakeIdentity{})
	require.NoError(t, f.session.HandleAuthSuccess(context.Background(), "existing"))

	_, err := f.runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)
	assert.Equal(t, oauth.FlowIdle, f.flow.State())
}

func TestRun_IdentityUnavailable(t *testing.T) {
	f := newFixture(t, &fakeIdentity{err: &oauth.NetworkError{Op: "userinfo", Err: errors.New("offline")}})
	f.surface.navigations = []string{"everp-ios://callback?code=c-1&state={state}"}

	user, err := f.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, session.Authenticated, f.session.Snapshot().State)
}

func TestRun_IdentityUnauthorized(t *testing.T) {
	f := newFixture(t, &fakeIdentity{err: &gateway.UnauthorizedError{Endpoint: "userinfo"}})
	f.surface.navigations = []string{"everp-ios://callback?code=c-1&state={state}"}

	_, err := f.runner.Run(context.Background())

	assert.True(t, gateway.IsUnauthorized(err))
	_, ok := f.store.Load()
	assert.False(t, ok)
	assert.Equal(t, session.Unauthenticated, f.session.Snapshot().State)
}

// A token that arrives after the caller gave up is dropped.
func TestRun_CancelledDuringExchange(t *testing.T) {
	f := newFixture(t, &fakeIdentity{user: &gateway.UserInfo{UserID: "u-1"}})
	f.surface.navigations = []string{"everp-ios://callback?code=c-1&state={state}"}
	f.exchanger.token = &pkgoauth.TokenResponse{AccessToken: "at-late", TokenType: "Bearer"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.exchanger.during = cancel

	user, err := f.runner.Run(ctx)

	assert.Nil(t, user)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"c-1"}, f.exchanger.codes)
	_, ok := f.store.Load()
	assert.False(t, ok)
	assert.Equal(t, session.Unauthenticated, f.session.Snapshot().State)
	assert.Equal(t, oauth.FlowIdle, f.flow.State())
}
