package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"everp/internal/browser"
	"everp/internal/cli"
	"everp/internal/oauth"
	"everp/internal/testing/mock"
	"everp/internal/tokenstore"
)

// mockSurface drives the authorization page of the mock server in place
// of a browser.
type mockSurface struct {
	srv *mock.Server
}

func (s *mockSurface) Load(_ context.Context, authURL string, policy browser.NavigationPolicy) error {
	redirect, err := s.srv.Authorize(authURL)
	if err != nil {
		return err
	}
	if policy(redirect) == browser.Cancel {
		return nil
	}
	return browser.ErrClosed
}

type testEnv struct {
	srv       *mock.Server
	configDir string
	tokenDir  string
}

// newTestEnv starts a mock server, writes a config.yaml pointing at it with
// the file token store, and replaces the browser surface.
func newTestEnv(t *testing.T, serverConfig mock.ServerConfig) *testEnv {
	t.Helper()
	for _, name := range []string{
		"EVERP_AUTH_ISSUER", "EVERP_AUTHORIZATION_ENDPOINT", "EVERP_TOKEN_ENDPOINT",
		"EVERP_LOGOUT_ENDPOINT", "EVERP_CLIENT_ID", "EVERP_REDIRECT_URI", "EVERP_SCOPES",
		"EVERP_GATEWAY_URL", "EVERP_TOKEN_STORE", "EVERP_TOKEN_DIR", "EVERP_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}

	srv := mock.NewServer(serverConfig)
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv, configDir: t.TempDir()}
	env.tokenDir = filepath.Join(env.configDir, "tokens")

	content := fmt.Sprintf(`auth:
  authorizationEndpoint: %s
  tokenEndpoint: %s
  logoutEndpoint: %s
  clientId: %s
  redirectUri: everp-ios://callback
  scopes: [erp.user.profile, offline_access]
gateway:
  baseUrl: %s
tokenStore:
  backend: file
  dir: %s
logging:
  level: error
`, srv.AuthorizeURL(), srv.TokenURL(), srv.LogoutURL(), mock.DefaultClientID, srv.URL(), env.tokenDir)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte(content), 0600))

	original := newSurface
	newSurface = func(*oauth.AuthorizationConfig, io.Writer) (browser.Surface, error) {
		return &mockSurface{srv: srv}, nil
	}
	t.Cleanup(func() { newSurface = original })
	return env
}

// execute runs the root command with args and returns everything it wrote.
func (e *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config-path", e.configDir}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// storedToken reads the token file the commands write.
func (e *testEnv) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	store, err := tokenstore.NewFileStore(e.tokenDir)
	require.NoError(t, err)
	return store.Load()
}

func resetFlags() {
	configPath, logLevel, tokenStoreName = "", "", ""
	authQuiet = false
	loginForce = false
	loginTimeout = DefaultLoginTimeout
	logoutYes = false
	refreshToken, printRefreshToken = "", false
	statusWatch = false
	whoamiOutput = cli.OutputFlags{OutputFormat: "table"}
	profileOutput = cli.OutputFlags{OutputFormat: "table"}
}
