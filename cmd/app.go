package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"everp/internal/browser"
	"everp/internal/cli"
	"everp/internal/config"
	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/session"
	"everp/internal/tokenstore"
	"everp/pkg/logging"
	pkgoauth "everp/pkg/oauth"
)

// shutdownGrace is how long a command waits for background work, such as
// the remote logout, before the process exits.
const shutdownGrace = session.DefaultLogoutTimeout + time.Second

// newSurface builds the browser surface a login runs in.
var newSurface = func(cfg *oauth.AuthorizationConfig, out io.Writer) (browser.Surface, error) {
	return browser.ForRedirect(cfg, browser.WithOutput(out), browser.WithLogger(logging.For("Browser")))
}

// app is the set of collaborators one command invocation works with.
type app struct {
	cfg      config.EverpConfig
	auth     *oauth.AuthorizationConfig
	exchange *oauth.ExchangeClient
	store    tokenstore.Store
	gateway  *gateway.Client
	session  *session.Manager
	logger   *slog.Logger
}

// loadConfig loads the configuration and applies the global flags on top.
func loadConfig() (config.EverpConfig, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if tokenStoreName != "" {
		cfg.TokenStore.Backend = tokenStoreName
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, cfg.Validate()
}

// newApp loads the configuration and wires the session stack. Discovery
// runs when an issuer is configured.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.InitForCLI(level, cmd.ErrOrStderr())

	authHTTP := &http.Client{Timeout: cfg.Auth.Timeout}
	protocol := pkgoauth.NewClient(pkgoauth.WithHTTPClient(authHTTP), pkgoauth.WithLogger(logging.For("OAuth")))

	authCfg, err := oauth.NewAuthorizationConfig(cfg.Auth.AuthorizationEndpoint, cfg.Auth.TokenEndpoint,
		cfg.Auth.ClientID, cfg.Auth.RedirectURI, cfg.Auth.Scopes)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Issuer != "" {
		authCfg, err = oauth.NewDiscoverer(protocol).Resolve(ctx, cfg.Auth.Issuer, authCfg)
		if err != nil {
			return nil, err
		}
	}

	backend, err := tokenstore.ParseBackend(cfg.TokenStore.Backend)
	if err != nil {
		return nil, err
	}
	store, err := tokenstore.Open(backend, tokenstore.Options{Dir: cfg.TokenStore.Dir, Logger: logging.For("TokenStore")})
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout}),
		gateway.WithLogger(logging.For("Gateway")))
	if err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(logging.For("Session"))}
	// Without a logout endpoint, logout only clears local state.
	if cfg.Auth.LogoutEndpoint != "" {
		remote, err := oauth.NewLogoutClient(cfg.Auth.LogoutEndpoint,
			oauth.WithLogoutHTTPClient(authHTTP),
			oauth.WithLogoutLogger(logging.For("Logout")))
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithRemoteLogout(remote))
	}

	return &app{
		cfg:      cfg,
		auth:     authCfg,
		exchange: oauth.NewExchangeClient(protocol, oauth.WithExchangeLogger(logging.For("Exchange"))),
		store:    store,
		gateway:  gw,
		session:  session.NewManager(store, gw, sessionOpts...),
		logger:   logger,
	}, nil
}

// close waits for background session work to finish.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.session.Wait(ctx); err != nil {
		a.logger.Debug("Background work still running at exit", "error", err)
	}
}

// requireSession restores the stored session and fails with exit code 2 when
// there is none.
func (a *app) requireSession(ctx context.Context) error {
	if a.session.CheckOnLaunch(ctx) != session.Authenticated {
		return &cli.AuthRequiredError{Reason: "not logged in"}
	}
	return nil
}
