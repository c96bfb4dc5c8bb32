// Package browser hosts the authorization page for the everp CLI.
//
// A Surface shows the authorization URL to the user and reports every
// navigation it observes to a NavigationPolicy. The policy cancels the
// navigation addressed to the redirect URI; Load returns as soon as that
// happens, so the redirect itself never reaches a real page.
//
// Two surfaces exist. LoopbackSurface serves an http://127.0.0.1 redirect
// URI and receives the redirect from the system browser. PasteSurface is
// used for custom-scheme redirect URIs that a terminal cannot receive: the
// user copies the final URL from the browser and pastes it at a prompt.
package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"

	"everp/internal/oauth"
)

// Decision is the answer of a NavigationPolicy.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota

	// Cancel stops the navigation. The surface treats it as intercepted.
	Cancel
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	if d == Cancel {
		return "cancel"
	}
	return "allow"
}

// NavigationPolicy decides what happens to a navigation.
type NavigationPolicy func(u *url.URL) Decision

// Surface displays an authorization page.
type Surface interface {
	// Load shows authURL and blocks until policy cancels a navigation, the
	// user closes the surface, or ctx is done.
	Load(ctx context.Context, authURL string, policy NavigationPolicy) error
}

// ErrClosed is returned by Load when the user closed the surface before a
// navigation was intercepted.
var ErrClosed = errors.New("browser surface closed before the redirect was received")

// Opener opens a URL outside the process, normally in the system browser.
type Opener func(rawURL string) error

type options struct {
	opener Opener
	logger *slog.Logger
	out    io.Writer
	in     io.ReadCloser
}

// Option configures a surface.
type Option func(*options)

// WithOpener replaces the system browser opener.
func WithOpener(opener Opener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOutput sets where user-facing instructions are written.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithInput sets where pasted redirect URLs are read from.
func WithInput(r io.ReadCloser) Option {
	return func(o *options) {
		o.in = r
	}
}

func newOptions(opts []Option) options {
	o := options{
		opener: OpenURL,
		logger: slog.Default(),
		out:    os.Stderr,
		in:     os.Stdin,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ForRedirect returns the surface that can observe the redirect URI of cfg.
func ForRedirect(cfg *oauth.AuthorizationConfig, opts ...Option) (Surface, error) {
	if cfg.IsLoopbackRedirect() {
		return NewLoopbackSurface(cfg.RedirectURI(), opts...)
	}
	return NewPasteSurface(opts...), nil
}
