package browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"

	"everp/internal/oauth"
)

// ShutdownTimeout bounds the graceful stop of the loopback listener, which
// lets the confirmation page reach the browser.
const ShutdownTimeout = 5 * time.Second

//go:embed templates/callback.html
var callbackHTML string

var callbackTemplate = template.Must(template.New("callback").Funcs(sprig.HtmlFuncMap()).Parse(callbackHTML))

type callbackPage struct {
	Product    string
	Title      string
	Message    string
	ReceivedAt time.Time
}

// LoopbackSurface receives the redirect on a local HTTP listener.
type LoopbackSurface struct {
	redirect *url.URL
	opts     options
	listen   func(network, addr string) (net.Listener, error)
}

// NewLoopbackSurface creates a surface listening on the host and port of
// redirectURI, which must be an http URI with an explicit port.
func NewLoopbackSurface(redirectURI string, opts ...Option) (*LoopbackSurface, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, &oauth.ConfigurationError{Field: "redirect_uri", Value: redirectURI, Reason: err.Error()}
	}
	if u.Scheme != "http" || u.Port() == "" {
		return nil, &oauth.ConfigurationError{Field: "redirect_uri", Value: redirectURI, Reason: "a loopback redirect needs an http URI with a port"}
	}

	return &LoopbackSurface{
		redirect: u,
		opts:     newOptions(opts),
		listen:   net.Listen,
	}, nil
}

// Load starts the listener, opens authURL in the system browser and waits
// for a request the policy cancels. Requests the policy allows are answered
// with 404 and otherwise ignored.
func (s *LoopbackSurface) Load(ctx context.Context, authURL string, policy NavigationPolicy) error {
	listener, err := s.listen("tcp", s.redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.redirect.Host, err)
	}

	intercepted := make(chan struct{})
	var once sync.Once

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := *r.URL
			target.Scheme = s.redirect.Scheme
			target.Host = r.Host

			if policy(&target) != Cancel {
				http.NotFound(w, r)
				return
			}

			s.renderConfirmation(w)
			once.Do(func() { close(intercepted) })
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer s.shutdown(server)

	s.opts.logger.Debug("Loopback listener ready", "addr", listener.Addr().String())
	launch(s.opts, authURL)

	select {
	case <-intercepted:
		return nil
	case err := <-serveErr:
		return fmt.Errorf("loopback listener failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LoopbackSurface) renderConfirmation(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	page := callbackPage{
		Product:    "everp",
		Title:      "Sign-in received",
		Message:    "You can close this window and return to the terminal.",
		ReceivedAt: time.Now(),
	}
	if err := callbackTemplate.Execute(w, page); err != nil {
		s.opts.logger.Debug("Could not render confirmation page", "error", err)
	}
}

func (s *LoopbackSurface) shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(ctx)
}
