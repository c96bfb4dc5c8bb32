package oauth

import (
	"crypto/subtle"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"

	pkgoauth "everp/pkg/oauth"
)

// FlowState is the state of the authorization flow controller.
type FlowState int

const (
	// FlowIdle means no attempt exists.
	FlowIdle FlowState = iota
	// FlowRequesting means an attempt is being prepared.
	FlowRequesting
	// FlowAwaitingRedirect means the authorization URL is ready and the
	// controller waits for the redirect.
	FlowAwaitingRedirect
	// FlowCompleted means a code was accepted and handed to the exchange callback.
	FlowCompleted
	// FlowFailed means the attempt ended with an error. See LastError.
	FlowFailed
)

// String returns a human-readable representation of the flow state.
func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowRequesting:
		return "requesting"
	case FlowAwaitingRedirect:
		return "awaiting_redirect"
	case FlowCompleted:
		return "completed"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CodeHandler receives the authorization code together with the verifier of
// the attempt that produced it.
type CodeHandler func(code, verifier string) error

// FlowController runs one PKCE authorization attempt at a time.
//
// The verifier and state of the current attempt live only inside the
// controller. They are never logged and are cleared as soon as the attempt
// completes, fails or is reset.
type FlowController struct {
	mu sync.Mutex

	cfg       *AuthorizationConfig
	state     FlowState
	attemptID string
	verifier  string
	csrfState string
	authURL   string
	lastErr   error

	logger        *slog.Logger
	generatePKCE  func() (*pkgoauth.PKCEPair, error)
	generateState func(int) (string, error)
	stateBytes    int
}

// FlowOption configures a FlowController.
type FlowOption func(*FlowController)

// WithFlowLogger sets the logger used for attempt lifecycle messages.
func WithFlowLogger(logger *slog.Logger) FlowOption {
	return func(c *FlowController) {
		c.logger = logger
	}
}

// WithStateBytes sets how many random bytes back the state parameter.
// Values below the 32 byte floor make Start fail.
func WithStateBytes(n int) FlowOption {
	return func(c *FlowController) {
		c.stateBytes = n
	}
}

// NewFlowController creates an idle controller.
func NewFlowController(opts ...FlowOption) *FlowController {
	c := &FlowController{
		state:         FlowIdle,
		logger:        slog.Default(),
		generatePKCE:  pkgoauth.GeneratePKCE,
		generateState: pkgoauth.GenerateState,
		stateBytes:    pkgoauth.DefaultStateBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a new attempt against cfg and returns the authorization URL.
// An attempt already in flight is discarded.
func (c *FlowController) Start(cfg *AuthorizationConfig) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == FlowAwaitingRedirect {
		c.logger.Debug("Replacing in-flight authorization attempt", "attempt", c.attemptID)
	}

	c.clearAttemptLocked()
	c.cfg = cfg
	c.state = FlowRequesting
	c.attemptID = uuid.NewString()

	pair, err := c.generatePKCE()
	if err != nil {
		return "", c.failLocked(err)
	}

	csrfState, err := c.generateState(c.stateBytes)
	if err != nil {
		return "", c.failLocked(err)
	}

	authURL, err := cfg.AuthorizationURL(pair.CodeChallenge, csrfState)
	if err != nil {
		return "", c.failLocked(err)
	}

	c.verifier = pair.CodeVerifier
	c.csrfState = csrfState
	c.authURL = authURL
	c.state = FlowAwaitingRedirect

	c.logger.Debug("Authorization attempt started",
		"attempt", c.attemptID,
		"client_id", cfg.ClientID(),
		"redirect_scheme", cfg.RedirectScheme())

	return authURL, nil
}

// MatchesRedirect reports whether u targets the redirect URI of the current
// configuration. Browser surfaces use it to decide which navigations to cancel.
func (c *FlowController) MatchesRedirect(u *url.URL) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg != nil && c.cfg.MatchesRedirect(u)
}

// HandleRedirect processes a navigation that may be the authorization redirect.
//
// handled is false when u is not addressed to the redirect URI; such
// navigations are ignored and the controller keeps waiting. When handled is
// true, err reports why the redirect was rejected, or the error returned by
// onCode. onCode runs at most once per attempt, outside the controller lock.
func (c *FlowController) HandleRedirect(u *url.URL, onCode CodeHandler) (handled bool, err error) {
	c.mu.Lock()

	if c.cfg == nil || !c.cfg.MatchesRedirect(u) {
		c.mu.Unlock()
		return false, nil
	}

	if c.state != FlowAwaitingRedirect {
		c.mu.Unlock()
		c.logger.Debug("Ignoring redirect without an attempt in flight")
		return true, &CallbackValidationError{Reason: ReasonStaleCallback}
	}

	query := u.Query()
	returnedState := query.Get("state")
	switch {
	case returnedState == "":
		err = c.failLocked(&CallbackValidationError{Reason: ReasonMissingState})
	case subtle.ConstantTimeCompare([]byte(returnedState), []byte(c.csrfState)) != 1:
		err = c.failLocked(&CallbackValidationError{Reason: ReasonStateMismatch})
	case query.Get("error") != "":
		err = c.failLocked(&AuthorizationError{
			Code:        query.Get("error"),
			Description: query.Get("error_description"),
		})
	case query.Get("code") == "":
		err = c.failLocked(&CallbackValidationError{Reason: ReasonMissingCode})
	}
	if err != nil {
		c.mu.Unlock()
		return true, err
	}

	code := query.Get("code")
	verifier := c.verifier
	attemptID := c.attemptID
	c.verifier = ""
	c.csrfState = ""
	c.state = FlowCompleted
	c.mu.Unlock()

	c.logger.Debug("Authorization redirect accepted", "attempt", attemptID)

	if onCode == nil {
		return true, nil
	}
	if err := onCode(code, verifier); err != nil {
		c.mu.Lock()
		if c.attemptID == attemptID {
			c.state = FlowFailed
			c.lastErr = err
		}
		c.mu.Unlock()
		return true, err
	}
	return true, nil
}

// Reset discards the current attempt and returns to FlowIdle.
func (c *FlowController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearAttemptLocked()
	c.state = FlowIdle
}

// State returns the current flow state.
func (c *FlowController) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AuthURL returns the authorization URL of the attempt awaiting its redirect,
// or "" in any other state.
func (c *FlowController) AuthURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != FlowAwaitingRedirect {
		return ""
	}
	return c.authURL
}

// LastError returns the error that moved the controller to FlowFailed.
func (c *FlowController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AttemptID returns the correlation ID of the current attempt.
func (c *FlowController) AttemptID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptID
}

func (c *FlowController) failLocked(err error) error {
	c.verifier = ""
	c.csrfState = ""
	c.authURL = ""
	c.state = FlowFailed
	c.lastErr = err

	c.logger.Debug("Authorization attempt failed", "attempt", c.attemptID, "error", err)
	return err
}

func (c *FlowController) clearAttemptLocked() {
	c.verifier = ""
	c.csrfState = ""
	c.authURL = ""
	c.attemptID = ""
	c.lastErr = nil
}
