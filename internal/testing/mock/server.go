package mock

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultClientID = "everp-ios"

	AuthorizePath = "/oauth2/authorize"
	TokenPath     = "/oauth2/token"
	LogoutPath    = "/logout"
	UserInfoPath  = "/api/user/info"
	ProfilePath   = "/api/business/profile"
)

// DefaultUserInfo is returned by /api/user/info unless ServerConfig.UserInfo is set.
var DefaultUserInfo = map[string]any{
	"userId":     "u-1001",
	"userName":   "Kim Minji",
	"loginEmail": "minji.kim@everp.co.kr",
	"userRole":   "MANAGER",
	"userType":   "EMPLOYEE",
}

// DefaultProfile is returned by /api/business/profile unless ServerConfig.Profile is set.
var DefaultProfile = map[string]any{
	"name":           "Kim Minji",
	"employeeNumber": "E-2041",
	"department":     "Finance",
	"position":       "Manager",
	"email":          "minji.kim@everp.co.kr",
}

// ServerConfig configures the mock server.
type ServerConfig struct {
	// ClientID is the only client accepted. Defaults to DefaultClientID.
	ClientID string

	// TokenLifetime is how long access tokens remain valid. Defaults to 1h.
	TokenLifetime time.Duration

	// Clock defaults to RealClock.
	Clock Clock

	// UserInfo and Profile are the data members of the gateway envelopes.
	UserInfo map[string]any
	Profile  map[string]any

	SimulateErrors *ErrorSimulation
}

// ErrorSimulation makes endpoints fail on purpose.
type ErrorSimulation struct {
	// TokenEndpointError makes /oauth2/token answer 400 server_error with this description.
	TokenEndpointError string

	// InvalidGrant rejects every token request with invalid_grant.
	InvalidGrant bool

	// LogoutStatus, when non-zero, is returned by /logout.
	LogoutStatus int

	// GatewayStatus, when non-zero, is returned by the gateway endpoints.
	GatewayStatus int
}

// TokenResponse is the token endpoint response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

type authCodeEntry struct {
	ClientID        string
	RedirectURI     string
	Scope           string
	CodeChallenge   string
	ChallengeMethod string
	CreatedAt       time.Time
}

type issuedToken struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
	Revoked      bool
}

// Server is a mock everp authorization server and gateway.
type Server struct {
	config     ServerConfig
	clock      Clock
	signingKey []byte
	httpServer *httptest.Server

	mu           sync.Mutex
	authCodes    map[string]*authCodeEntry
	issuedTokens map[string]*issuedToken
	refresh      map[string]*issuedToken
	logouts      int
	tokenCalls   int
}

// NewServer starts a mock server on a loopback port.
func NewServer(config ServerConfig) *Server {
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}
	if config.TokenLifetime == 0 {
		config.TokenLifetime = time.Hour
	}
	if config.UserInfo == nil {
		config.UserInfo = DefaultUserInfo
	}
	if config.Profile == nil {
		config.Profile = DefaultProfile
	}
	clock := config.Clock
	if clock == nil {
		clock = RealClock{}
	}

	s := &Server{
		config:       config,
		clock:        clock,
		signingKey:   []byte(generateOpaqueToken()),
		authCodes:    make(map[string]*authCodeEntry),
		issuedTokens: make(map[string]*issuedToken),
		refresh:      make(map[string]*issuedToken),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", s.handleMetadata)
	mux.HandleFunc(AuthorizePath, s.handleAuthorize)
	mux.HandleFunc(TokenPath, s.handleToken)
	mux.HandleFunc(LogoutPath, s.handleLogout)
	mux.HandleFunc(UserInfoPath, s.handleGateway(func() any { return s.config.UserInfo }))
	mux.HandleFunc(ProfilePath, s.handleGateway(func() any { return s.config.Profile }))

	s.httpServer = httptest.NewServer(mux)
	return s
}

// Close stops the server.
func (s *Server) Close() {
	s.httpServer.Close()
}

// URL is the base URL of the server. It serves as issuer and gateway base.
func (s *Server) URL() string { return s.httpServer.URL }

func (s *Server) AuthorizeURL() string { return s.URL() + AuthorizePath }
func (s *Server) TokenURL() string     { return s.URL() + TokenPath }
func (s *Server) LogoutURL() string    { return s.URL() + LogoutPath }

// HTTPClient returns a client for the server.
func (s *Server) HTTPClient() *http.Client {
	return s.httpServer.Client()
}

// Authorize plays the user approving the authorization request: it returns
// the URL the browser is redirected to.
func (s *Server) Authorize(authURL string) (*url.URL, error) {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Get(authURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("authorize answered %d", resp.StatusCode)
	}
	return url.Parse(resp.Header.Get("Location"))
}

// IssueToken issues an access token without the authorization flow.
func (s *Server) IssueToken(scope string) *TokenResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(scope)
}

// ValidateToken reports whether accessToken is issued, unrevoked and unexpired.
func (s *Server) ValidateToken(accessToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.issuedTokens[accessToken]
	return ok && !token.Revoked && s.clock.Now().Before(token.ExpiresAt)
}

// Revoke invalidates an access token.
func (s *Server) Revoke(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.issuedTokens[accessToken]; ok {
		token.Revoked = true
	}
}

// LogoutCount is the number of /logout requests received.
func (s *Server) LogoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

// TokenCalls is the number of /oauth2/token requests received.
func (s *Server) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                s.URL(),
		"authorization_endpoint":                s.AuthorizeURL(),
		"token_endpoint":                        s.TokenURL(),
		"end_session_endpoint":                  s.LogoutURL(),
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"token_endpoint_auth_methods_supported": []string{"none"},
		"code_challenge_methods_supported":      []string{"S256"},
	})
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" {
		http.Error(w, "unsupported_response_type", http.StatusBadRequest)
		return
	}
	if q.Get("client_id") != s.config.ClientID {
		http.Error(w, "invalid_client", http.StatusBadRequest)
		return
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		http.Error(w, "PKCE with S256 is required", http.StatusBadRequest)
		return
	}

	redirectURL, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirectURL.Scheme == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	code := generateOpaqueToken()
	s.mu.Lock()
	s.authCodes[code] = &authCodeEntry{
		ClientID:        q.Get("client_id"),
		RedirectURI:     q.Get("redirect_uri"),
		Scope:           q.Get("scope"),
		CodeChallenge:   q.Get("code_challenge"),
		ChallengeMethod: q.Get("code_challenge_method"),
		CreatedAt:       s.clock.Now(),
	}
	s.mu.Unlock()

	params := redirectURL.Query()
	params.Set("code", code)
	params.Set("state", q.Get("state"))
	redirectURL.RawQuery = params.Encode()

	w.Header().Set("Location", redirectURL.String())
	w.WriteHeader(http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	s.mu.Lock()
	s.tokenCalls++
	s.mu.Unlock()

	if sim := s.config.SimulateErrors; sim != nil {
		if sim.TokenEndpointError != "" {
			oauthError(w, http.StatusBadRequest, "server_error", sim.TokenEndpointError)
			return
		}
		if sim.InvalidGrant {
			oauthError(w, http.StatusBadRequest, "invalid_grant", "grant is invalid")
			return
		}
	}
	if r.PostForm.Get("client_secret") != "" {
		oauthError(w, http.StatusBadRequest, "invalid_client", "public clients must not send a secret")
		return
	}
	if r.PostForm.Get("client_id") != s.config.ClientID {
		oauthError(w, http.StatusUnauthorized, "invalid_client", "unknown client")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.handleAuthCodeExchange(w, r)
	case "refresh_token":
		s.handleRefreshToken(w, r)
	default:
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant type not supported")
	}
}

func (s *Server) handleAuthCodeExchange(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.authCodes[code]
	delete(s.authCodes, code)
	switch {
	case !ok:
		oauthError(w, http.StatusBadRequest, "invalid_grant", "authorization code not found or already used")
		return
	case entry.RedirectURI != r.PostForm.Get("redirect_uri"):
		oauthError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri does not match")
		return
	case !verifyPKCE(entry.CodeChallenge, r.PostForm.Get("code_verifier")):
		oauthError(w, http.StatusBadRequest, "invalid_grant", "code_verifier verification failed")
		return
	}

	writeJSON(w, http.StatusOK, s.issueLocked(entry.Scope))
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refresh[r.PostForm.Get("refresh_token")]
	if !ok || old.Revoked {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "refresh token is invalid")
		return
	}
	delete(s.refresh, old.RefreshToken)

	writeJSON(w, http.StatusOK, s.issueLocked(old.Scope))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	s.logouts++
	s.mu.Unlock()

	if sim := s.config.SimulateErrors; sim != nil && sim.LogoutStatus != 0 {
		w.WriteHeader(sim.LogoutStatus)
		return
	}

	token := bearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.Revoke(token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGateway(data func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sim := s.config.SimulateErrors; sim != nil && sim.GatewayStatus != 0 {
			writeJSON(w, sim.GatewayStatus, map[string]any{"status": sim.GatewayStatus, "success": false, "message": "simulated failure"})
			return
		}
		if !s.ValidateToken(bearerToken(r)) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="everp", error="invalid_token", error_description="token is invalid or expired"`)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "success": false, "message": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  200,
			"success": true,
			"message": "OK",
			"data":    data(),
		})
	}
}

func (s *Server) issueLocked(scope string) *TokenResponse {
	now := s.clock.Now()
	expiresAt := now.Add(s.config.TokenLifetime)

	claims := jwt.MapClaims{
		"iss":   s.URL(),
		"sub":   fmt.Sprint(s.config.UserInfo["userId"]),
		"aud":   s.config.ClientID,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.NewString(),
		"scope": scope,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		// HS256 signing with a byte key does not fail.
		panic(err)
	}

	token := &issuedToken{
		AccessToken:  accessToken,
		RefreshToken: generateOpaqueToken(),
		Scope:        scope,
		ExpiresAt:    expiresAt,
	}
	s.issuedTokens[token.AccessToken] = token
	s.refresh[token.RefreshToken] = token

	return &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.TokenLifetime.Seconds()),
		Scope:        scope,
	}
}

// ParseAccessToken verifies an access token issued by this server.
func (s *Server) ParseAccessToken(accessToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func verifyPKCE(challenge, verifier string) bool {
	if challenge == "" || verifier == "" {
		return false
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]) == challenge
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func oauthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func generateOpaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
