package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everp/internal/oauth"
	pkgoauth "everp/pkg/oauth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/", WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return c
}

func TestFetchUserInfo(t *testing.T) {
	var gotAuth, gotRequestID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":200,"success":true,"message":"ok","data":{"userId":"u-1","userName":"Kim","loginEmail":"kim@everp.co.kr","userRole":"ADMIN","userType":"EMPLOYEE"}}`))
	})

	info, err := c.FetchUserInfo(context.Background(), oauth.NewRedactedToken("at-1"))

	require.NoError(t, err)
	assert.Equal(t, &UserInfo{UserID: "u-1", UserName: "Kim", LoginEmail: "kim@everp.co.kr", UserRole: "ADMIN", UserType: "EMPLOYEE"}, info)
	assert.Equal(t, "Bearer at-1", gotAuth)
	assert.Equal(t, UserInfoPath, gotPath)
	assert.Len(t, gotRequestID, 36)
}

func TestFetchUserInfo_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="everp", error="invalid_token"`)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchUserInfo(context.Background(), oauth.NewRedactedToken("expired"))

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsUnauthorized(err))

	var unauthorized *UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
	require.NotNil(t, unauthorized.Challenge)
	assert.True(t, unauthorized.Challenge.IsInvalidToken())
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestFetchUserInfo_EmptyTokenIsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})

	_, err := c.FetchUserInfo(context.Background(), oauth.NewRedactedToken(""))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFetchUserInfo_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantHTTP   bool
		wantDecode bool
	}{
		{name: "server error", status: 503, body: "maintenance", wantHTTP: true},
		{name: "forbidden", status: 403, body: `{"success":false}`, wantHTTP: true},
		{name: "bad json", status: 200, body: "{", wantDecode: true},
		{name: "no data", status: 200, body: `{"success":false,"message":"nope","data":null}`, wantDecode: true},
		{name: "no user id", status: 200, body: `{"success":true,"data":{"userName":"x"}}`, wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchUserInfo(context.Background(), oauth.NewRedactedToken("at"))
			require.Error(t, err)
			assert.False(t, IsUnauthorized(err))

			var httpErr *pkgoauth.HTTPError
			var decodeErr *pkgoauth.DecodeError
			assert.Equal(t, tt.wantHTTP, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantDecode, errors.As(err, &decodeErr))
		})
	}
}

func TestFetchUserInfo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(server.URL)
	require.NoError(t, err)
	server.Close()

	_, err = c.FetchUserInfo(context.Background(), oauth.NewRedactedToken("at"))

	var netErr *oauth.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestFetchProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProfilePath, r.URL.Path)
		_, _ = w.Write([]byte(`{"status":200,"success":true,"data":{"name":"Lee","department":"Finance","position":null}}`))
	})

	profile, err := c.FetchProfile(context.Background(), oauth.NewRedactedToken("at"))

	require.NoError(t, err)
	assert.Equal(t, ProfileEmployee, profile.Kind)
	assert.Equal(t, "Lee", profile.DisplayName())
	assert.Nil(t, profile.Employee.Position)
}

func TestFetchProfile_NoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"data":null}`))
	})

	_, err := c.FetchProfile(context.Background(), oauth.NewRedactedToken("at"))

	var decodeErr *pkgoauth.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "api.everp.co.kr", "ftp://api.everp.co.kr"} {
		_, err := NewClient(base)
		var cfgErr *oauth.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "base %q", base)
	}
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsUnauthorized(errors.New("boom")))
	assert.True(t, IsUnauthorized(pkgoauth.NewHTTPError("logout", 401, nil)))
	assert.True(t, IsUnauthorized(&UnauthorizedError{Endpoint: "profile"}))
}
