package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgoauth "everp/pkg/oauth"
)

func TestLogoutClient_SendsBearer(t *testing.T) {
	var gotAuth, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewLogoutClient(server.URL+"/logout", WithLogoutHTTPClient(server.Client()))
	require.NoError(t, err)

	require.NoError(t, client.Logout(context.Background(), NewRedactedToken("at-1")))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer at-1", gotAuth)
}

func TestLogoutClient_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewLogoutClient(server.URL, WithLogoutHTTPClient(server.Client()))
		require.NoError(t, err)

		err = client.Logout(context.Background(), NewRedactedToken("at"))
		var httpErr *pkgoauth.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	})

	t.Run("transport", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		endpoint := server.URL
		server.Close()

		client, err := NewLogoutClient(endpoint)
		require.NoError(t, err)

		err = client.Logout(context.Background(), NewRedactedToken("at"))
		var netErr *NetworkError
		assert.True(t, errors.As(err, &netErr))
	})

	t.Run("empty token skips the call", func(t *testing.T) {
		client, err := NewLogoutClient("https://auth.example.com/logout")
		require.NoError(t, err)
		assert.NoError(t, client.Logout(context.Background(), NewRedactedToken("")))
	})

	t.Run("bad endpoint", func(t *testing.T) {
		_, err := NewLogoutClient("logout")
		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})
}
