package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"everp/internal/cli"
	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/session"
	pkgoauth "everp/pkg/oauth"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitCodeSuccess},
		{name: "plain error", err: errors.New("boom"), want: ExitCodeError},
		{name: "auth required", err: &cli.AuthRequiredError{Reason: "not logged in"}, want: ExitCodeAuthRequired},
		{name: "auth expired", err: &cli.AuthExpiredError{}, want: ExitCodeAuthRequired},
		{name: "wrapped auth failed", err: fmt.Errorf("login: %w", &cli.AuthFailedError{Reason: errors.New("denied")}), want: ExitCodeAuthFailed},
		{name: "not authenticated", err: session.ErrNotAuthenticated, want: ExitCodeAuthRequired},
		{name: "gateway 401", err: &gateway.UnauthorizedError{Endpoint: "userinfo"}, want: ExitCodeAuthRequired},
		{name: "state mismatch", err: &oauth.CallbackValidationError{Reason: oauth.ReasonStateMismatch}, want: ExitCodeAuthFailed},
		{name: "token endpoint 400", err: pkgoauth.NewHTTPError("token", 400, nil), want: ExitCodeAuthFailed},
		{name: "network", err: &oauth.NetworkError{Op: "token", Err: errors.New("connection refused")}, want: ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"auth", "profile", "config", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}

	auth := map[string]bool{}
	for _, c := range authCmd.Commands() {
		auth[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "status", "whoami", "refresh"} {
		assert.True(t, auth[want], "missing auth %s command", want)
	}
}
