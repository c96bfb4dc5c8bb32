package cmd

import (
	"context"
	"errors"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"everp/internal/cli"
	"everp/internal/login"
	"everp/internal/session"
	"everp/pkg/logging"
)

var (
	loginForce   bool
	loginTimeout = DefaultLoginTimeout
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to EVERP through the browser",
	Long: `Log in to EVERP with the OAuth2 authorization code flow and PKCE.

Your browser is opened on the EVERP sign-in page. When the configured
redirect URI is a loopback address (http://127.0.0.1:<port>/...), everp
receives the redirect itself. Otherwise paste the URL the browser ends
up on into the prompt.

Examples:
  everp auth login
  everp auth login --force             # Replace the current session`,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginForce, "force", false, "Log out of the current session first")
	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", DefaultLoginTimeout, "Give up if the login is not completed in time")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	if a.session.CheckOnLaunch(ctx) == session.Authenticated {
		if !loginForce {
			authPrint("%s Already logged in.\n", text.FgGreen.Sprint("✓"))
			authPrintln("Use 'everp auth login --force' to log in again.")
			return nil
		}
		authPrintln("Logging out of the current session...")
		a.session.Logout(ctx)
	}

	surface, err := newSurface(a.auth, authOut)
	if err != nil {
		return err
	}

	runner := login.NewRunner(a.auth, surface, a.exchange, a.session, login.WithLogger(logging.For("Login")))
	user, err := runner.Run(ctx)
	switch {
	case errors.Is(err, login.ErrAlreadyAuthenticated):
		authPrint("%s Already logged in.\n", text.FgGreen.Sprint("✓"))
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &cli.AuthFailedError{Reason: errors.New("login was not completed in time")}
	case err != nil:
		return cli.Translate(err)
	}

	if user == nil {
		authPrint("%s Logged in\n", text.FgGreen.Sprint("✓"))
		authPrintln(text.FgYellow.Sprint("  Your identity could not be loaded yet; try 'everp auth whoami'."))
		return nil
	}
	authPrint("%s Logged in as %s\n", text.FgGreen.Sprint("✓"), describeUser(user.UserName, user.LoginEmail))
	return nil
}
