package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"everp/internal/cli"
	"everp/internal/formatting"
	"everp/internal/oauth"
	"everp/pkg/logging"
)

var (
	authQuiet bool
	authOut   io.Writer = os.Stdout
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your EVERP session",
	Long: `Manage the EVERP session of this machine.

The auth command group provides subcommands to log in, log out, check
status, and show the identity the stored access token belongs to.

Examples:
  everp auth login                     # Log in through the browser
  everp auth login --force             # Log out first, then log in again
  everp auth status                    # Show authentication status
  everp auth status --watch            # Follow status changes (file token store)
  everp auth whoami                    # Show current identity
  everp auth refresh --refresh-token - # Trade a refresh token read from stdin
  everp auth logout                    # End the session`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		authOut = cmd.OutOrStdout()
	},
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the stored token",
	Long: `End the EVERP session.

The stored access token is removed at once. The authorization server is
then told about the logout in the background; if it cannot be reached
the local logout still stands.

Examples:
  everp auth logout
  everp auth logout --yes              # Skip the confirmation prompt`,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace the stored token using a refresh token",
	Long: `Trade a refresh token for a new access token.

Refresh tokens are never stored by everp; pass one explicitly. Use "-"
to read it from standard input.

Examples:
  everp auth refresh --refresh-token "$EVERP_REFRESH_TOKEN"
  pass show everp/refresh | everp auth refresh --refresh-token -`,
	RunE: runAuthRefresh,
}

// authWhoamiCmd represents the auth whoami command
var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated identity",
	Long: `Show the identity the stored access token belongs to.

The identity is fetched from the gateway, so this also proves that the
token is still accepted.

Examples:
  everp auth whoami
  everp auth whoami -o json`,
	RunE: runAuthWhoami,
}

// Subcommand flags
var (
	logoutYes         bool
	refreshToken      string
	printRefreshToken bool
	whoamiOutput      cli.OutputFlags
)

// authPrint prints output only if the --quiet flag is not set.
func authPrint(format string, args ...interface{}) {
	if !authQuiet {
		fmt.Fprintf(authOut, format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(a ...interface{}) {
	if !authQuiet {
		fmt.Fprintln(authOut, a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authWhoamiCmd)

	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")

	authLogoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip confirmation prompt")
	authRefreshCmd.Flags().StringVar(&refreshToken, "refresh-token", "", `Refresh token to redeem, or "-" for stdin`)
	authRefreshCmd.Flags().BoolVar(&printRefreshToken, "print-refresh-token", false, "Print the rotated refresh token, if one is issued")
	_ = authRefreshCmd.MarkFlagRequired("refresh-token")
	cli.RegisterOutputFlags(authWhoamiCmd, &whoamiOutput)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if _, ok := a.store.Load(); !ok {
		authPrintln("No stored session.")
		return nil
	}

	if !logoutYes && isInteractive(cmd.InOrStdin()) {
		fmt.Fprint(authOut, "Log out of EVERP? [y/N]: ")
		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(authOut, "Cancelled.")
			return nil
		}
	}

	a.session.Logout(ctx)
	authPrint("%s Logged out\n", text.FgGreen.Sprint("✓"))
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	token := refreshToken
	if token == "-" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read refresh token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	progress := cli.StartProgress(cmd.ErrOrStderr(), authQuiet, "Refreshing access token...")
	resp, err := a.exchange.RefreshAccessToken(ctx, a.auth, token)
	if err != nil {
		progress.Fail("Refresh failed")
		return cli.Translate(err)
	}
	if err := a.session.HandleAuthSuccess(ctx, resp.AccessToken); err != nil {
		progress.Fail("Could not store the new token")
		return err
	}
	progress.Succeed("✓ Access token refreshed")
	logging.Debug("Auth", "Refreshed access token, rotated refresh token: %t", resp.RefreshToken != "")

	if user, err := a.session.RefreshIdentity(ctx); err == nil {
		authPrint("  Signed in as %s\n", describeUser(user.UserName, user.LoginEmail))
	}
	if printRefreshToken && resp.RefreshToken != "" {
		fmt.Fprintln(cmd.OutOrStdout(), resp.RefreshToken)
	}
	return nil
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter, err := whoamiOutput.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), authQuiet || whoamiOutput.OutputFormat != "table", "Fetching identity...")
	user, err := a.session.RefreshIdentity(ctx)
	progress.Stop()
	if err != nil {
		return cli.Translate(err)
	}

	record := &formatting.Record{Title: "EVERP identity", Data: user}
	record.Add("User ID", user.UserID).
		Add("Name", user.UserName).
		Add("Email", user.LoginEmail).
		Add("Role", user.UserRole).
		Add("Type", user.UserType)

	if token, err := a.session.AccessToken(); err == nil {
		if claims, err := oauth.InspectAccessToken(token.Value()); err == nil {
			record.Add("Expires", formatting.Timestamp(claims.ExpiresAt))
			if len(claims.Scopes) > 0 {
				record.Add("Scopes", strings.Join(claims.Scopes, " "))
			}
		}
	}
	return formatter.FormatRecord(record)
}

// isInteractive reports whether r is a terminal.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
