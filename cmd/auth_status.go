package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"everp/internal/cli"
	"everp/internal/gateway"
	"everp/internal/session"
	"everp/internal/tokenstore"
	"everp/pkg/logging"
)

var statusWatch bool

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show whether this machine has an EVERP session.

A stored token is verified with the gateway before it is reported as
authenticated. With --watch the command keeps running and prints every
change, e.g. a login or logout from another terminal. Watching needs
the file token store.

Examples:
  everp auth status
  everp --token-store file auth status --watch`,
	RunE: runAuthStatus,
}

func init() {
	authStatusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep running and print status changes")
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if statusWatch {
		return watchAuthStatus(cmd, a)
	}

	authPrintln("EVERP")
	authPrint("  Gateway:   %s\n", a.cfg.Gateway.BaseURL)
	authPrint("  Store:     %s\n", a.cfg.TokenStore.Backend)

	ctx, cancel := context.WithTimeout(cmd.Context(), DefaultStatusCheckTimeout)
	defer cancel()

	if a.session.CheckOnLaunch(ctx) != session.Authenticated {
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
		authPrint("             Run: everp auth login\n")
		return nil
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), authQuiet, "Verifying session...")
	user, err := a.session.RefreshIdentity(ctx)
	progress.Stop()

	switch {
	case gateway.IsUnauthorized(err):
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Token invalidated"))
		authPrint("             The gateway no longer accepts your token.\n")
		authPrint("             Run: everp auth login\n")
		return nil
	case err != nil:
		printAuthenticatedStatus(a, nil)
		authPrint("  Identity:  %s\n", text.FgRed.Sprint("unavailable"))
		if connErr := cli.ClassifyConnectionError(err, "the gateway"); connErr != nil {
			authPrint("             %s: %v\n", connErr.Type, err)
		}
		return nil
	}
	printAuthenticatedStatus(a, user)
	return nil
}

func printAuthenticatedStatus(a *app, user *gateway.UserInfo) {
	authPrint("  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	if user != nil {
		authPrint("  User:      %s\n", describeUser(user.UserName, user.LoginEmail))
		if user.UserRole != "" {
			authPrint("  Role:      %s\n", user.UserRole)
		}
	}
	if token, err := a.session.AccessToken(); err == nil {
		printTokenDetails(token)
	}
}

// watchAuthStatus prints one line per session change until interrupted.
func watchAuthStatus(cmd *cobra.Command, a *app) error {
	watcher, ok := a.store.(tokenstore.Watcher)
	if !ok {
		return fmt.Errorf("--watch needs the file token store, not %q (try --token-store file)", a.cfg.TokenStore.Backend)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	updates, unsubscribe := a.session.Subscribe(16)
	defer unsubscribe()

	printSnapshotLine(cmd, session.Snapshot{State: a.session.CheckOnLaunch(ctx)})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.session.WatchStore(ctx, watcher)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case snap := <-updates:
			logging.Debug("Auth", "Session changed to %s (generation %d)", snap.State, snap.Generation)
			printSnapshotLine(cmd, snap)
		}
	}
}

func printSnapshotLine(cmd *cobra.Command, snap session.Snapshot) {
	state := snap.State.String()
	switch snap.State {
	case session.Authenticated:
		state = text.FgGreen.Sprint(state)
	case session.Unauthenticated:
		state = text.FgYellow.Sprint(state)
	}

	line := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), state)
	if snap.HasIdentity() {
		line += "  " + describeUser(snap.User.UserName, snap.User.LoginEmail)
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
