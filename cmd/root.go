package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"everp/internal/cli"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login or a token request was rejected.
	ExitCodeAuthFailed = 3
)

// Global flags.
var (
	configPath     string
	logLevel       string
	tokenStoreName string
)

// rootCmd represents the base command for the everp application.
var rootCmd = &cobra.Command{
	Use:   "everp",
	Short: "Sign in to the EVERP ERP gateway",
	Long: `everp signs you in to the EVERP ERP system with OAuth2 and PKCE,
keeps the access token in your OS keychain, and shows who you are
signed in as.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code that reflects the
// kind of failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "everp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	err = cli.Translate(err)

	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Configuration directory (default $XDG_CONFIG_HOME/everp)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (env: EVERP_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&tokenStoreName, "token-store", "", "Token store: keyring, file or memory (env: EVERP_TOKEN_STORE)")

	rootCmd.AddCommand(newVersionCmd())
}
