// Package logging configures log/slog for the everp CLI.
//
// Output is a text handler on stderr whose ReplaceAttr drops the value of
// credential-bearing keys (access_token, refresh_token, id_token, code,
// code_verifier, state, token, authorization). Components receive a
// *slog.Logger and log with key/value pairs; command code uses the
// subsystem helpers.
//
// # Usage
//
//	logger := logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	session.NewManager(store, fetcher, session.WithLogger(logging.For("Session")))
//
//	logging.Info("Auth", "Logged in as %s", user.LoginEmail)
//	logging.Error("Auth", err, "Login failed")
//
// Levels are parsed with ParseLevel from --log-level or EVERP_LOG_LEVEL.
package logging
