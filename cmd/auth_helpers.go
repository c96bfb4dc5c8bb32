package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"everp/internal/oauth"
)

// Auth timeout constants.
const (
	// DefaultLoginTimeout bounds a whole interactive login.
	DefaultLoginTimeout = 5 * time.Minute
	// DefaultStatusCheckTimeout is the timeout for verifying a session with the gateway.
	DefaultStatusCheckTimeout = 10 * time.Second
)

// describeUser formats a name and email as "Name <email>", omitting
// whichever part is empty.
func describeUser(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	case email != "":
		return email
	default:
		return "unknown user"
	}
}

// printTokenDetails prints what the access token says about itself. The
// claims are unverified and only shown, never trusted.
func printTokenDetails(token oauth.RedactedToken) {
	claims, err := oauth.InspectAccessToken(token.Value())
	if err != nil {
		authPrint("  Token:     %s\n", text.FgHiBlack.Sprint("opaque"))
		return
	}
	if !claims.ExpiresAt.IsZero() {
		authPrint("  Expires:   %s\n", formatExpiryWithDirection(claims.ExpiresAt))
	}
	if len(claims.Scopes) > 0 {
		authPrint("  Scopes:    %s\n", strings.Join(claims.Scopes, " "))
	}
	if claims.Issuer != "" {
		authPrint("  Issuer:    %s\n", claims.Issuer)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		return plural(int(d.Minutes()), "minute")
	}
	if d < 24*time.Hour {
		return plural(int(d.Hours()), "hour")
	}
	return plural(int(d.Hours()/24), "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}
