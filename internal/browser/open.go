package browser

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens rawURL in the default web browser. It tries open-golang
// first and falls back to platform commands.
func OpenURL(rawURL string) error {
	err := open.Run(rawURL)
	if err == nil {
		return nil
	}
	slog.Debug("open-golang failed, trying platform commands", "error", err)

	return openPlatformSpecific(rawURL)
}

func openPlatformSpecific(rawURL string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	case "linux", "freebsd", "openbsd":
		for _, candidate := range []string{"xdg-open", "x-www-browser", "www-browser", "sensible-browser"} {
			if _, err := exec.LookPath(candidate); err == nil {
				cmd = exec.Command(candidate, rawURL)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no browser launcher found")
		}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	// The browser keeps running; only the launch is awaited.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// launch opens authURL and always tells the user where to go, since the
// browser may not have opened or may have opened on another screen.
func launch(o options, authURL string) {
	if err := o.opener(authURL); err != nil {
		o.logger.Debug("Could not open browser", "error", err)
		fmt.Fprintf(o.out, "Could not open a browser. Visit this URL to sign in:\n\n  %s\n\n", authURL)
		return
	}
	fmt.Fprintf(o.out, "Your browser has been opened. If it did not open, visit:\n\n  %s\n\n", authURL)
}
