package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/chzyer/readline"
)

const pastePrompt = "Redirect URL> "

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// PasteSurface reads the redirect URL from the terminal. It serves redirect
// URIs with a custom scheme, which the browser cannot hand to a CLI.
type PasteSurface struct {
	opts      options
	newReader func() (lineReader, error)
}

// NewPasteSurface creates a paste surface.
func NewPasteSurface(opts ...Option) *PasteSurface {
	s := &PasteSurface{opts: newOptions(opts)}
	s.newReader = s.readlineReader
	return s
}

func (s *PasteSurface) readlineReader() (lineReader, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          pastePrompt,
		Stdin:           s.opts.in,
		Stdout:          s.opts.out,
		Stderr:          s.opts.out,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
}

// Load opens authURL and reads pasted URLs until the policy cancels one.
// Lines that are not URLs, or that the policy allows, are reported and the
// prompt repeats.
func (s *PasteSurface) Load(ctx context.Context, authURL string, policy NavigationPolicy) error {
	launch(s.opts, authURL)
	fmt.Fprintln(s.opts.out, "After signing in, the browser is sent to an address it cannot open.")
	fmt.Fprintln(s.opts.out, "Copy that address from the location bar and paste it below.")

	rl, err := s.newReader()
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = rl.Close()
		case <-stop:
		}
	}()
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
			return ErrClosed
		case err != nil:
			return fmt.Errorf("failed to read redirect URL: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		u, err := url.Parse(input)
		if err != nil || u.Scheme == "" {
			fmt.Fprintln(s.opts.out, "That is not a URL. Paste the full address, including the scheme.")
			continue
		}

		if policy(u) == Cancel {
			return nil
		}
		s.opts.logger.Debug("Pasted URL is not the redirect", "scheme", u.Scheme, "host", u.Host)
		fmt.Fprintln(s.opts.out, "That address is not the sign-in redirect. Try again.")
	}
}
