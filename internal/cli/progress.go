package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner while a slow operation runs. The spinner only
// animates on a terminal; the final message is always written unless quiet.
type Progress struct {
	spinner *spinner.Spinner
	out     io.Writer
	quiet   bool
}

// StartProgress starts a spinner with message on w.
func StartProgress(w io.Writer, quiet bool, message string) *Progress {
	p := &Progress{out: w, quiet: quiet}
	if quiet {
		return p
	}
	p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	p.spinner.Suffix = " " + message
	p.spinner.Start()
	return p
}

// Succeed stops the spinner and prints message in green.
func (p *Progress) Succeed(message string) {
	p.finish(text.FgGreen.Sprint(message))
}

// Fail stops the spinner and prints message in red.
func (p *Progress) Fail(message string) {
	p.finish(text.FgRed.Sprint(message))
}

// Stop stops the spinner without printing anything.
func (p *Progress) Stop() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

func (p *Progress) finish(line string) {
	p.Stop()
	if !p.quiet {
		fmt.Fprintln(p.out, line)
	}
}
