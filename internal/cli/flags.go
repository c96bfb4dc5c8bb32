package cli

import (
	"io"

	"github.com/spf13/cobra"

	"everp/internal/formatting"
)

// OutputFlags holds the output flag values of commands that print records.
type OutputFlags struct {
	// OutputFormat is one of table, plain, json or yaml.
	OutputFormat string
	// NoHeaders suppresses the header row in table and plain output.
	NoHeaders bool
}

// RegisterOutputFlags registers --output/-o and --no-headers on cmd.
func RegisterOutputFlags(cmd *cobra.Command, flags *OutputFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", string(formatting.FormatTable), "Output format (table, plain, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
}

// Formatter builds the formatter the flags select, writing to w.
func (f *OutputFlags) Formatter(w io.Writer) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return nil, err
	}
	return formatting.New(formatting.Options{Format: format, NoHeaders: f.NoHeaders, Output: w})
}
