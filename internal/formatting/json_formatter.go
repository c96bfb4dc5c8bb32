package formatting

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) *JSONFormatter {
	return &JSONFormatter{options: options}
}

// FormatRecord writes the record's data as indented JSON.
func (f *JSONFormatter) FormatRecord(r *Record) error {
	b, err := json.MarshalIndent(r.machineValue(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	_, err = fmt.Fprintln(f.options.Output, string(b))
	return err
}
