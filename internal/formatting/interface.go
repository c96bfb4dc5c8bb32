// Package formatting renders command results for the everp CLI in the
// output format the user selected.
//
// Every result is described once as a Record: an ordered list of labelled
// fields for human output plus the raw value for machine output. Table and
// plain formats render the fields, JSON and YAML marshal the value.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatPlain OutputFormat = "plain" // Column-aligned text, no borders
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat parses the value of an --output flag.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatPlain, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table, plain, json or yaml)", name)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	NoHeaders bool // Suppress the header row of table and plain output
	Output    io.Writer
}

// Field is one labelled value of a Record.
type Field struct {
	Key   string
	Value string
}

// Record is a single result to render.
type Record struct {
	// Title is printed above table output. Optional.
	Title string
	// Fields are rendered, in order, by the table and plain formatters.
	Fields []Field
	// Data is marshalled by the JSON and YAML formatters. When nil the
	// fields are marshalled as a key/value map instead.
	Data any
}

// Add appends a field and returns the record for chaining.
func (r *Record) Add(key, value string) *Record {
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
	return r
}

// AddOptional appends a field unless value is nil or empty.
func (r *Record) AddOptional(key string, value *string) *Record {
	if value == nil || *value == "" {
		return r
	}
	return r.Add(key, *value)
}

func (r *Record) machineValue() any {
	if r.Data != nil {
		return r.Data
	}
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// Formatter renders records.
type Formatter interface {
	FormatRecord(r *Record) error
}

// New creates the formatter for options.Format.
func New(options Options) (Formatter, error) {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	switch options.Format {
	case FormatTable, "":
		return NewTableFormatter(options), nil
	case FormatPlain:
		return NewPlainFormatter(options), nil
	case FormatJSON:
		return NewJSONFormatter(options), nil
	case FormatYAML:
		return NewYAMLFormatter(options), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", options.Format)
	}
}
