package formatting

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	pkgstrings "everp/pkg/strings"
)

// maxValueWidth is the widest value cell, in runes.
const maxValueWidth = 100

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{options: options}
}

// FormatRecord renders the record as a two-column FIELD/VALUE table.
func (f *TableFormatter) FormatRecord(r *Record) error {
	if len(r.Fields) == 0 {
		_, err := fmt.Fprint(f.options.Output, formatEmptyMessage("Nothing to show"))
		return err
	}

	if r.Title != "" {
		fmt.Fprintln(f.options.Output, text.Bold.Sprint(r.Title))
	}

	t := f.createTable()
	if !f.options.NoHeaders {
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("FIELD"),
			text.FgHiCyan.Sprint("VALUE"),
		})
	}
	for _, field := range r.Fields {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(field.Key), pkgstrings.Truncate(field.Value, maxValueWidth)})
	}
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Output)
	t.SetStyle(table.StyleRounded)
	return t
}

func formatEmptyMessage(message string) string {
	return fmt.Sprintf("%s\n", text.FgYellow.Sprint(message))
}
