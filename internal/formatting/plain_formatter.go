package formatting

import (
	"fmt"
	"io"
	"strings"
)

// columnPadding is the minimum space between plain output columns.
const columnPadding = 3

// PlainFormatter prints records as aligned FIELD/VALUE columns with no
// box-drawing characters, suitable for grep and awk.
type PlainFormatter struct {
	options Options
}

// NewPlainFormatter creates a new plain formatter
func NewPlainFormatter(options Options) *PlainFormatter {
	return &PlainFormatter{options: options}
}

// FormatRecord renders the record as two aligned columns.
func (f *PlainFormatter) FormatRecord(r *Record) error {
	rows := make([][]string, 0, len(r.Fields)+1)
	if !f.options.NoHeaders && len(r.Fields) > 0 {
		rows = append(rows, []string{"FIELD", "VALUE"})
	}
	for _, field := range r.Fields {
		rows = append(rows, []string{strings.ToLower(strings.ReplaceAll(field.Key, " ", "_")), field.Value})
	}
	return writeColumns(f.options.Output, rows)
}

// writeColumns left-aligns every column but the last, which is written
// as is so lines carry no trailing spaces.
func writeColumns(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len(cell))
		}
	}

	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				continue
			}
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-len(cell)+columnPadding))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
