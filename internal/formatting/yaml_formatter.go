package formatting

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) *YAMLFormatter {
	return &YAMLFormatter{options: options}
}

// FormatRecord writes the record's data as YAML.
func (f *YAMLFormatter) FormatRecord(r *Record) error {
	// Go through JSON first so YAML keys match the JSON field names.
	raw, err := json.Marshal(r.machineValue())
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	yamlBytes, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = f.options.Output.Write(yamlBytes)
	return err
}
