package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadFieldMappings reads an override-rule file: a JSON object mapping a rule
// name to {"value": ..., "patterns": [...]}. A missing file is not an error;
// users without a mapping file simply get none.
func LoadFieldMappings(path string) (map[string]FieldMapping, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading field mappings %q: %w", path, err)
	}

	var mappings map[string]FieldMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("parsing field mappings %q: %w", path, err)
	}

	for name, mapping := range mappings {
		if len(mapping.Patterns) == 0 {
			return nil, fmt.Errorf("field mapping %q has no patterns", name)
		}
	}

	return mappings, nil
}

// ExportJSON renders the snapshot as indented JSON for backup or review.
func (d *PersonalData) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ImportJSON parses a previously exported snapshot.
func ImportJSON(data []byte) (*PersonalData, error) {
	var d PersonalData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &d, nil
}
