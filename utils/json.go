package utils

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSONFile writes input as indented JSON to path, replacing any existing file.
func WriteJSONFile[T any](path string, input T) error {
	jsonData, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(jsonData, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
