// Package snapshot persists state values to durable storage so a search
// can be resumed from, or seeded by, the result of an earlier run.
//
// The on-disk layout is a single JSON document per state value. Writes use
// the temp file + rename pattern so a crash mid-write never leaves a
// corrupt snapshot behind. Values round-trip exactly for any
// JSON-representable state: flat numeric slices, nested exported structs.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
)

// NotFoundError is returned by Load when the snapshot file does not exist.
// Use errors.Is(err, &NotFoundError{}) to check for it.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return "snapshot not found: " + e.Path
	}
	return "snapshot not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Save serializes state to JSON and writes it atomically to path.
func Save(path string, state any) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// Load reads the snapshot at path and deserializes it into a value of
// type S. A missing file yields a NotFoundError; corrupt or mismatched
// data yields a decode error. Failures are not retried.
func Load[S any](path string) (S, error) {
	var state S

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return state, &NotFoundError{Path: path}
	} else if err != nil {
		return state, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return state, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	return state, nil
}
