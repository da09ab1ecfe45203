// Package source implements the data sources alerts are bulk-loaded from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// File reads alerts from a JSON file holding an array of alert objects
type File struct {
	path string
}

// NewFile creates a file source
func NewFile(path string) *File {
	return &File{path: path}
}

// Name implements store.Source
func (f *File) Name() string {
	return "file:" + f.path
}

// Records implements store.Source
func (f *File) Records(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse alert file: %w", err)
	}
	return records, nil
}
