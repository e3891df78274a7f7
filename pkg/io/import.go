package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes a layout from r and validates its socket references.
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - The layout has no chunks
//   - A link, frontier entry, dead end or selection references an unknown
//     chunk or socket
func ReadJSON(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return &l, nil
}

// UnmarshalLayout decodes and validates a layout produced by [MarshalLayout].
func UnmarshalLayout(data []byte) (*Layout, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads a layout from a JSON file.
// This is a convenience wrapper around [ReadJSON] for file-based input.
func ImportJSON(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
