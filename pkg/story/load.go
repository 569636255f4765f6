package story

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Load parses, normalizes and validates a story bundle. Unknown fields
// are rejected so authoring typos fail at load time instead of silently
// degrading at play time.
func Load(data []byte) (*Story, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("story file contains invalid JSON")
	}

	var s Story
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("strict unmarshaling failed: %w", err)
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
