package metadata

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is the snapshot recorded for one module in one run.
type Metadata struct {
	FQN              string         `json:"fqn"`
	URN              string         `json:"urn"`
	RunID            string         `json:"run_id,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	Inputs           []string       `json:"inputs,omitempty"`
	DurationMs       int64          `json:"duration_ms"`
	Persisted        bool           `json:"persisted"`
	FrameworkVersion string         `json:"framework_version,omitempty"`
	User             map[string]any `json:"user,omitempty"`
}

// Encode returns the JSON form of m.
func (m *Metadata) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses the JSON form produced by Encode.
func Decode(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: decode: %w", err)
	}
	return &m, nil
}
