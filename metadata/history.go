package metadata

import (
	"encoding/json"
	"fmt"
)

// History is a module's metadata snapshots, newest first.
type History struct {
	Entries []Metadata `json:"history"`
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{Entries: []Metadata{}}
}

// Update prepends m and drops the oldest entries beyond maxSize.
// A maxSize below one keeps only m.
func (h *History) Update(m Metadata, maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	entries := make([]Metadata, 0, min(len(h.Entries)+1, maxSize))
	entries = append(entries, m)
	for _, e := range h.Entries {
		if len(entries) == maxSize {
			break
		}
		entries = append(entries, e)
	}
	h.Entries = entries
}

// Len returns the number of entries.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Entries)
}

// Latest returns the newest entry, if any.
func (h *History) Latest() (Metadata, bool) {
	if h.Len() == 0 {
		return Metadata{}, false
	}
	return h.Entries[0], true
}

// Encode returns the JSON form of h.
func (h *History) Encode() ([]byte, error) {
	if h.Entries == nil {
		return json.Marshal(NewHistory())
	}
	return json.Marshal(h)
}

// DecodeHistory parses the JSON form produced by Encode.
func DecodeHistory(data []byte) (*History, error) {
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("metadata: decode history: %w", err)
	}
	if h.Entries == nil {
		return nil, fmt.Errorf("metadata: decode history: missing history field")
	}
	return &h, nil
}
