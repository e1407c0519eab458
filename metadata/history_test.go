package metadata

import (
	"testing"
)

func entry(urn string) Metadata {
	return Metadata{FQN: "app.Sales", URN: urn}
}

func TestHistory_UpdateNewestFirstBounded(t *testing.T) {
	h := NewHistory()
	for _, urn := range []string{"u1", "u2", "u3", "u4"} {
		h.Update(entry(urn), 3)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	want := []string{"u4", "u3", "u2"}
	for i, e := range h.Entries {
		if e.URN != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, e.URN, want[i])
		}
	}
}

func TestHistory_UpdateNonPositiveSize(t *testing.T) {
	h := NewHistory()
	h.Update(entry("u1"), 5)
	h.Update(entry("u2"), 0)
	if h.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", h.Len())
	}
	if latest, _ := h.Latest(); latest.URN != "u2" {
		t.Errorf("expected newest entry kept, got %s", latest.URN)
	}
}

func TestHistory_EncodeDecode(t *testing.T) {
	h := NewHistory()
	h.Update(Metadata{FQN: "a", URN: "mod:a@1", User: map[string]any{"rows": 10.0}}, 5)

	data, err := h.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHistory(data)
	if err != nil {
		t.Fatal(err)
	}
	latest, ok := got.Latest()
	if !ok || latest.URN != "mod:a@1" || latest.User["rows"] != 10.0 {
		t.Errorf("unexpected decoded history %+v", got)
	}
}

func TestDecodeHistory_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json"},
		{"wrong shape", `{"foo": 1}`},
		{"truncated", `{"history": [`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeHistory([]byte(tc.data)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestHistory_EmptyEncodesArray(t *testing.T) {
	data, err := (&History{}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"history":[]}` {
		t.Errorf("unexpected encoding %s", data)
	}
}
