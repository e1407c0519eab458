package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit := Version, GitCommit
	return func() {
		Version = origVersion
		GitCommit = origCommit
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"
	GitCommit = "abc1234def"

	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected version 1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
}

func TestString(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.0.0"
	GitCommit = "fedcba9"

	s := String()
	if !strings.HasPrefix(s, "2.0.0-fedcba9") {
		t.Errorf("unexpected version string %q", s)
	}
}

func TestString_NotEmpty(t *testing.T) {
	if String() == "" {
		t.Error("expected a non-empty version string")
	}
}
