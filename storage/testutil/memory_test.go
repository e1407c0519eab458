package testutil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/modkit/storage"
)

func TestMemory_FailNext(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailNext("upload", 1)

	if err := m.Upload(ctx, "a", strings.NewReader("x")); err == nil {
		t.Fatal("expected injected failure")
	}
	if err := m.Upload(ctx, "a", strings.NewReader("x")); err != nil {
		t.Fatalf("expected second upload to succeed, got %v", err)
	}
	if m.Calls("upload") != 2 {
		t.Errorf("expected 2 calls, got %d", m.Calls("upload"))
	}
}

func TestMemory_ListAndNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("out/b", []byte("1"))
	m.Put("out/a", []byte("2"))
	m.Put("outer/c", []byte("3"))

	files, err := m.List(ctx, "out")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Path != "out/a" || files[1].Path != "out/b" {
		t.Errorf("unexpected listing %+v", files)
	}

	if _, err := m.Download(ctx, "out/zzz"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
