package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/modkit/storage"
)

// Memory is a thread-safe in-memory storage.Storage.
type Memory struct {
	mu       sync.RWMutex
	files    map[string]memFile
	failures map[string]int
	calls    map[string]int
}

type memFile struct {
	data     []byte
	modified time.Time
}

var _ storage.Storage = (*Memory)(nil)

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string]memFile),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

// FailNext makes the next n calls of op ("upload", "download", "delete",
// "exists", "list") fail with a transient error.
func (m *Memory) FailNext(op string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = n
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Paths returns all stored paths, sorted.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Put stores data directly, bypassing failure injection.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(path)] = memFile{data: append([]byte(nil), data...), modified: time.Now()}
}

// Get returns the stored data and whether it exists.
func (m *Memory) Get(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[clean(path)]
	return f.data, ok
}

// enter records a call and returns an injected error if one is pending.
// Callers hold m.mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if m.failures[op] > 0 {
		m.failures[op]--
		return fmt.Errorf("memory storage: injected %s failure", op)
	}
	return nil
}

func (m *Memory) Upload(ctx context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("upload"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.files[clean(path)] = memFile{data: data, modified: time.Now()}
	return nil
}

func (m *Memory) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("download"); err != nil {
		return nil, err
	}
	f, ok := m.files[clean(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("delete"); err != nil {
		return err
	}
	delete(m.files, clean(path))
	return nil
}

func (m *Memory) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("exists"); err != nil {
		return false, err
	}
	_, ok := m.files[clean(path)]
	return ok, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("list"); err != nil {
		return nil, err
	}
	dir := clean(prefix)
	if dir != "" {
		dir += "/"
	}
	var files []storage.FileInfo
	for p, f := range m.files {
		if strings.HasPrefix(p, dir) {
			files = append(files, storage.FileInfo{Path: p, Size: int64(len(f.data)), LastModified: f.modified})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func clean(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
