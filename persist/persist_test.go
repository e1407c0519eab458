package persist

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/resilience"
	"github.com/kbukum/modkit/storage/testutil"
)

type row struct {
	Region string `json:"region"`
	Total  int    `json:"total"`
}

func newFactory(mem *testutil.Memory) *StorageFactory {
	return NewStorageFactory(mem, "./out", WithRetry(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}))
}

func TestFile_WriteReadTyped(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	s := newFactory(mem).Strategy("app.Sales", "00ff", JSON[[]row]("json"))

	if got := s.AllOutput(); !reflect.DeepEqual(got, []string{"out/app.Sales_00ff.json"}) {
		t.Fatalf("unexpected output paths %v", got)
	}

	ok, err := s.IsPersisted(ctx)
	if err != nil || ok {
		t.Fatalf("expected not persisted, got %v, %v", ok, err)
	}

	want := []row{{"emea", 3}, {"apac", 4}}
	if err := s.Write(ctx, want); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsPersisted(ctx); !ok {
		t.Fatal("expected persisted after write")
	}

	got, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("read %#v, want %#v", got, want)
	}
}

func TestFile_ReadMissing(t *testing.T) {
	s := newFactory(testutil.NewMemory()).Strategy("a", "1", JSON[any](""))
	if _, err := s.Read(context.Background()); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestFile_ReadUndecodable(t *testing.T) {
	mem := testutil.NewMemory()
	mem.Put("out/a_1.json", []byte("nope"))
	s := newFactory(mem).Strategy("a", "1", JSON[any](""))
	if _, err := s.Read(context.Background()); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestFile_WriteRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	s := newFactory(mem).Strategy("a", "1", JSON[any](""))

	mem.FailNext("upload", 2)
	if err := s.Write(ctx, 1); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}

	mem.FailNext("upload", 5)
	if err := s.Write(ctx, 1); !errors.IsCode(err, errors.ErrCodeStorage) {
		t.Errorf("expected STORAGE_ERROR, got %v", err)
	}
}

func TestFile_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	s := newFactory(mem).Strategy("a", "1", JSON[any](""))
	_ = s.Write(ctx, map[string]int{"n": 1})

	for i := 0; i < 2; i++ {
		if err := s.Remove(ctx); err != nil {
			t.Fatalf("remove #%d: %v", i+1, err)
		}
	}
	if len(mem.Paths()) != 0 {
		t.Errorf("expected no files left, got %v", mem.Paths())
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	s := NoopFactory.Strategy("a", "1", JSON[any](""))
	if err := s.Write(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsPersisted(ctx); ok {
		t.Error("noop should never be persisted")
	}
	if len(s.AllOutput()) != 0 {
		t.Error("noop should own no outputs")
	}
	if _, err := s.Read(ctx); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestPurgeDirectory(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	for _, p := range []string{"out/a_1.json", "out/a_0.json", "out/b_1.meta", "out/sub/old.json", "history/a.hist"} {
		mem.Put(p, []byte("x"))
	}

	n, err := PurgeDirectory(ctx, mem, "out", map[string]bool{"a_1.json": true, "b_1.meta": true})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	want := []string{"history/a.hist", "out/a_1.json", "out/b_1.meta"}
	if got := mem.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("remaining %v, want %v", got, want)
	}
}

func TestPurgeDirectory_RootSpellings(t *testing.T) {
	for _, root := range []string{"out", "./out", "/out", "out/"} {
		t.Run(root, func(t *testing.T) {
			ctx := context.Background()
			mem := testutil.NewMemory()
			s := NewStorageFactory(mem, root).Strategy("a", "01", JSON[any]("json"))
			if err := s.Write(ctx, map[string]int{"n": 1}); err != nil {
				t.Fatal(err)
			}
			mem.Put("out/a_00.json", []byte("x"))

			keep := make(map[string]bool)
			for _, p := range s.AllOutput() {
				keep[RelativeTo(root, p)] = true
			}
			n, err := PurgeDirectory(ctx, mem, root, keep)
			if err != nil {
				t.Fatal(err)
			}
			if n != 1 {
				t.Errorf("expected 1 deletion, got %d", n)
			}
			if got := mem.Paths(); !reflect.DeepEqual(got, []string{"out/a_01.json"}) {
				t.Errorf("remaining %v", got)
			}
		})
	}
}

func TestRelativeTo(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"out", "out/a.json", "a.json"},
		{"./out/", "out/a.json", "a.json"},
		{"out", "elsewhere/a.json", "elsewhere/a.json"},
		{"", "/a.json", "a.json"},
		{"/out", "/out/a.json", "a.json"},
		{"/out", "out/a.json", "a.json"},
		{"out", "/out/a.json", "a.json"},
		{"out/", "./out//a.json", "a.json"},
		{"/out", "/elsewhere/a.json", "elsewhere/a.json"},
		{"out", "outside/a.json", "outside/a.json"},
	}
	for _, tc := range tests {
		if got := RelativeTo(tc.root, tc.path); got != tc.want {
			t.Errorf("RelativeTo(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}
