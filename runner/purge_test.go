package runner_test

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"

	apperrors "github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/module/testutil"
	"github.com/kbukum/modkit/persist"
	"github.com/kbukum/modkit/runner"
	"github.com/kbukum/modkit/storage"
	"github.com/kbukum/modkit/storage/local"
)

func outputPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if strings.HasPrefix(p, "output/") {
			out = append(out, p)
		}
	}
	return out
}

func TestPurgeOldButKeepNewPersisted(t *testing.T) {
	e := newEnv()
	_, _, _, d := e.diamond()
	r := e.runner(t, []module.Module{d})
	ctx := context.Background()
	if _, err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	var want []string
	for _, m := range r.Queue() {
		want = append(want, m.PersistStrategy().AllOutput()...)
		want = append(want, m.MetaStrategy().AllOutput()...)
	}
	sort.Strings(want)

	e.mem.Put("output/a_0000000000000000.json", []byte("{}"))
	e.mem.Put("output/a_0000000000000000.meta", []byte("{}"))
	e.mem.Put("output/nested/stale.json", []byte("{}"))
	e.mem.Put("elsewhere/keep.txt", []byte("x"))

	if err := r.PurgeOldButKeepNewPersisted(ctx); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if got := outputPaths(e.mem.Paths()); !reflect.DeepEqual(got, want) {
		t.Errorf("output after purge = %v, want %v", got, want)
	}
	if _, ok := e.mem.Get("elsewhere/keep.txt"); !ok {
		t.Error("files outside the output root must survive")
	}
	if _, ok := e.mem.Get("history/d.hist"); !ok {
		t.Error("histories must survive")
	}
}

// The output directory may be configured absolute, dotted or with a trailing
// slash; purge must still keep every current artifact on the local backend.
func TestPurgeOldButKeepNewPersisted_RootSpellings(t *testing.T) {
	for _, root := range []string{"out", "./out", "/out", "out/"} {
		t.Run(root, func(t *testing.T) {
			ctx := context.Background()
			store, err := local.NewStorage(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			factory := persist.NewStorageFactory(store, root, persist.WithRetry(noRetry))
			rec := testutil.NewRecorder(factory)
			a := rec.Module("a", nil)
			b := rec.Module("b", []module.Module{a})
			r, err := runner.New([]module.Module{b},
				runner.WithHistoryStore(metadata.NewStorageHistoryStore(store, "history").WithRetry(noRetry)),
				runner.WithOutputStore(store, root),
				runner.WithLogger(logger.Nop()),
			)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := r.Run(ctx); err != nil {
				t.Fatal(err)
			}

			var want []string
			for _, m := range r.Queue() {
				for _, p := range append(m.PersistStrategy().AllOutput(), m.MetaStrategy().AllOutput()...) {
					want = append(want, persist.RelativeTo("", p))
				}
			}
			sort.Strings(want)
			if len(want) != 4 {
				t.Fatalf("expected 4 current artifacts, got %v", want)
			}

			for _, p := range []string{"out/a_0000000000000000.json", "out/nested/b_0000000000000000.meta"} {
				if err := storage.WriteBytes(ctx, store, p, []byte("{}")); err != nil {
					t.Fatal(err)
				}
			}

			if err := r.PurgeOldButKeepNewPersisted(ctx); err != nil {
				t.Fatalf("purge failed: %v", err)
			}

			files, err := store.List(ctx, "out")
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, f := range files {
				got = append(got, f.Path)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("after purge got %v, want %v", got, want)
			}
			if ok, _ := store.Exists(ctx, "history/b.hist"); !ok {
				t.Error("history outside the output dir was purged")
			}
		})
	}
}

func TestPurgeOldButKeepNewPersisted_VersionBump(t *testing.T) {
	e := newEnv()
	a := e.rec.Module("a", nil, testutil.Version("1"))
	r := e.runner(t, []module.Module{a})
	ctx := context.Background()
	if _, err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	old := outputPaths(e.mem.Paths())

	a2 := e.rec.Module("a", nil, testutil.Version("2"))
	r2 := e.runner(t, []module.Module{a2})
	if _, err := r2.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r2.PurgeOldButKeepNewPersisted(ctx); err != nil {
		t.Fatal(err)
	}

	for _, p := range old {
		if _, ok := e.mem.Get(p); ok {
			t.Errorf("stale output %s survived", p)
		}
	}
	if got := outputPaths(e.mem.Paths()); len(got) != 2 {
		t.Errorf("expected output and meta of the new version, got %v", got)
	}
}

func TestPurgeOldButKeepNewPersisted_RequiresOutputStore(t *testing.T) {
	e := newEnv()
	a := e.rec.Module("a", nil)
	r, err := runner.New([]module.Module{a}, runner.WithHistoryStore(e.history), runner.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.PurgeOldButKeepNewPersisted(context.Background()); !apperrors.IsCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestPurgePersisted_Idempotent(t *testing.T) {
	e := newEnv()
	_, _, _, d := e.diamond()
	r := e.runner(t, []module.Module{d})
	ctx := context.Background()
	if _, err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(outputPaths(e.mem.Paths())) != 8 {
		t.Fatalf("expected 8 persisted files, got %v", e.mem.Paths())
	}

	for i := 0; i < 2; i++ {
		if err := r.PurgePersisted(ctx); err != nil {
			t.Fatalf("purge %d failed: %v", i, err)
		}
		if got := outputPaths(e.mem.Paths()); len(got) != 0 {
			t.Errorf("purge %d left %v", i, got)
		}
	}

	// Purged modules are recomputed on the next run.
	e.rec.Reset()
	if _, err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if e.rec.Counts("a").Run != 1 {
		t.Error("expected a to be recomputed after purge")
	}
}

func TestPurgePersisted_StorageFailure(t *testing.T) {
	e := newEnv()
	a := e.rec.Module("a", nil)
	r := e.runner(t, []module.Module{a})
	e.mem.FailNext("delete", 1)

	if err := r.PurgePersisted(context.Background()); !apperrors.IsCode(err, apperrors.ErrCodeStorage) {
		t.Errorf("expected STORAGE_ERROR, got %v", err)
	}
}
