package module_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/module/testutil"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fqns(mods []module.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.FQN()
	}
	return out
}

func newRegistry(t *testing.T, names ...string) *module.Registry {
	t.Helper()
	rec := testutil.NewRecorder(nil)
	reg := module.NewRegistry()
	for _, n := range names {
		if err := reg.Register(rec.Module(n, nil)); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestLoadManifest_FromFile(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "nightly.yaml", `
name: nightly
modules:
  - app.Sales
  - app.Forecast
`)
	m, err := module.LoadManifest("nightly", filepath.Join(t.TempDir(), "missing.yaml"), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "nightly" || len(m.Modules) != 2 {
		t.Errorf("unexpected manifest %+v", m)
	}
}

func TestLoadManifest_NotFound(t *testing.T) {
	_, err := module.LoadManifest("x", filepath.Join(t.TempDir(), "missing.yaml"))
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestFileManifestLoader_Subdirectory(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "team/sales.yml", "name: sales\nmodules: [app.Sales]\n")

	m, err := module.NewFileManifestLoader(dir).Load("sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "sales" {
		t.Errorf("expected 'sales', got %q", m.Name)
	}
}

func TestFileManifestLoader_NotFound(t *testing.T) {
	_, err := module.NewFileManifestLoader(t.TempDir()).Load("nonexistent")
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveManifest_IncludesDiamond(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "base.yaml", "name: base\nmodules: [app.Calendar]\n")
	writeManifest(t, dir, "sales.yaml", "name: sales\nincludes: [base]\nmodules: [app.Sales]\n")
	writeManifest(t, dir, "stock.yaml", "name: stock\nincludes: [base]\nmodules: [app.Stock, app.Sales]\n")

	reg := newRegistry(t, "app.Calendar", "app.Sales", "app.Stock", "app.Forecast")
	root := &module.Manifest{
		Name:     "nightly",
		Includes: []string{"sales", "stock"},
		Modules:  []string{"app.Forecast"},
	}

	mods, err := module.ResolveManifest(root, reg, module.NewFileManifestLoader(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"app.Calendar", "app.Sales", "app.Stock", "app.Forecast"}
	if got := fqns(mods); !reflect.DeepEqual(got, want) {
		t.Errorf("resolved %v, want %v", got, want)
	}
}

func TestResolveManifest_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.yaml", "name: a\nincludes: [b]\n")
	writeManifest(t, dir, "b.yaml", "name: b\nincludes: [a]\n")

	loader := module.NewFileManifestLoader(dir)
	a, err := loader.Load("a")
	if err != nil {
		t.Fatal(err)
	}
	_, err = module.ResolveManifest(a, module.NewRegistry(), loader)
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidGraph) {
		t.Errorf("expected INVALID_GRAPH, got %v", err)
	}
}

func TestResolveManifest_UnknownModule(t *testing.T) {
	m := &module.Manifest{Name: "x", Modules: []string{"app.Missing"}}
	_, err := module.ResolveManifest(m, newRegistry(t), nil)
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	rec := testutil.NewRecorder(nil)
	a := rec.Module("a", nil)
	reg := module.NewRegistry()

	if err := reg.Register(a, rec.Module("b", nil)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(a); err != nil {
		t.Errorf("re-registering the same module should succeed, got %v", err)
	}
	if err := reg.Register(rec.Module("a", nil)); !apperrors.IsCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for duplicate fqn, got %v", err)
	}
	if got, ok := reg.Get("a"); !ok || got != module.Module(a) {
		t.Error("expected to get a back")
	}
	if !reflect.DeepEqual(reg.List(), []string{"a", "b"}) {
		t.Errorf("unexpected list %v", reg.List())
	}
}
