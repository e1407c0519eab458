package module

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/modkit/errors"
)

// Manifest names the root modules of a run. Manifests compose through
// Includes.
//
//	name: nightly
//	includes: [sales]
//	modules:
//	  - app.Forecast
type Manifest struct {
	Name     string   `yaml:"name"`
	Includes []string `yaml:"includes,omitempty"`
	Modules  []string `yaml:"modules"`
}

// ManifestLoader loads manifests by name.
type ManifestLoader interface {
	Load(name string) (*Manifest, error)
}

// FileManifestLoader loads manifests from YAML files on disk.
type FileManifestLoader struct {
	dirs []string
}

// NewFileManifestLoader creates a loader that searches dirs for
// {name}.yaml and {name}.yml, then one level of subdirectories.
func NewFileManifestLoader(dirs ...string) ManifestLoader {
	return &FileManifestLoader{dirs: dirs}
}

func (l *FileManifestLoader) Load(name string) (*Manifest, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			if m, err := loadManifestFile(filepath.Join(dir, name+ext)); err == nil {
				return m, nil
			}
			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if m, err := loadManifestFile(match); err == nil {
					return m, nil
				}
			}
		}
	}
	return nil, errors.NotFound("manifest", name).WithDetail("dirs", l.dirs)
}

func loadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.InvalidInput("manifest", fmt.Sprintf("parsing %s", path)).WithCause(err)
	}
	return &m, nil
}

// LoadManifest loads a manifest from the first readable path.
func LoadManifest(name string, paths ...string) (*Manifest, error) {
	var lastErr error
	for _, path := range paths {
		m, err := loadManifestFile(path)
		if err == nil {
			return m, nil
		}
		lastErr = err
	}
	return nil, errors.NotFound("manifest", name).WithCause(lastErr)
}

// ResolveManifest returns the root modules of m, included manifests first,
// each module once. Unknown fqns are NOT_FOUND; include cycles INVALID_GRAPH.
func ResolveManifest(m *Manifest, registry *Registry, loader ManifestLoader) ([]Module, error) {
	r := &manifestResolver{
		registry: registry,
		loader:   loader,
		resolved: make(map[string]bool),
		seen:     make(map[string]bool),
	}
	if err := r.resolve(m); err != nil {
		return nil, err
	}
	return r.modules, nil
}

type manifestResolver struct {
	registry *Registry
	loader   ManifestLoader
	stack    []string
	resolved map[string]bool
	seen     map[string]bool
	modules  []Module
}

func (r *manifestResolver) resolve(m *Manifest) error {
	for i, name := range r.stack {
		if name == m.Name {
			return errors.CycleDetected(append(append([]string{}, r.stack[i:]...), m.Name))
		}
	}
	r.stack = append(r.stack, m.Name)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	for _, include := range m.Includes {
		if r.resolved[include] {
			continue
		}
		if r.loader == nil {
			return errors.NotFound("manifest", include)
		}
		sub, err := r.loader.Load(include)
		if err != nil {
			return err
		}
		if err := r.resolve(sub); err != nil {
			return err
		}
	}

	for _, fqn := range m.Modules {
		if r.seen[fqn] {
			continue
		}
		mod, ok := r.registry.Get(fqn)
		if !ok {
			return errors.NotFound("module", fqn).WithDetail("manifest", m.Name)
		}
		r.seen[fqn] = true
		r.modules = append(r.modules, mod)
	}

	r.resolved[m.Name] = true
	return nil
}
