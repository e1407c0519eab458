package module

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/modkit/dag"
	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/persist"
	"github.com/kbukum/modkit/version"
)

// DefaultHistorySize is the number of metadata snapshots kept per module.
const DefaultHistorySize = 5

// Inputs holds the results of a module's dependencies by fqn.
type Inputs map[string]Result

// Def declares a Generic module.
type Def struct {
	// Name is the fully qualified module name.
	Name string
	// Version changes the fingerprint, and so the output path, when the
	// module's logic changes.
	Version string
	Deps    []Module

	// Run computes the result from the dependency results.
	Run func(ctx context.Context, in Inputs) (Result, error)
	// UserMeta derives user metadata from the result.
	UserMeta func(ctx context.Context, r Result) (map[string]any, error)
	// MetaForcesAction marks UserMeta as evaluating the result, which
	// settles pending post-actions like a persist does.
	MetaForcesAction bool
	// PostAction runs exactly once per run, after the result was evaluated.
	PostAction func(ctx context.Context, r Result) error
	// ForceAction evaluates the result when nothing else did.
	ForceAction func(ctx context.Context, r Result) error
	Publish     func(ctx context.Context, r Result) error

	// Ephemeral modules are recomputed every run and never persisted.
	Ephemeral   bool
	HistorySize int
	// Codec encodes the persisted result. Defaults to JSON decoded into any.
	Codec persist.Codec
}

// Generic is a Module built from a Def.
type Generic struct {
	def     Def
	factory persist.Factory

	identOnce   sync.Once
	fingerprint string
	urn         URN

	strategyOnce sync.Once
	output       persist.Strategy
	meta         persist.Strategy

	ancestorsOnce sync.Once
	ancestors     *dag.Visitor[Module]
	ancestorsErr  error

	result        Result
	fromPersisted bool
	duration      time.Duration
	metadata      *metadata.Metadata
}

var (
	_ Module   = (*Generic)(nil)
	_ Ancestry = (*Generic)(nil)
)

// NewGeneric creates a module from def. A nil factory means nothing is
// ever persisted.
func NewGeneric(def Def, factory persist.Factory) (*Generic, error) {
	if def.Name == "" {
		return nil, errors.MissingField("name")
	}
	if def.Run == nil {
		return nil, errors.MissingField("run")
	}
	for i, d := range def.Deps {
		if dag.IsNil(d) {
			return nil, errors.InvalidInput("deps", "nil dependency of "+def.Name).WithDetail("index", i)
		}
	}
	if factory == nil || def.Ephemeral {
		factory = persist.NoopFactory
	}
	if def.Codec == nil {
		def.Codec = persist.JSON[any]("json")
	}
	return &Generic{def: def, factory: factory}, nil
}

// MustGeneric is NewGeneric that panics on error, for static module tables.
func MustGeneric(def Def, factory persist.Factory) *Generic {
	g, err := NewGeneric(def, factory)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Generic) FQN() string { return g.def.Name }

func (g *Generic) ClassKey() ClassKey { return ClassKey(g.def.Name) }

func (g *Generic) URN() URN {
	g.identify()
	return g.urn
}

// Fingerprint returns the version hash used in the URN and output paths.
func (g *Generic) Fingerprint() string {
	g.identify()
	return g.fingerprint
}

func (g *Generic) identify() {
	g.identOnce.Do(func() {
		g.fingerprint = Fingerprint(g.def.Name, g.def.Version, g.def.Deps)
		g.urn = NewURN(g.def.Name, g.fingerprint)
	})
}

func (g *Generic) Dependencies() []Module { return g.def.Deps }

// Ephemeral reports whether the module skips persistence.
func (g *Generic) Ephemeral() bool { return g.def.Ephemeral }

func (g *Generic) strategies() {
	g.strategyOnce.Do(func() {
		fp := g.Fingerprint()
		g.output = g.factory.Strategy(g.def.Name, fp, g.def.Codec)
		g.meta = g.factory.Strategy(g.def.Name, fp, persist.JSON[metadata.Metadata]("meta"))
	})
}

func (g *Generic) PersistStrategy() persist.Strategy {
	g.strategies()
	return g.output
}

func (g *Generic) MetaStrategy() persist.Strategy {
	g.strategies()
	return g.meta
}

// Ancestors returns the visitor over g and its ancestors, built once.
func (g *Generic) Ancestors() (*dag.Visitor[Module], error) {
	g.ancestorsOnce.Do(func() {
		g.ancestors, g.ancestorsErr = dag.NewVisitor([]Module{g})
	})
	return g.ancestors, g.ancestorsErr
}

func (g *Generic) Compute(ctx context.Context, tx *Tx) (Result, error) {
	key := g.ClassKey()
	if r, ok := tx.Known[key]; ok {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := make(Inputs, len(g.def.Deps))
	for _, d := range g.def.Deps {
		r, err := d.Compute(ctx, tx)
		if err != nil {
			return nil, err
		}
		in[d.FQN()] = r
	}

	r, err := g.computeOrRead(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	g.result = r
	tx.Known[key] = r
	return r, nil
}

func (g *Generic) computeOrRead(ctx context.Context, tx *Tx, in Inputs) (Result, error) {
	g.fromPersisted = false
	start := time.Now()

	if !g.def.Ephemeral {
		persisted, err := g.PersistStrategy().IsPersisted(ctx)
		if err != nil {
			return nil, err
		}
		if persisted {
			r, err := g.PersistStrategy().Read(ctx)
			if err != nil {
				return nil, err
			}
			g.fromPersisted = true
			g.duration = time.Since(start)
			return r, nil
		}
	}

	r, err := g.def.Run(ctx, in)
	if err != nil {
		return nil, errors.ModuleFailed(g.def.Name, "compute", err)
	}
	g.duration = time.Since(start)

	if g.def.Ephemeral {
		return r, nil
	}
	if err := g.PersistStrategy().Write(ctx, r); err != nil {
		return nil, err
	}
	// Writing evaluated the result; settle this module and its ancestors.
	g.result = r
	if err := RunPostActionCascade(ctx, g, tx); err != nil {
		return nil, err
	}
	return r, nil
}

func (g *Generic) CalculateUserMeta(ctx context.Context, tx *Tx) error {
	r, ok := tx.Known[g.ClassKey()]
	if !ok {
		return errors.Internal("metadata requested before compute for "+g.def.Name, nil)
	}

	if !g.def.Ephemeral {
		persisted, err := g.MetaStrategy().IsPersisted(ctx)
		if err != nil {
			return err
		}
		if persisted {
			v, err := g.MetaStrategy().Read(ctx)
			if err != nil {
				return err
			}
			m, ok := v.(metadata.Metadata)
			if !ok {
				return errors.Internal("unexpected persisted metadata type for "+g.def.Name, nil)
			}
			g.metadata = &m
			return nil
		}
	}

	inputs := make([]string, len(g.def.Deps))
	for i, d := range g.def.Deps {
		inputs[i] = string(d.URN())
	}
	m := &metadata.Metadata{
		FQN:              g.def.Name,
		URN:              string(g.URN()),
		RunID:            tx.RunID,
		Timestamp:        time.Now().UTC(),
		Inputs:           inputs,
		DurationMs:       g.duration.Milliseconds(),
		Persisted:        g.fromPersisted,
		FrameworkVersion: version.String(),
	}

	if g.def.UserMeta != nil {
		user, err := g.def.UserMeta(ctx, r)
		if err != nil {
			return errors.ModuleFailed(g.def.Name, "user_meta", err)
		}
		m.User = user
		if g.def.MetaForcesAction {
			if err := RunPostActionCascade(ctx, g, tx); err != nil {
				return err
			}
		}
	}
	g.metadata = m
	return nil
}

func (g *Generic) ForcePostAction(ctx context.Context, tx *Tx) error {
	if !tx.NeedPost.Has(g) {
		return nil
	}
	if g.def.ForceAction != nil {
		if err := g.def.ForceAction(ctx, g.result); err != nil {
			return errors.ModuleFailed(g.def.Name, "force_action", err)
		}
	}
	return RunPostActionCascade(ctx, g, tx)
}

func (g *Generic) PostAction(ctx context.Context) error {
	if g.def.PostAction == nil {
		return nil
	}
	return g.def.PostAction(ctx, g.result)
}

func (g *Generic) PersistMeta(ctx context.Context) (bool, error) {
	if g.metadata == nil {
		return false, errors.Internal("metadata not calculated for "+g.def.Name, nil)
	}
	if g.def.Ephemeral {
		return false, nil
	}
	persisted, err := g.MetaStrategy().IsPersisted(ctx)
	if err != nil {
		return false, err
	}
	if persisted {
		return true, nil
	}
	if err := g.MetaStrategy().Write(ctx, g.metadata); err != nil {
		return false, err
	}
	return false, nil
}

func (g *Generic) Result() Result { return g.result }

func (g *Generic) Metadata() *metadata.Metadata { return g.metadata }

func (g *Generic) MetadataHistorySize() int {
	if g.def.HistorySize > 0 {
		return g.def.HistorySize
	}
	return DefaultHistorySize
}

func (g *Generic) Publish(ctx context.Context) error {
	if g.def.Publish == nil {
		return nil
	}
	if err := g.def.Publish(ctx, g.result); err != nil {
		return errors.ModuleFailed(g.def.Name, "publish", err)
	}
	return nil
}
