package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/persist"
)

// Counts tallies the callbacks invoked on one module.
type Counts struct {
	Run         int
	UserMeta    int
	PostAction  int
	ForceAction int
	Publish     int
}

// Recorder creates modules that record every callback.
type Recorder struct {
	factory persist.Factory

	mu     sync.Mutex
	counts map[string]*Counts
	events []string
}

// NewRecorder creates a recorder whose modules persist through factory.
// A nil factory makes every module non-persisting.
func NewRecorder(factory persist.Factory) *Recorder {
	return &Recorder{factory: factory, counts: make(map[string]*Counts)}
}

// Option adjusts the Def of a recorded module.
type Option func(*module.Def)

// Ephemeral marks the module ephemeral.
func Ephemeral() Option { return func(d *module.Def) { d.Ephemeral = true } }

// Version sets the declared version.
func Version(v string) Option { return func(d *module.Def) { d.Version = v } }

// HistorySize sets the metadata history bound.
func HistorySize(n int) Option { return func(d *module.Def) { d.HistorySize = n } }

// MetaForcesAction makes the user metadata step settle post-actions.
func MetaForcesAction() Option { return func(d *module.Def) { d.MetaForcesAction = true } }

// WithRun replaces the run function. Counting still happens.
func WithRun(fn func(ctx context.Context, in module.Inputs) (module.Result, error)) Option {
	return func(d *module.Def) { d.Run = fn }
}

// FailPostAction makes the post-action return err.
func FailPostAction(err error) Option {
	return func(d *module.Def) {
		d.PostAction = func(context.Context, module.Result) error { return err }
	}
}

// Module creates a recorded Generic module. By default it returns
// {"module": name, "inputs": <number of dependencies>} and reports
// {"rows": 1} as user metadata.
func (r *Recorder) Module(name string, deps []module.Module, opts ...Option) *module.Generic {
	def := module.Def{
		Name: name,
		Deps: deps,
		Run: func(_ context.Context, in module.Inputs) (module.Result, error) {
			return map[string]any{"module": name, "inputs": len(in)}, nil
		},
		UserMeta: func(context.Context, module.Result) (map[string]any, error) {
			return map[string]any{"rows": 1}, nil
		},
	}
	for _, opt := range opts {
		opt(&def)
	}

	run, post := def.Run, def.PostAction
	def.Run = func(ctx context.Context, in module.Inputs) (module.Result, error) {
		r.record(name, "run", func(c *Counts) { c.Run++ })
		return run(ctx, in)
	}
	userMeta := def.UserMeta
	def.UserMeta = func(ctx context.Context, res module.Result) (map[string]any, error) {
		r.record(name, "user_meta", func(c *Counts) { c.UserMeta++ })
		return userMeta(ctx, res)
	}
	def.PostAction = func(ctx context.Context, res module.Result) error {
		r.record(name, "post_action", func(c *Counts) { c.PostAction++ })
		if post != nil {
			return post(ctx, res)
		}
		return nil
	}
	def.ForceAction = func(context.Context, module.Result) error {
		r.record(name, "force_action", func(c *Counts) { c.ForceAction++ })
		return nil
	}
	def.Publish = func(context.Context, module.Result) error {
		r.record(name, "publish", func(c *Counts) { c.Publish++ })
		return nil
	}

	return module.MustGeneric(def, r.factory)
}

func (r *Recorder) record(name, event string, fn func(*Counts)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counts[name]
	if !ok {
		c = &Counts{}
		r.counts[name] = c
	}
	fn(c)
	r.events = append(r.events, event+":"+name)
}

// Counts returns a snapshot of name's counters.
func (r *Recorder) Counts(name string) Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counts[name]; ok {
		return *c
	}
	return Counts{}
}

// Events returns every recorded callback as "event:fqn", in call order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// EventsOf returns the fqns recorded for one event kind, in call order.
func (r *Recorder) EventsOf(event string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if fqn, ok := strings.CutPrefix(e, event+":"); ok {
			out = append(out, fqn)
		}
	}
	return out
}

// Reset clears all counters and events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]*Counts)
	r.events = nil
}
