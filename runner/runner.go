package runner

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/modkit/dag"
	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/observability"
	"github.com/kbukum/modkit/storage"
)

// RunResult is the outcome of a run for one root module.
type RunResult struct {
	FQN      string
	URN      module.URN
	Result   module.Result
	Metadata *metadata.Metadata
	History  *metadata.History
}

// Runner executes run-transactions over the closure of its roots. Calls
// on one Runner are serialized.
type Runner struct {
	mu sync.Mutex

	roots   []module.Module
	visitor *dag.Visitor[module.Module]

	history    metadata.HistoryStore
	output     storage.Storage
	outputDir  string
	log        *logger.Logger
	metrics    *observability.Metrics
	maxHistory int
	closers    []func() error

	last *Summary
}

// New creates a Runner over roots. The dependency closure is built once;
// a cycle fails with INVALID_GRAPH.
func New(roots []module.Module, opts ...Option) (*Runner, error) {
	if len(roots) == 0 {
		return nil, errors.MissingField("roots")
	}
	o := resolveOptions(opts)
	if o.history == nil {
		return nil, errors.MissingField("history_store")
	}

	v, err := dag.NewVisitor(roots)
	if err != nil {
		return nil, err
	}

	log := logger.Get("runner")
	if o.logger != nil {
		log = o.logger.WithComponent("runner")
	}

	return &Runner{
		roots:      append([]module.Module(nil), roots...),
		visitor:    v,
		history:    o.history,
		output:     o.output,
		outputDir:  o.outputDir,
		log:        log,
		metrics:    o.metrics,
		maxHistory: o.maxHistory,
		closers:    o.closers,
	}, nil
}

// Queue returns the modules in execution order.
func (r *Runner) Queue() []module.Module { return r.visitor.Queue() }

// Plan returns module fqns grouped by dependency depth.
func (r *Runner) Plan() [][]string { return dag.FQNs(r.visitor.Levels()) }

// LastSummary returns the summary of the most recent run, or nil.
func (r *Runner) LastSummary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Close releases resources the Runner opened itself.
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return stderrors.Join(errs...)
}

// runState is threaded through the passes of one run.
type runState struct {
	tx        *module.Tx
	log       *logger.Logger
	histories map[string]*metadata.History
}

type pass struct {
	name  string
	visit func(ctx context.Context, st *runState) error
	skip  func(st *runState) bool
}

// Run executes one transaction and returns the results of the roots in
// the order they were given.
func (r *Runner) Run(ctx context.Context) ([]RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.run(ctx)
	if err != nil {
		return nil, err
	}
	return r.results(ctx, st), nil
}

// Publish runs a transaction and then publishes every root in order.
func (r *Runner) Publish(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.run(ctx); err != nil {
		return err
	}
	for _, m := range r.roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Publish(ctx); err != nil {
			return wrapModuleError(m, "publish", err)
		}
		r.log.Info("module published", logger.Fields(logger.FieldModule, m.FQN(), logger.FieldURN, string(m.URN())))
	}
	return nil
}

func (r *Runner) run(ctx context.Context) (*runState, error) {
	start := time.Now()
	queue := r.visitor.Queue()
	tx := module.NewTx(queue)
	log := r.log.WithFields(logger.Fields(logger.FieldRunID, tx.RunID))
	summary := newSummary(tx.RunID, r.Plan())
	r.last = summary

	ctx, span := observability.StartSpan(ctx, "runner.run")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, tx.RunID)
	observability.SetSpanAttribute(ctx, observability.AttrModules, len(queue))

	tx.OnPostAction = func(m module.Module) {
		summary.trackPostAction(m.FQN())
		r.metrics.RecordPostAction(ctx, m.FQN())
		log.Debug("post-action ran", logger.Fields(logger.FieldModule, m.FQN()))
	}

	st := &runState{tx: tx, log: log, histories: make(map[string]*metadata.History, len(queue))}
	log.Info("run started", logger.Fields(logger.FieldCount, len(queue), "roots", len(r.roots)))

	passes := []pass{
		{name: PassCompute, visit: r.computePass},
		{name: PassMetadata, visit: r.metadataPass},
		{name: PassForce, visit: r.forcePass, skip: func(st *runState) bool { return st.tx.NeedPost.Len() == 0 }},
		{name: PassPersistMeta, visit: r.persistMetaPass},
	}
	for _, p := range passes {
		if err := r.runPass(ctx, st, summary, p); err != nil {
			summary.Duration = time.Since(start)
			summary.Err = err
			observability.SetSpanError(ctx, err)
			log.Error("run failed", logger.Fields(logger.FieldPass, p.name, logger.FieldError, err.Error()))
			return nil, err
		}
	}

	summary.Duration = time.Since(start)
	log.Info("run completed", logger.Fields(
		logger.FieldCount, len(queue),
		logger.FieldDuration, summary.Duration.Milliseconds(),
		"post_actions", len(summary.PostActions),
	))
	return st, nil
}

func (r *Runner) runPass(ctx context.Context, st *runState, summary *Summary, p pass) error {
	if p.skip != nil && p.skip(st) {
		summary.trackPass(p.name, StatusSkipped, 0)
		r.metrics.RecordPass(ctx, p.name, StatusSkipped, 0, 0)
		st.log.Debug("pass skipped", logger.Fields(logger.FieldPass, p.name))
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "runner."+p.name)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPass, p.name)

	start := time.Now()
	err := p.visit(ctx, st)
	d := time.Since(start)

	status := StatusOK
	if err != nil {
		status = StatusFailed
		observability.SetSpanError(ctx, err)
		r.metrics.RecordError(ctx, string(errorCode(err)), p.name)
	}
	summary.trackPass(p.name, status, d)
	r.metrics.RecordPass(ctx, p.name, status, r.visitor.Len(), d)
	st.log.Debug("pass finished", logger.Fields(
		logger.FieldPass, p.name,
		logger.FieldStatus, status,
		logger.FieldDuration, d.Milliseconds(),
	))
	return err
}

func (r *Runner) computePass(ctx context.Context, st *runState) error {
	err := dag.DFSVisit(r.visitor, func(m module.Module, st *runState) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Compute(ctx, st.tx); err != nil {
			return wrapModuleError(m, PassCompute, err)
		}
		return nil
	}, st)
	if err != nil {
		return err
	}

	for _, m := range r.visitor.Queue() {
		if _, ok := st.tx.Known[m.ClassKey()]; !ok {
			return errors.Internal("compute pass left "+m.FQN()+" without a result", nil)
		}
	}
	return nil
}

func (r *Runner) metadataPass(ctx context.Context, st *runState) error {
	return dag.DFSVisit(r.visitor, func(m module.Module, st *runState) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.CalculateUserMeta(ctx, st.tx); err != nil {
			return wrapModuleError(m, PassMetadata, err)
		}
		return nil
	}, st)
}

// forcePass visits downstream modules first, so one forced action settles
// its pending ancestors before they would be forced themselves.
func (r *Runner) forcePass(ctx context.Context, st *runState) error {
	pending := st.tx.NeedPost.Pending()
	observability.SetSpanAttribute(ctx, observability.AttrPending, pending)
	st.log.Debug("forcing pending post-actions", logger.Fields(logger.FieldCount, len(pending), "pending", pending))

	err := dag.BFSVisit(r.visitor, func(m module.Module, st *runState) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.ForcePostAction(ctx, st.tx); err != nil {
			return wrapModuleError(m, PassForce, err)
		}
		return nil
	}, st)
	if err != nil {
		return err
	}

	if st.tx.NeedPost.Len() != 0 {
		return errors.Internal("post-actions still pending after force pass", nil).
			WithDetail("pending", st.tx.NeedPost.Pending())
	}
	return nil
}

func (r *Runner) persistMetaPass(ctx context.Context, st *runState) error {
	return dag.DFSVisit(r.visitor, func(m module.Module, st *runState) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		persisted, err := m.PersistMeta(ctx)
		if err != nil {
			return wrapModuleError(m, PassPersistMeta, err)
		}
		if persisted {
			st.log.Debug("metadata already persisted", logger.Fields(logger.FieldModule, m.FQN()))
			return nil
		}

		meta := m.Metadata()
		if meta == nil {
			return errors.Internal("no metadata for "+m.FQN(), nil)
		}
		h := r.readHistory(ctx, st.log, m.FQN())
		h.Update(*meta, r.historySize(m))
		if err := r.history.Write(ctx, m.FQN(), h); err != nil {
			return err
		}
		st.histories[m.FQN()] = h
		return nil
	}, st)
}

// readHistory returns the stored history of fqn, or an empty one when it
// is missing or unreadable.
func (r *Runner) readHistory(ctx context.Context, log *logger.Logger, fqn string) *metadata.History {
	h, err := r.history.Read(ctx, fqn)
	if err != nil || h == nil {
		fields := logger.Fields(logger.FieldModule, fqn)
		if err != nil {
			fields[logger.FieldError] = err.Error()
		}
		log.Debug("history unavailable, starting empty", fields)
		return metadata.NewHistory()
	}
	return h
}

func (r *Runner) historySize(m module.Module) int {
	n := m.MetadataHistorySize()
	if r.maxHistory > 0 && (n <= 0 || n > r.maxHistory) {
		return r.maxHistory
	}
	return n
}

func (r *Runner) results(ctx context.Context, st *runState) []RunResult {
	out := make([]RunResult, 0, len(r.roots))
	for _, m := range r.roots {
		h, ok := st.histories[m.FQN()]
		if !ok {
			h = r.readHistory(ctx, st.log, m.FQN())
		}
		out = append(out, RunResult{
			FQN:      m.FQN(),
			URN:      m.URN(),
			Result:   st.tx.Known[m.ClassKey()],
			Metadata: m.Metadata(),
			History:  h,
		})
	}
	return out
}

// wrapModuleError tags AppErrors with the module and step they failed in,
// and wraps anything else as MODULE_FAILED.
func wrapModuleError(m module.Module, step string, err error) error {
	if appErr, ok := errors.AsAppError(err); ok {
		if _, set := appErr.Details["module"]; !set {
			appErr.WithDetail("module", m.FQN())
		}
		if _, set := appErr.Details["pass"]; !set {
			appErr.WithDetail("pass", step)
		}
		return appErr
	}
	return errors.ModuleFailed(m.FQN(), step, err)
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrCodeTimeout
	}
	return errors.ErrCodeInternal
}
