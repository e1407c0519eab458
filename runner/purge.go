package runner

import (
	"context"

	"github.com/kbukum/modkit/dag"
	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/observability"
	"github.com/kbukum/modkit/persist"
)

// PurgePersisted removes the persisted output and metadata of every
// module in the closure. Removing what is already gone is not an error.
func (r *Runner) PurgePersisted(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "runner.purge_persisted")
	defer span.End()

	err := dag.DFSVisit(r.visitor, func(m module.Module, log *logger.Logger) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.PersistStrategy().Remove(ctx); err != nil {
			return wrapModuleError(m, "purge", err)
		}
		if err := m.MetaStrategy().Remove(ctx); err != nil {
			return wrapModuleError(m, "purge", err)
		}
		log.Debug("persisted outputs removed", logger.Fields(logger.FieldModule, m.FQN()))
		return nil
	}, r.log)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	r.log.Info("persisted outputs purged", logger.Fields(logger.FieldCount, r.visitor.Len()))
	return nil
}

// PurgeOldButKeepNewPersisted deletes every file under the output root
// that no module of the closure currently writes. Files of the current
// fingerprints survive, stale versions go.
func (r *Runner) PurgeOldButKeepNewPersisted(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.output == nil {
		return errors.InvalidInput("output_store", "purge requires an output store")
	}

	ctx, span := observability.StartSpan(ctx, "runner.purge_stale")
	defer span.End()

	keep, err := r.currentOutputs()
	if err != nil {
		return err
	}
	deleted, err := persist.PurgeDirectory(ctx, r.output, r.outputDir, keep)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	r.log.Info("stale outputs purged", logger.Fields(
		logger.FieldPath, r.outputDir,
		logger.FieldCount, deleted,
		"kept", len(keep),
	))
	return nil
}

// currentOutputs collects the output-root-relative paths of all current
// outputs of the closure.
func (r *Runner) currentOutputs() (map[string]bool, error) {
	keep := make(map[string]bool)
	err := dag.DFSVisit(r.visitor, func(m module.Module, keep map[string]bool) error {
		for _, s := range []persist.Strategy{m.PersistStrategy(), m.MetaStrategy()} {
			for _, p := range s.AllOutput() {
				keep[persist.RelativeTo(r.outputDir, p)] = true
			}
		}
		return nil
	}, keep)
	return keep, err
}
