// Package runner executes run-transactions over a DAG of modules.
//
// A Runner is built once from the root modules. Each Run creates a fresh
// transaction and walks the dependency closure in four passes:
//
//  1. compute: every module computes (or reads back) its result once
//  2. metadata: every module calculates its user metadata
//  3. force: post-actions nothing else triggered are forced, downstream first
//  4. persist metadata: metadata is written and appended to each history
//
// After Run every module's post-action ran exactly once. Publish runs the
// transaction and then publishes each root. PurgePersisted and
// PurgeOldButKeepNewPersisted clean up persisted outputs.
//
//	r, err := runner.New(roots,
//	    runner.WithHistoryStore(metadata.NewStorageHistoryStore(store, "history")),
//	    runner.WithOutputStore(store, "output"),
//	)
//	results, err := r.Run(ctx)
package runner
