// Package dag computes the dependency closure of a set of root modules and
// traverses it.
//
// A Visitor is built once from the roots. Construction walks every
// dependency edge, deduplicates nodes by fully qualified name, rejects
// cycles, and records a topological queue in which every dependency comes
// before its dependents. Roots and each node's dependencies are walked in
// name order, so the queue is identical for identical inputs.
//
// Two traversals share the queue and visit each node exactly once:
//
//   - DFSVisit visits upstream first (queue order).
//   - BFSVisit visits downstream first (reverse queue order).
//
// A caller-supplied state value is threaded through every visit:
//
//	v, err := dag.NewVisitor(roots)
//	err = dag.DFSVisit(v, func(m module.Module, tx *module.Tx) error {
//	    _, err := m.Compute(ctx, tx)
//	    return err
//	}, tx)
package dag
