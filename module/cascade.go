package module

import (
	"context"

	"github.com/kbukum/modkit/dag"
	"github.com/kbukum/modkit/errors"
)

// Ancestry is implemented by modules that cache the visitor over
// themselves and their ancestors.
type Ancestry interface {
	Ancestors() (*dag.Visitor[Module], error)
}

// RunPostActionCascade runs the post-action of m and of every ancestor of m
// still pending in tx, dependencies first, removing each from tx.NeedPost.
func RunPostActionCascade(ctx context.Context, m Module, tx *Tx) error {
	v, err := ancestors(m)
	if err != nil {
		return err
	}
	return dag.DFSVisit(v, func(n Module, tx *Tx) error {
		if !tx.NeedPost.Has(n) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.PostAction(ctx); err != nil {
			return errors.ModuleFailed(n.FQN(), "post_action", err)
		}
		tx.NeedPost.Remove(n)
		if tx.OnPostAction != nil {
			tx.OnPostAction(n)
		}
		return nil
	}, tx)
}

func ancestors(m Module) (*dag.Visitor[Module], error) {
	if a, ok := m.(Ancestry); ok {
		return a.Ancestors()
	}
	return dag.NewVisitor([]Module{m})
}
