package dag

import (
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/modkit/errors"
)

// Node is anything with a unique name and a list of upstream nodes.
type Node[N any] interface {
	FQN() string
	Dependencies() []N
}

// Visitor holds the deduplicated, dependency-closed, topologically ordered
// queue of all nodes reachable from a set of roots. It is immutable once
// built.
type Visitor[N Node[N]] struct {
	roots []N
	queue []N
	index map[string]int
}

type mark uint8

const (
	unvisited mark = iota
	inProgress
	done
)

// NewVisitor builds the closure of roots. Duplicated roots and nodes shared
// by several dependents appear once. A cycle is reported as an
// INVALID_GRAPH error naming its path; a nil root or dependency as
// INVALID_INPUT. An interface holding a typed nil pointer counts as nil.
func NewVisitor[N Node[N]](roots []N) (*Visitor[N], error) {
	b := &builder[N]{
		marks: make(map[string]mark),
		index: make(map[string]int),
	}

	ordered, err := sortedByFQN(roots, "roots")
	if err != nil {
		return nil, err
	}
	for _, r := range ordered {
		if err := b.visit(r); err != nil {
			return nil, err
		}
	}

	return &Visitor[N]{
		roots: slices.Clone(roots),
		queue: b.queue,
		index: b.index,
	}, nil
}

type builder[N Node[N]] struct {
	marks map[string]mark
	index map[string]int
	queue []N
	path  []string
}

func (b *builder[N]) visit(n N) error {
	name := n.FQN()
	switch b.marks[name] {
	case done:
		return nil
	case inProgress:
		start := slices.Index(b.path, name)
		cycle := append(slices.Clone(b.path[start:]), name)
		return errors.CycleDetected(cycle)
	}

	b.marks[name] = inProgress
	b.path = append(b.path, name)

	deps, err := sortedByFQN(n.Dependencies(), name)
	if err != nil {
		return err
	}
	for _, d := range deps {
		if err := b.visit(d); err != nil {
			return err
		}
	}

	b.path = b.path[:len(b.path)-1]
	b.marks[name] = done
	b.index[name] = len(b.queue)
	b.queue = append(b.queue, n)
	return nil
}

// sortedByFQN returns a name-ordered copy of nodes, rejecting nil entries.
func sortedByFQN[N Node[N]](nodes []N, owner string) ([]N, error) {
	out := make([]N, 0, len(nodes))
	for i, n := range nodes {
		if IsNil(n) {
			return nil, errors.InvalidInput(owner, "nil node at position "+strconv.Itoa(i))
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.Compare(out[i].FQN(), out[j].FQN()) < 0
	})
	return out, nil
}

// IsNil reports whether v is nil or an interface wrapping a nil pointer,
// map, slice, func or chan.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Roots returns the roots in the order they were given.
func (v *Visitor[N]) Roots() []N { return slices.Clone(v.roots) }

// Queue returns a copy of the topological queue.
func (v *Visitor[N]) Queue() []N { return slices.Clone(v.queue) }

// Len returns the number of nodes in the closure.
func (v *Visitor[N]) Len() int { return len(v.queue) }

// Contains reports whether a node named fqn is in the closure.
func (v *Visitor[N]) Contains(fqn string) bool {
	_, ok := v.index[fqn]
	return ok
}

// Position returns fqn's index in the queue, or -1.
func (v *Visitor[N]) Position(fqn string) int {
	if i, ok := v.index[fqn]; ok {
		return i
	}
	return -1
}

// DFSVisit calls fn once per node, every dependency before its dependents.
// The first error stops the traversal and is returned.
func DFSVisit[N Node[N], S any](v *Visitor[N], fn func(N, S) error, state S) error {
	for _, n := range v.queue {
		if err := fn(n, state); err != nil {
			return err
		}
	}
	return nil
}

// BFSVisit calls fn once per node in reverse topological order, every
// dependent before its dependencies. Visiting downstream first lets work
// done on a dependent satisfy its upstream nodes before they are reached.
func BFSVisit[N Node[N], S any](v *Visitor[N], fn func(N, S) error, state S) error {
	for i := len(v.queue) - 1; i >= 0; i-- {
		if err := fn(v.queue[i], state); err != nil {
			return err
		}
	}
	return nil
}
