package module

import (
	"sort"

	"github.com/google/uuid"
)

// Tx is the state of one run: results computed so far and modules still
// owing their post-action.
type Tx struct {
	RunID    string
	Known    map[ClassKey]Result
	NeedPost *PostSet

	// OnPostAction, if set, is called after each post-action a cascade runs.
	OnPostAction func(m Module)
}

// NewTx starts a transaction over queue. Every queued module owes a
// post-action.
func NewTx(queue []Module) *Tx {
	return &Tx{
		RunID:    uuid.NewString(),
		Known:    make(map[ClassKey]Result, len(queue)),
		NeedPost: NewPostSet(queue...),
	}
}

// PostSet is the set of modules whose post-action has not run yet.
type PostSet struct {
	pending map[ClassKey]Module
}

// NewPostSet returns a set holding modules.
func NewPostSet(modules ...Module) *PostSet {
	s := &PostSet{pending: make(map[ClassKey]Module, len(modules))}
	for _, m := range modules {
		s.pending[m.ClassKey()] = m
	}
	return s
}

// Has reports whether m still owes its post-action.
func (s *PostSet) Has(m Module) bool {
	_, ok := s.pending[m.ClassKey()]
	return ok
}

// Remove marks m settled. It reports whether m was pending.
func (s *PostSet) Remove(m Module) bool {
	key := m.ClassKey()
	if _, ok := s.pending[key]; !ok {
		return false
	}
	delete(s.pending, key)
	return true
}

// Len returns the number of pending modules.
func (s *PostSet) Len() int { return len(s.pending) }

// Pending returns the fqns of pending modules, sorted.
func (s *PostSet) Pending() []string {
	out := make([]string, 0, len(s.pending))
	for _, m := range s.pending {
		out = append(out, m.FQN())
	}
	sort.Strings(out)
	return out
}
