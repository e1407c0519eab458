package runner

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Pass names.
const (
	PassCompute     = "compute"
	PassMetadata    = "metadata"
	PassForce       = "force"
	PassPersistMeta = "persist_meta"
)

// Pass statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// PassStatus is the outcome of one pass of a run.
type PassStatus struct {
	Name     string
	Status   string
	Duration time.Duration
}

// Summary tracks one run: its plan, its passes and the post-actions it ran.
type Summary struct {
	RunID       string
	Modules     int
	Levels      [][]string
	Passes      []PassStatus
	PostActions []string
	Duration    time.Duration
	Err         error
}

func newSummary(runID string, levels [][]string) *Summary {
	n := 0
	for _, l := range levels {
		n += len(l)
	}
	return &Summary{RunID: runID, Modules: n, Levels: levels}
}

func (s *Summary) trackPass(name, status string, d time.Duration) {
	s.Passes = append(s.Passes, PassStatus{Name: name, Status: status, Duration: d})
}

func (s *Summary) trackPostAction(fqn string) {
	s.PostActions = append(s.PostActions, fqn)
}

// Pass returns the status of the named pass.
func (s *Summary) Pass(name string) (PassStatus, bool) {
	for _, p := range s.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return PassStatus{}, false
}

// Write renders the summary as a tree.
func (s *Summary) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d modules in %.3fs\n", s.RunID, s.Modules, s.Duration.Seconds())

	if len(s.Levels) > 0 {
		b.WriteString("plan\n")
		for i, level := range s.Levels {
			fmt.Fprintf(&b, "   %s level %d: %s\n", treePrefix(i, len(s.Levels)), i, strings.Join(level, ", "))
		}
	}

	if len(s.Passes) > 0 {
		b.WriteString("passes\n")
		for i, p := range s.Passes {
			fmt.Fprintf(&b, "   %s %-12s %-7s %dms\n", treePrefix(i, len(s.Passes)), p.Name, p.Status, p.Duration.Milliseconds())
		}
	}

	fmt.Fprintf(&b, "post-actions: %d\n", len(s.PostActions))
	if s.Err != nil {
		fmt.Fprintf(&b, "error: %v\n", s.Err)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
