package dag

import "slices"

// Levels groups the closure by dependency depth using Kahn's algorithm:
// level 0 holds nodes without dependencies, level k nodes whose deepest
// dependency sits on level k-1. Within a level, nodes keep queue order.
func (v *Visitor[N]) Levels() [][]N {
	inDegree := make([]int, len(v.queue))
	dependents := make([][]int, len(v.queue))

	for i, n := range v.queue {
		seen := make(map[int]bool)
		for _, d := range n.Dependencies() {
			j := v.index[d.FQN()]
			if seen[j] {
				continue
			}
			seen[j] = true
			inDegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var current []int
	for i, deg := range inDegree {
		if deg == 0 {
			current = append(current, i)
		}
	}

	var levels [][]N
	for len(current) > 0 {
		level := make([]N, 0, len(current))
		var next []int
		for _, i := range current {
			level = append(level, v.queue[i])
			for _, j := range dependents[i] {
				inDegree[j]--
				if inDegree[j] == 0 {
					next = append(next, j)
				}
			}
		}
		levels = append(levels, level)
		slices.Sort(next)
		current = next
	}
	return levels
}

// FQNs maps levels to node names, for logging.
func FQNs[N Node[N]](levels [][]N) [][]string {
	out := make([][]string, len(levels))
	for i, level := range levels {
		names := make([]string, len(level))
		for j, n := range level {
			names[j] = n.FQN()
		}
		out[i] = names
	}
	return out
}
