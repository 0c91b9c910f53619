package align

import "github.com/chatweave/chatweave/internal/ir"

// DependencyStrategy supplies the depends_on links between prompt groups.
// Follow-up detection has no evidenced heuristic, so the core only
// propagates whatever an injected strategy declares; the default declares
// nothing and missing_context stays false everywhere.
type DependencyStrategy interface {
	// Dependencies returns, for each group position, the positions of the
	// groups its question presupposes. Returned positions must be earlier
	// than the group's own.
	Dependencies(groups [][]ir.QAUnit) [][]int
}

// NoDependencies is the default: no group depends on any other.
type NoDependencies struct{}

func (NoDependencies) Dependencies(groups [][]ir.QAUnit) [][]int {
	return make([][]int, len(groups))
}

// SequentialDependencies treats every group as a follow-up to the one
// before it, mirroring how a single linear conversation builds on itself.
type SequentialDependencies struct{}

func (SequentialDependencies) Dependencies(groups [][]ir.QAUnit) [][]int {
	deps := make([][]int, len(groups))
	for i := 1; i < len(groups); i++ {
		deps[i] = []int{i - 1}
	}
	return deps
}
