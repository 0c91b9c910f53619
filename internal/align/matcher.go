package align

import (
	"github.com/chatweave/chatweave/internal/ir"
	"github.com/chatweave/chatweave/internal/normalize"
)

// Matcher partitions QA units into groups answering the same question.
// Implementations must be deterministic given identical input order and
// must keep the discovery order of groups: the first unit of each group is
// the one that opened it. Fuzzy and semantic matchers plug in here; the
// core ships the exact-fingerprint matcher only.
type Matcher interface {
	Match(units []ir.QAUnit) [][]ir.QAUnit
}

// ExactMatcher groups units whose comparison fingerprints are identical.
// The actual user-entered question is authoritative: a unit's own query
// hash wins over a fingerprint derived from the assistant's restatement.
type ExactMatcher struct{}

// NewExactMatcher returns the exact-fingerprint matcher.
func NewExactMatcher() *ExactMatcher {
	return &ExactMatcher{}
}

// compareKey returns the fingerprint used for grouping, or "" when the unit
// has neither question text nor a summary to hash.
func compareKey(unit ir.QAUnit) string {
	if unit.UserQueryHash != "" {
		return unit.UserQueryHash
	}
	if hash, ok := normalize.Fingerprint(unit.QuestionSummary); ok {
		return hash
	}
	return ""
}

// Match scans units in order. A unit joins the earliest open group whose
// canonical fingerprint matches and which has no member from the unit's
// platform yet; a repeated identical question from the same platform is a
// new occurrence and opens a new group. Units without any usable
// fingerprint become singleton groups.
func (m *ExactMatcher) Match(units []ir.QAUnit) [][]ir.QAUnit {
	type openGroup struct {
		hash      string
		platforms map[string]bool
		members   []ir.QAUnit
	}

	var groups []*openGroup

	for _, unit := range units {
		key := compareKey(unit)
		if key == "" {
			groups = append(groups, &openGroup{
				platforms: map[string]bool{unit.Platform: true},
				members:   []ir.QAUnit{unit},
			})
			continue
		}

		placed := false
		for _, g := range groups {
			if g.hash == key && !g.platforms[unit.Platform] {
				g.platforms[unit.Platform] = true
				g.members = append(g.members, unit)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &openGroup{
				hash:      key,
				platforms: map[string]bool{unit.Platform: true},
				members:   []ir.QAUnit{unit},
			})
		}
	}

	result := make([][]ir.QAUnit, len(groups))
	for i, g := range groups {
		result[i] = g.members
	}
	return result
}
