// Package align partitions QA units from every platform in a session into
// canonical prompt groups. Candidate order is an externally observable
// contract: platforms in discovery order, units within a platform in stream
// order. That order decides which occurrence of a duplicated question
// becomes canonical, so it must never depend on map iteration or timing.
package align

import (
	"strings"

	"github.com/chatweave/chatweave/internal/ir"
)

// Member is one platform's placement inside a group, with the flags the
// session IR records per platform.
type Member struct {
	Unit           ir.QAUnit
	Similarity     *float64 // nil when the unit had no usable fingerprint
	MissingPrompt  bool
	MissingContext bool
}

// Group is an aligned equivalence class before key assignment. The
// canonical unit is always the member that opened the group.
type Group struct {
	Canonical ir.QAUnit
	DependsOn []int
	Members   []Member
}

// Aligner runs the matching and flag propagation over a session's units.
type Aligner struct {
	matcher Matcher
	deps    DependencyStrategy
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithMatcher replaces the exact-fingerprint matcher.
func WithMatcher(m Matcher) Option {
	return func(a *Aligner) { a.matcher = m }
}

// WithDependencies injects a follow-up detection strategy.
func WithDependencies(d DependencyStrategy) Option {
	return func(a *Aligner) { a.deps = d }
}

// New returns an Aligner with the exact-fingerprint matcher and no
// dependency tracking.
func New(opts ...Option) *Aligner {
	a := &Aligner{
		matcher: NewExactMatcher(),
		deps:    NoDependencies{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Align groups every unit across the session's platforms. platforms gives
// the discovery order; units maps each platform to its segmented stream.
// Every input unit appears in exactly one returned group.
func (a *Aligner) Align(platforms []string, units map[string]ir.QAUnitIR) []Group {
	candidates := collect(platforms, units)
	partitions := a.matcher.Match(candidates)
	deps := a.deps.Dependencies(partitions)

	groups := make([]Group, len(partitions))
	for i, members := range partitions {
		groups[i] = buildGroup(members, deps[i])
	}

	for i := range groups {
		markMissingContext(groups, i)
	}
	return groups
}

func collect(platforms []string, units map[string]ir.QAUnitIR) []ir.QAUnit {
	var all []ir.QAUnit
	for _, platform := range platforms {
		all = append(all, units[platform].QAUnits...)
	}
	return all
}

func buildGroup(members []ir.QAUnit, dependsOn []int) Group {
	g := Group{
		Canonical: members[0],
		DependsOn: dependsOn,
		Members:   make([]Member, 0, len(members)),
	}

	canonicalKey := compareKey(members[0])
	for _, unit := range members {
		m := Member{
			Unit:          unit,
			MissingPrompt: strings.TrimSpace(unit.QuestionFromUser) == "",
		}
		if key := compareKey(unit); key != "" && key == canonicalKey {
			similarity := 1.0
			m.Similarity = &similarity
		}
		g.Members = append(g.Members, m)
	}
	return g
}

// markMissingContext flags members whose platform skipped a question this
// group builds on. The flag is per member: the same group can be complete
// for one platform and contextless for another.
func markMissingContext(groups []Group, i int) {
	if len(groups[i].DependsOn) == 0 {
		return
	}

	for m := range groups[i].Members {
		platform := groups[i].Members[m].Unit.Platform
		for _, dep := range groups[i].DependsOn {
			if !hasPlatform(groups[dep], platform) {
				groups[i].Members[m].MissingContext = true
				break
			}
		}
	}
}

func hasPlatform(g Group, platform string) bool {
	for _, m := range g.Members {
		if m.Unit.Platform == platform {
			return true
		}
	}
	return false
}
