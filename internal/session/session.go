// Package session assembles aligner output into the externally visible
// session IR: sequential key assignment and canonical text selection, no
// further logic.
package session

import (
	"strings"

	"github.com/chatweave/chatweave/internal/align"
	"github.com/chatweave/chatweave/internal/ir"
)

// Build turns aligned groups into a SessionIR. Keys are assigned in
// discovery order, so two runs over the same input produce identical
// documents.
func Build(sessionID string, platforms []string, units map[string]ir.QAUnitIR, groups []align.Group) ir.SessionIR {
	s := ir.SessionIR{
		Schema:        ir.SessionSchema,
		SessionID:     sessionID,
		Platforms:     platforms,
		Conversations: make([]ir.ConversationRef, 0, len(platforms)),
		Prompts:       make([]ir.PromptGroup, 0, len(groups)),
	}

	for _, platform := range platforms {
		s.Conversations = append(s.Conversations, ir.ConversationRef{
			Platform:       platform,
			ConversationID: units[platform].ConversationID,
		})
	}

	for i, g := range groups {
		s.Prompts = append(s.Prompts, assemble(i, g))
	}
	return s
}

func assemble(index int, g align.Group) ir.PromptGroup {
	pg := ir.PromptGroup{
		PromptKey: ir.PromptKey(index),
		CanonicalPrompt: ir.CanonicalPrompt{
			Text: promptText(g.Canonical),
			Source: ir.CanonicalSource{
				Platform: g.Canonical.Platform,
				QAID:     g.Canonical.QAID,
			},
		},
		DependsOn:   make([]string, 0, len(g.DependsOn)),
		PerPlatform: make([]ir.PlatformRef, 0, len(g.Members)),
	}

	for _, dep := range g.DependsOn {
		pg.DependsOn = append(pg.DependsOn, ir.PromptKey(dep))
	}

	for _, m := range g.Members {
		pg.PerPlatform = append(pg.PerPlatform, ir.PlatformRef{
			Platform:         m.Unit.Platform,
			QAID:             m.Unit.QAID,
			ConversationID:   m.Unit.ConversationID,
			PromptText:       promptText(m.Unit),
			PromptSimilarity: m.Similarity,
			MissingPrompt:    m.MissingPrompt,
			MissingContext:   m.MissingContext,
		})
	}
	return pg
}

// promptText falls back to the assistant-derived summary when the unit has
// no usable user text.
func promptText(unit ir.QAUnit) string {
	if strings.TrimSpace(unit.QuestionFromUser) != "" {
		return unit.QuestionFromUser
	}
	return unit.QuestionSummary
}
