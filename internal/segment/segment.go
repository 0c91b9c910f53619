// Package segment splits an ordered message stream into question/answer
// units. A user message opens a unit; every assistant message up to the
// next user message answers it. Orphan assistant runs, back-to-back user
// messages, and trailing unanswered questions are all represented
// structurally rather than dropped, so the units always partition the
// stream.
package segment

import (
	"fmt"
	"strings"

	"github.com/chatweave/chatweave/internal/extract"
	"github.com/chatweave/chatweave/internal/ir"
	"github.com/chatweave/chatweave/internal/normalize"
)

// questionSeparator joins multiple consecutive user messages into one
// question text.
const questionSeparator = "\n\n"

// Segment groups a conversation's messages into QA units. The extractor
// supplies question summaries from assistant replies; pass nil for the
// default heuristic.
func Segment(conv ir.Conversation, ext extract.Extractor) ir.QAUnitIR {
	if ext == nil {
		ext = extract.NewHeuristic()
	}

	groups := groupMessages(conv.Messages)
	verifyPartition(groups, len(conv.Messages))

	units := make([]ir.QAUnit, 0, len(groups))
	for i, g := range groups {
		units = append(units, buildUnit(conv, i, g, ext))
	}

	return ir.QAUnitIR{
		Schema:         ir.QAUnitSchema,
		Platform:       conv.Platform,
		ConversationID: conv.ConversationID,
		QAUnits:        units,
	}
}

// group holds the stream positions of one unit while scanning.
type group struct {
	userIndices      []int
	assistantIndices []int
}

func groupMessages(messages []ir.Message) []group {
	var groups []group

	for _, msg := range messages {
		switch msg.Role {
		case ir.RoleUser:
			// Every user message opens its own unit, even when the
			// previous one got no answer.
			groups = append(groups, group{userIndices: []int{msg.Index}})
		default:
			if len(groups) == 0 {
				// Leading assistant run: one orphan unit with no
				// user message.
				groups = append(groups, group{})
			}
			last := &groups[len(groups)-1]
			last.assistantIndices = append(last.assistantIndices, msg.Index)
		}
	}

	return groups
}

// verifyPartition panics when the grouped indices do not cover the stream
// exactly once in order. That can only happen through a defect in
// groupMessages, not through any input, so it fails loudly instead of
// producing a silently corrupt IR.
func verifyPartition(groups []group, total int) {
	next := 0
	for _, g := range groups {
		for _, idx := range append(append([]int{}, g.userIndices...), g.assistantIndices...) {
			if idx != next {
				panic(fmt.Sprintf("segment: message index %d out of place, expected %d", idx, next))
			}
			next++
		}
	}
	if next != total {
		panic(fmt.Sprintf("segment: covered %d of %d messages", next, total))
	}
}

func buildUnit(conv ir.Conversation, index int, g group, ext extract.Extractor) ir.QAUnit {
	unit := ir.QAUnit{
		QAID:                ir.QAID(index),
		Platform:            conv.Platform,
		ConversationID:      conv.ConversationID,
		UserMessageIDs:      []string{},
		AssistantMessageIDs: []string{},
		UserIndices:         g.userIndices,
		AssistantIndices:    g.assistantIndices,
	}

	var parts []string
	for _, idx := range g.userIndices {
		msg := conv.Messages[idx]
		unit.UserMessageIDs = append(unit.UserMessageIDs, msg.ID)
		if msg.RawContent != "" {
			parts = append(parts, msg.RawContent)
		}
	}
	for _, idx := range g.assistantIndices {
		unit.AssistantMessageIDs = append(unit.AssistantMessageIDs, conv.Messages[idx].ID)
	}

	if len(parts) > 0 {
		joined := strings.Join(parts, questionSeparator)
		unit.QuestionFromUser = normalize.Normalize(joined)
		if hash, ok := normalize.Fingerprint(joined); ok {
			unit.UserQueryHash = hash
		}
	}

	if len(g.assistantIndices) > 0 {
		first := conv.Messages[g.assistantIndices[0]]
		if summary, ok := ext.Extract(first.RawContent); ok {
			unit.QuestionSummary = summary
		}
	}

	return unit
}
