package nodes

import (
	"context"
	"errors"
	"strings"

	"leadchat/internal/core"
	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/logger"
)

// Scorer derives a qualification from the latest message and prior context
type Scorer interface {
	Score(message, conversationContext string) pkg.Qualification
}

// Gate decides whether a qualification is enough to record a lead
type Gate interface {
	Qualifies(q pkg.Qualification, contact pkg.ContactInfo) bool
	Threshold() int
}

// QualifyNode scores the turn and stores the signals on the conversation
type QualifyNode struct {
	scorer        Scorer
	gate          Gate
	conversations *conversation.Service
}

func NewQualifyNode(scorer Scorer, gate Gate, conversations *conversation.Service) *QualifyNode {
	return &QualifyNode{scorer: scorer, gate: gate, conversations: conversations}
}

// Execute scores the visitor's message. Saving the score is best effort.
func (n *QualifyNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	if input.Conversation == nil {
		return core.NodeOutput{}, errors.New("qualify node needs a conversation")
	}

	q := n.scorer.Score(input.Request.Message, visitorContext(input.History, input.Request.Message))
	qualified := n.gate.Qualifies(q, contactFor(input))

	output := core.NodeOutput{
		Data: map[string]any{
			core.KeyQualification: q,
			core.KeyQualified:     qualified,
		},
	}

	if err := n.conversations.ApplyQualification(ctx, input.Conversation, q, n.gate.Threshold()); err != nil {
		output.Error = err
	} else {
		output.Data[core.KeyConversation] = input.Conversation
	}

	logger.Debug().
		Str("conversation_id", input.Conversation.ID).
		Int("score", q.Score).
		Str("budget", string(q.BudgetRange)).
		Str("timeline", string(q.Timeline)).
		Bool("qualified", qualified).
		Msg("📊 Turn qualified")

	return output, nil
}

func (n *QualifyNode) GetName() string {
	return core.NodeQualify
}

func (n *QualifyNode) GetType() core.NodeType {
	return core.NodeTypeQualify
}

// visitorContext joins what the visitor has said so far, so our own replies never count as signals
func visitorContext(history []pkg.ConversationMessage, current string) string {
	var parts []string
	for _, m := range history {
		if m.Role == pkg.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	parts = append(parts, current)
	return strings.ToLower(strings.Join(parts, "\n"))
}
