package nodes

import (
	"context"

	"leadchat/internal/core"
	"leadchat/internal/leads"
	"leadchat/pkg"
)

// LeadRecorder persists qualified leads
type LeadRecorder interface {
	MaybeRecord(ctx context.Context, conversationID string, contact pkg.ContactInfo, q pkg.Qualification) leads.Outcome
}

// RecordNode hands a qualified turn to the lead recorder. It never fails the turn.
type RecordNode struct {
	recorder LeadRecorder
}

func NewRecordNode(recorder LeadRecorder) *RecordNode {
	return &RecordNode{recorder: recorder}
}

func (n *RecordNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	if input.Conversation == nil || input.Qualification == nil {
		return core.NodeOutput{Complete: true}, nil
	}

	outcome := n.recorder.MaybeRecord(ctx, input.Conversation.ID, contactFor(input), *input.Qualification)
	return core.NodeOutput{
		Data: map[string]any{
			core.KeyLeadOutcome: string(outcome),
		},
		Complete: true,
	}, nil
}

func (n *RecordNode) GetName() string {
	return core.NodeRecord
}

func (n *RecordNode) GetType() core.NodeType {
	return core.NodeTypeRecord
}
