package nodes

import (
	"context"
	"errors"
	"fmt"

	"leadchat/internal/core"
	"leadchat/src/conversation"
	"leadchat/src/llm/provider"
	"leadchat/src/logger"
)

// Responder produces the assistant reply; provider.Chain always answers
type Responder interface {
	Respond(ctx context.Context, req provider.Request) provider.Result
}

// ResponseNode asks the provider chain for a reply and stores it
type ResponseNode struct {
	responder     Responder
	conversations *conversation.Service
}

// NewResponseNode creates a new response generation node
func NewResponseNode(responder Responder, conversations *conversation.Service) *ResponseNode {
	return &ResponseNode{responder: responder, conversations: conversations}
}

// Execute generates the reply and appends it to the conversation
func (r *ResponseNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	if input.Conversation == nil {
		return core.NodeOutput{}, errors.New("response node needs a conversation")
	}

	result := r.responder.Respond(ctx, provider.Request{
		SystemPrompt: input.SystemPrompt,
		UserMessage:  input.Request.Message,
		History:      input.History,
	})

	if err := r.conversations.SaveResponse(ctx, input.Conversation.ID, result.Text); err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to save assistant message: %w", err)
	}

	logger.Debug().
		Str("conversation_id", input.Conversation.ID).
		Str("provider", result.Provider).
		Int("attempts", len(result.Attempts)).
		Int("length", len(result.Text)).
		Msg("💬 Response generated")

	return core.NodeOutput{
		Data: map[string]any{
			core.KeyResponse: result.Text,
			core.KeyProvider: result.Provider,
			core.KeyAttempts: result.Attempts,
		},
	}, nil
}

// GetName returns the node name
func (r *ResponseNode) GetName() string {
	return core.NodeResponse
}

// GetType returns the node type
func (r *ResponseNode) GetType() core.NodeType {
	return core.NodeTypeResponse
}
