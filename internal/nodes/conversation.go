package nodes

import (
	"context"
	"fmt"

	"leadchat/internal/core"
	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/logger"
)

// ConversationNode loads or creates the conversation and persists the visitor's message
type ConversationNode struct {
	conversations *conversation.Service
}

// NewConversationNode creates a new conversation node
func NewConversationNode(conversations *conversation.Service) *ConversationNode {
	return &ConversationNode{conversations: conversations}
}

// Execute resolves the conversation, loads prior history and appends the user message.
// Store failures here are fatal for the turn.
func (n *ConversationNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	req := input.Request

	conv, created, err := n.conversations.Resolve(ctx, req.ConversationID, req.SessionID, contactMetadata(req.Contact))
	if err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to resolve conversation: %w", err)
	}
	if created {
		logger.Info().Str("conversation_id", conv.ID).Str("requested_id", req.ConversationID).Msg("🆕 Conversation created")
	}

	// history is read before the new message is stored; the turn itself goes in as the user message
	history, err := n.conversations.RecentHistory(ctx, conv.ID)
	if err != nil {
		return core.NodeOutput{}, err
	}

	if err := n.conversations.SaveUserMessage(ctx, conv.ID, req.Message); err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to save user message: %w", err)
	}

	logger.Debug().Str("conversation_id", conv.ID).Int("history", len(history)).Msg("📱 Conversation loaded")

	return core.NodeOutput{
		Data: map[string]any{
			core.KeyConversation: conv,
			core.KeyHistory:      history,
			core.KeyCreated:      created,
		},
	}, nil
}

// GetName returns the node name
func (n *ConversationNode) GetName() string {
	return core.NodeConversation
}

// GetType returns the node type
func (n *ConversationNode) GetType() core.NodeType {
	return core.NodeTypeConversation
}

func contactMetadata(contact pkg.ContactInfo) map[string]any {
	metadata := make(map[string]any)
	for key, value := range map[string]string{
		"name":    contact.Name,
		"email":   contact.Email,
		"company": contact.Company,
		"phone":   contact.Phone,
	} {
		if value != "" {
			metadata[key] = value
		}
	}
	return metadata
}

// contactFor prefers the contact details sent with this turn and fills gaps from
// what the conversation remembered when it was created
func contactFor(input core.NodeInput) pkg.ContactInfo {
	contact := input.Request.Contact
	if input.Conversation == nil {
		return contact
	}

	fill := func(field *string, key string) {
		if *field != "" {
			return
		}
		if value, ok := input.Conversation.Metadata[key].(string); ok {
			*field = value
		}
	}
	fill(&contact.Name, "name")
	fill(&contact.Email, "email")
	fill(&contact.Company, "company")
	fill(&contact.Phone, "phone")
	return contact
}
