package nodes

import (
	"context"

	"leadchat/internal/core"
	"leadchat/pkg"
	"leadchat/src/llm/prompt"
)

// HistoryFormatter renders conversation history as prompt text
type HistoryFormatter interface {
	BuildContext(history []pkg.ConversationMessage) string
}

// PromptNode assembles the system prompt for the turn
type PromptNode struct {
	composer *prompt.Composer
	services []pkg.ServiceOffering
	history  HistoryFormatter
}

func NewPromptNode(composer *prompt.Composer, services []pkg.ServiceOffering, history HistoryFormatter) *PromptNode {
	return &PromptNode{composer: composer, services: services, history: history}
}

func (n *PromptNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	systemPrompt := n.composer.Compose(input.Knowledge, n.services, n.history.BuildContext(input.History))
	return core.NodeOutput{
		Data: map[string]any{
			core.KeySystemPrompt: systemPrompt,
		},
	}, nil
}

func (n *PromptNode) GetName() string {
	return core.NodeCompose
}

func (n *PromptNode) GetType() core.NodeType {
	return core.NodeTypePrompt
}
