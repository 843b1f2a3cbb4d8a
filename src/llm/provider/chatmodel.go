package provider

import (
	"context"
	"fmt"

	"leadchat/pkg"
	"leadchat/src/llm/prompt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ChatModelProvider runs an eino chain of chat template -> chat model
type ChatModelProvider struct {
	name     string
	runnable compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModelProvider compiles the turn template in front of chatModel
func NewChatModelProvider(ctx context.Context, name string, chatModel model.BaseChatModel) (*ChatModelProvider, error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.
		AppendChatTemplate(prompt.NewChatTemplate()).
		AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s chain: %w", name, err)
	}

	return &ChatModelProvider{name: name, runnable: runnable}, nil
}

func (p *ChatModelProvider) Name() string {
	return p.name
}

func (p *ChatModelProvider) Respond(ctx context.Context, req Request) (string, error) {
	out, err := p.runnable.Invoke(ctx, map[string]any{
		prompt.VarSystemPrompt: req.SystemPrompt,
		prompt.VarHistory:      toSchemaMessages(req.History),
		prompt.VarUserMessage:  req.UserMessage,
	})
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", ErrEmptyResponse
	}
	return out.Content, nil
}

func toSchemaMessages(history []pkg.ConversationMessage) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case pkg.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case pkg.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	return msgs
}
