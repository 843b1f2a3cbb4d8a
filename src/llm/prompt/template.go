package prompt

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template variable names
const (
	VarSystemPrompt = "system_prompt"
	VarHistory      = "history"
	VarUserMessage  = "user_message"
)

// NewChatTemplate lays out a turn as system prompt, prior messages, then the visitor message.
// Values are substituted once; braces inside them are not re-parsed.
func NewChatTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage("{"+VarSystemPrompt+"}"),
		schema.MessagesPlaceholder(VarHistory, true),
		schema.UserMessage("{"+VarUserMessage+"}"),
	)
}
