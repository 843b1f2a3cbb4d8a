package prompt

import (
	"context"
	"strings"
	"testing"

	"leadchat/pkg"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeOrder(t *testing.T) {
	c := NewComposer("PERSONA", "INSTRUCTIONS")
	services := []pkg.ServiceOffering{
		{Name: "Sprint", Price: "$15k", Duration: "4 weeks", IdealFor: "one workflow"},
	}

	got := c.Compose("KNOWLEDGE", services, "user: hi\nassistant: hello")

	idx := func(s string) int { return strings.Index(got, s) }
	require.True(t, strings.HasPrefix(got, "PERSONA"))
	assert.Less(t, idx("PERSONA"), idx("KNOWLEDGE"))
	assert.Less(t, idx("KNOWLEDGE"), idx("- Sprint ($15k, 4 weeks): ideal for one workflow"))
	assert.Less(t, idx("Sprint"), idx("user: hi\nassistant: hello"))
	assert.Less(t, idx("assistant: hello"), idx("INSTRUCTIONS"))
}

func TestComposeIsPure(t *testing.T) {
	c := NewComposer("", "")
	a := c.Compose("k", nil, "")
	b := c.Compose("k", nil, "")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "(new conversation)")
	assert.Contains(t, a, DefaultPersona)
}

func TestChatTemplateKeepsBraces(t *testing.T) {
	msgs, err := NewChatTemplate().Format(context.Background(), map[string]any{
		VarSystemPrompt: "system with {braces}",
		VarHistory:      []*schema.Message{schema.UserMessage("earlier"), schema.AssistantMessage("reply", nil)},
		VarUserMessage:  "what about {this}?",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "system with {braces}", msgs[0].Content)
	assert.Equal(t, "earlier", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, "what about {this}?", msgs[3].Content)
}
