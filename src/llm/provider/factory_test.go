package provider

import (
	"context"
	"testing"
	"time"

	"leadchat/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerNames(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}

func TestBuildProviders(t *testing.T) {
	openaiPrimary := model.ProviderConfig{Kind: "openai", APIKey: "sk-test", Model: "gpt-4o-mini", MaxTokens: 256}
	withGateway := openaiPrimary
	withGateway.GatewayURL = "http://gateway.local/v1"
	geminiSecondary := model.ProviderConfig{Kind: "gemini", APIKey: "g-test", Model: "gemini-2.5-flash", BaseURL: "http://gemini.local"}

	tests := []struct {
		name    string
		config  model.LLMConfig
		want    []string
		wantErr string
	}{
		{
			name: "primary gateway secondary in order",
			config: model.LLMConfig{
				Order:     []string{SlotPrimary, SlotGateway, SlotSecondary},
				Primary:   withGateway,
				Secondary: geminiSecondary,
			},
			want: []string{"openai", "openai-gateway", "gemini"},
		},
		{
			name: "gateway skipped without url",
			config: model.LLMConfig{
				Order:     []string{SlotPrimary, SlotGateway, SlotSecondary},
				Primary:   openaiPrimary,
				Secondary: geminiSecondary,
			},
			want: []string{"openai", "gemini"},
		},
		{
			name: "order is respected",
			config: model.LLMConfig{
				Order:     []string{SlotSecondary, SlotPrimary},
				Primary:   openaiPrimary,
				Secondary: geminiSecondary,
			},
			want: []string{"gemini", "openai"},
		},
		{
			name: "unconfigured slots skipped",
			config: model.LLMConfig{
				Order:     []string{SlotPrimary, SlotGateway, SlotSecondary},
				Primary:   model.ProviderConfig{Kind: "openai"},
				Secondary: geminiSecondary,
			},
			want: []string{"gemini"},
		},
		{
			name:   "nothing configured",
			config: model.LLMConfig{Order: []string{SlotPrimary, SlotGateway, SlotSecondary}},
			want:   []string{},
		},
		{
			name:    "unknown slot",
			config:  model.LLMConfig{Order: []string{SlotPrimary, "tertiary"}, Primary: openaiPrimary},
			wantErr: `unknown provider slot "tertiary"`,
		},
		{
			name: "unknown kind",
			config: model.LLMConfig{
				Order:   []string{SlotPrimary},
				Primary: model.ProviderConfig{Kind: "mystery", APIKey: "k"},
			},
			wantErr: `unknown provider kind "mystery"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Timeout = time.Second
			providers, err := BuildProviders(context.Background(), tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, providerNames(providers))
		})
	}
}

func TestNewProviderKinds(t *testing.T) {
	for _, kind := range []string{"openai", "deepseek", "ollama", "ark", "gemini"} {
		t.Run(kind, func(t *testing.T) {
			p, err := NewProvider(context.Background(), kind, model.ProviderConfig{
				Kind:    kind,
				APIKey:  "key",
				BaseURL: "http://127.0.0.1:1",
				Model:   "test-model",
			}, time.Second)
			require.NoError(t, err)
			assert.Equal(t, kind, p.Name())
		})
	}
}
