package provider

import (
	"context"
	"fmt"
	"time"

	"leadchat/src/logger"
	"leadchat/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
)

// Names used in LLM_ORDER
const (
	SlotPrimary   = "primary"
	SlotGateway   = "gateway"
	SlotSecondary = "secondary"
)

// BuildProviders creates the hosted providers in config.Order, skipping slots without
// credentials. "gateway" reuses the primary credential against the gateway URL.
func BuildProviders(ctx context.Context, config model.LLMConfig) ([]Provider, error) {
	var providers []Provider

	for _, slot := range config.Order {
		var (
			cfg  model.ProviderConfig
			name string
		)
		switch slot {
		case SlotPrimary:
			cfg, name = config.Primary, config.Primary.Kind
		case SlotGateway:
			if config.Primary.GatewayURL == "" {
				continue
			}
			cfg = config.Primary
			cfg.BaseURL = config.Primary.GatewayURL
			name = config.Primary.Kind + "-gateway"
		case SlotSecondary:
			cfg, name = config.Secondary, config.Secondary.Kind
		default:
			return nil, fmt.Errorf("unknown provider slot %q", slot)
		}

		if !cfg.Enabled() {
			logger.Info().Str("slot", slot).Msg("⏭️ Provider slot not configured, skipping")
			continue
		}

		p, err := NewProvider(ctx, name, cfg, config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", slot, err)
		}
		providers = append(providers, p)
		logger.Info().Str("slot", slot).Str("provider", name).Str("model", cfg.Model).Msg("🔌 Provider ready")
	}

	return providers, nil
}

// NewProvider builds one provider of the configured kind
func NewProvider(ctx context.Context, name string, cfg model.ProviderConfig, timeout time.Duration) (Provider, error) {
	if cfg.Kind == "gemini" {
		return NewGeminiProvider(ctx, GeminiConfig{
			Name:        name,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	}

	chatModel, err := newChatModel(ctx, cfg, timeout)
	if err != nil {
		return nil, err
	}
	return NewChatModelProvider(ctx, name, chatModel)
}

func newChatModel(ctx context.Context, cfg model.ProviderConfig, timeout time.Duration) (einomodel.BaseChatModel, error) {
	switch cfg.Kind {
	case "openai":
		maxTokens := cfg.MaxTokens
		temperature := cfg.Temperature
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     timeout,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})
	case "ollama":
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})
	case "ark":
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: &timeout,
		})
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
