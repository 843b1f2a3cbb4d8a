package provider

import (
	"context"
	"fmt"
	"strings"

	"leadchat/pkg"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini API through the genai client
type GeminiProvider struct {
	name        string
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

// GeminiConfig holds what the provider needs to call Gemini
type GeminiConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}
	return &GeminiProvider{
		name:        cfg.Name,
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *GeminiProvider) Name() string {
	return g.name
}

func (g *GeminiProvider) Respond(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case pkg.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case pkg.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	contents = append(contents, genai.NewContentFromText(req.UserMessage, genai.RoleUser))

	temp := g.temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(g.maxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response: %w", ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in Gemini response: %w", ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
