package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"leadchat/internal/core"
	"leadchat/internal/services"
	"leadchat/pkg"
	"leadchat/src/llm/prompt"

	"gopkg.in/yaml.v3"
)

// Content is the site copy the assistant works from: persona, instructions,
// service catalog and industry case studies
type Content struct {
	Persona           string               `yaml:"persona"`
	Instructions      string               `yaml:"instructions"`
	Services          []pkg.ServiceOffering `yaml:"services"`
	Knowledge         []pkg.KnowledgeEntry  `yaml:"knowledge"`
	KnowledgeFallback string               `yaml:"knowledge_fallback"`
}

// DefaultContent returns the built-in copy
func DefaultContent() *Content {
	return &Content{
		Persona:           prompt.DefaultPersona,
		Instructions:      prompt.DefaultInstructions,
		Services:          services.DefaultCatalog(),
		Knowledge:         services.DefaultKnowledge(),
		KnowledgeFallback: services.DefaultKnowledgeFallback,
	}
}

// LoadContent reads a YAML content file. Sections left out of the file keep
// their defaults; an empty path or a missing file yields the defaults.
func LoadContent(path string) (*Content, error) {
	content := DefaultContent()
	if path == "" {
		return content, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return content, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading content file: %w", err)
	}

	var override Content
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("error parsing content YAML: %w", err)
	}

	if override.Persona != "" {
		content.Persona = override.Persona
	}
	if override.Instructions != "" {
		content.Instructions = override.Instructions
	}
	if len(override.Services) > 0 {
		content.Services = override.Services
	}
	if len(override.Knowledge) > 0 {
		content.Knowledge = override.Knowledge
	}
	if override.KnowledgeFallback != "" {
		content.KnowledgeFallback = override.KnowledgeFallback
	}

	for i, s := range content.Services {
		if s.Slug == "" || s.Name == "" {
			return nil, fmt.Errorf("service %d needs a slug and a name", i)
		}
	}
	for i, k := range content.Knowledge {
		if k.Keyword == "" || k.Content == "" {
			return nil, fmt.Errorf("knowledge entry %d needs a keyword and content", i)
		}
	}

	return content, nil
}

// BuildCoreConfig creates the chat pipeline flow
func BuildCoreConfig() core.Config {
	return core.Config{
		Flow: core.GraphFlow{
			StartNode: core.NodeConversation,
			Edges: map[string][]core.GraphEdge{
				core.NodeConversation: {
					{To: core.NodeKnowledge, Priority: 1},
				},
				core.NodeKnowledge: {
					{To: core.NodeCompose, Priority: 1},
				},
				core.NodeCompose: {
					{To: core.NodeResponse, Priority: 1},
				},
				core.NodeResponse: {
					{To: core.NodeQualify, Priority: 1},
				},
				core.NodeQualify: {
					{To: core.NodeRecord, Condition: map[string]any{core.KeyQualified: true}, Priority: 1},
					{To: core.NodeComplete, Priority: 2},
				},
				core.NodeRecord: {
					{To: core.NodeComplete, Priority: 1},
				},
			},
		},
		MaxSteps: 16,
	}
}
