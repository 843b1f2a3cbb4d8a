package nodes

import (
	"context"

	"leadchat/internal/core"
)

// Searcher returns relevant case-study text for a query
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// KnowledgeNode looks up case studies related to the visitor's message
type KnowledgeNode struct {
	knowledge Searcher
}

func NewKnowledgeNode(knowledge Searcher) *KnowledgeNode {
	return &KnowledgeNode{knowledge: knowledge}
}

func (n *KnowledgeNode) Execute(ctx context.Context, input core.NodeInput) (core.NodeOutput, error) {
	return core.NodeOutput{
		Data: map[string]any{
			core.KeyKnowledge: n.knowledge.Search(ctx, input.Request.Message),
		},
	}, nil
}

func (n *KnowledgeNode) GetName() string {
	return core.NodeKnowledge
}

func (n *KnowledgeNode) GetType() core.NodeType {
	return core.NodeTypeKnowledge
}
