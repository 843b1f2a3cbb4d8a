package services

import (
	"context"
	"strings"

	"leadchat/pkg"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// DefaultKnowledgeFallback is returned by Search when no industry keyword matches
const DefaultKnowledgeFallback = "We have helped businesses across many industries automate repetitive work, " +
	"answer customers faster and make better use of their data."

// DefaultKnowledge returns the built-in industry case studies
func DefaultKnowledge() []pkg.KnowledgeEntry {
	return []pkg.KnowledgeEntry{
		{
			ID:      "restaurant",
			Keyword: "restaurant",
			Content: "Restaurant case study: an AI reservation and ordering assistant cut missed calls by 80% and lifted weekend covers by 15%.",
		},
		{
			ID:      "hvac",
			Keyword: "hvac",
			Content: "HVAC case study: automated call triage and scheduling let a 12-truck contractor book 30% more service calls without new dispatch staff.",
		},
		{
			ID:      "manufacturing",
			Keyword: "manufact",
			Content: "Manufacturing case study: predictive maintenance on line sensors reduced unplanned downtime by 25% in the first quarter.",
		},
		{
			ID:      "healthcare",
			Keyword: "health",
			Content: "Healthcare case study: an intake and follow-up assistant saved a clinic group 20 staff hours a week while staying HIPAA compliant.",
		},
		{
			ID:      "ecommerce",
			Keyword: "ecommerce",
			Content: "E-commerce case study: AI product recommendations and support automation raised average order value by 18% and halved ticket backlog.",
		},
		{
			ID:      "legal",
			Keyword: "law firm",
			Content: "Legal case study: document review automation let a mid-size law firm turn contract summaries around in hours instead of days.",
		},
		{
			ID:      "real_estate",
			Keyword: "real estate",
			Content: "Real estate case study: a lead-response assistant answered every inquiry within a minute and doubled showing bookings.",
		},
	}
}

// KnowledgeBase answers with canned case studies for industry keywords found in a query.
// It implements the eino retriever.Retriever interface so it can sit in an eino chain.
type KnowledgeBase struct {
	entries  []pkg.KnowledgeEntry
	fallback string
}

// NewKnowledgeBase creates a knowledge base; empty inputs fall back to the built-in defaults
func NewKnowledgeBase(entries []pkg.KnowledgeEntry, fallback string) *KnowledgeBase {
	if len(entries) == 0 {
		entries = DefaultKnowledge()
	}
	if fallback == "" {
		fallback = DefaultKnowledgeFallback
	}
	return &KnowledgeBase{entries: entries, fallback: fallback}
}

// Retrieve returns one document per matching keyword, in table order
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	options := retriever.GetCommonOptions(&retriever.Options{}, opts...)

	queryLower := strings.ToLower(query)
	var docs []*schema.Document
	for _, entry := range kb.entries {
		if !strings.Contains(queryLower, strings.ToLower(entry.Keyword)) {
			continue
		}
		docs = append(docs, &schema.Document{
			ID:       entry.ID,
			Content:  entry.Content,
			MetaData: map[string]any{"keyword": entry.Keyword},
		})
		if options.TopK != nil && *options.TopK > 0 && len(docs) >= *options.TopK {
			break
		}
	}
	return docs, nil
}

// Search joins every matching case study with newlines, or returns the fallback sentence
func (kb *KnowledgeBase) Search(ctx context.Context, query string) string {
	docs, _ := kb.Retrieve(ctx, query)
	if len(docs) == 0 {
		return kb.fallback
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n")
}

var _ retriever.Retriever = (*KnowledgeBase)(nil)
