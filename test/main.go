package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"leadchat/internal/config"
	"leadchat/internal/core"
	"leadchat/internal/leads"
	"leadchat/internal/nodes"
	"leadchat/internal/services"
	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/llm/prompt"
	"leadchat/src/llm/provider"
)

// printNotifier stands in for email so the demo runs offline
type printNotifier struct{}

func (printNotifier) NotifyLead(ctx context.Context, lead *pkg.Lead) error {
	fmt.Printf("📧 Would notify: %s <%s> scored %d (%s)\n", lead.Name, lead.Email, lead.Score, lead.RecommendedService)
	return nil
}

func demoConversation() {
	ctx := context.Background()

	content := config.DefaultContent()
	repo := conversation.NewMemoryRepository()
	conversations := conversation.NewService(repo, conversation.NewHistoryStrategy(conversation.DefaultHistoryTurns))
	knowledge := services.NewKnowledgeBase(content.Knowledge, content.KnowledgeFallback)

	// no hosted providers: every reply comes from the local fallback responder
	chain := provider.NewChain(nil, provider.NewFallbackResponder(content.Services, knowledge), 5*time.Second)

	pipeline, err := nodes.NewPipeline(config.BuildCoreConfig(), nodes.Dependencies{
		Conversations: conversations,
		Knowledge:     knowledge,
		Composer:      prompt.NewComposer(content.Persona, content.Instructions),
		Services:      content.Services,
		Responder:     chain,
		Qualifier:     leads.NewQualifier(),
		Recorder:      leads.NewRecorder(repo, printNotifier{}, leads.DefaultThreshold),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	contact := pkg.ContactInfo{Name: "Jordan", Email: "jordan@example.com", Company: "Harbor Bistro Group"}
	script := []string{
		"Hi there!",
		"We run three restaurants and phone orders are a bottleneck.",
		"What does pricing look like?",
		"I'm the owner. We have about $40k set aside and want something live next month.",
	}

	conversationID := ""
	for i, message := range script {
		out, err := pipeline.Execute(ctx, core.ProcessorInput{
			Message:        message,
			ConversationID: conversationID,
			Contact:        contact,
		})
		if err != nil {
			log.Fatalf("Turn %d failed: %v", i+1, err)
		}
		conversationID = out.ConversationID

		fmt.Printf("\n👤 %s\n", message)
		fmt.Printf("🤖 [%s] %s\n", out.Provider, out.Response)
		fmt.Printf("📊 score=%d budget=%s timeline=%s recommended=%s lead=%s\n",
			out.Qualification.Score, out.Qualification.BudgetRange, out.Qualification.Timeline,
			out.Qualification.RecommendedService, out.LeadOutcome)
	}

	conv, err := repo.FindConversation(ctx, conversationID)
	if err != nil {
		log.Fatalf("Failed to load conversation: %v", err)
	}
	messages, err := repo.ListMessages(ctx, conversationID, 0)
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	fmt.Printf("\n🗂️ Conversation %s: status=%s score=%d messages=%d leads=%d\n",
		conv.ID, conv.Status, conv.LeadScore, len(messages), len(repo.Leads()))
	fmt.Println("✅ Demo completed")
}

func main() {
	fmt.Println("🚀 Starting lead chat demo")
	demoConversation()
}
