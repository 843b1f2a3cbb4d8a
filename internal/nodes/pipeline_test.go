package nodes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadchat/internal/config"
	"leadchat/internal/core"
	"leadchat/internal/leads"
	"leadchat/internal/services"
	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/llm/prompt"
	"leadchat/src/llm/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error

	mu       sync.Mutex
	requests []provider.Request
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Respond(ctx context.Context, req provider.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.reply, s.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []*pkg.Lead
}

func (r *recordingNotifier) NotifyLead(ctx context.Context, lead *pkg.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type pipelineFixture struct {
	processor *core.DefaultGraphProcessor
	repo      *conversation.MemoryRepository
	llm       *scriptedProvider
	notifier  *recordingNotifier
}

func newPipelineFixture(t *testing.T, reply string, llmErr error) *pipelineFixture {
	t.Helper()

	content := config.DefaultContent()
	repo := conversation.NewMemoryRepository()
	convs := conversation.NewService(repo, conversation.NewHistoryStrategy(conversation.DefaultHistoryTurns))
	kb := services.NewKnowledgeBase(content.Knowledge, content.KnowledgeFallback)
	llm := &scriptedProvider{reply: reply, err: llmErr}
	notifier := &recordingNotifier{}

	processor, err := NewPipeline(config.BuildCoreConfig(), Dependencies{
		Conversations: convs,
		Knowledge:     kb,
		Composer:      prompt.NewComposer(content.Persona, content.Instructions),
		Services:      content.Services,
		Responder:     provider.NewChain([]provider.Provider{llm}, provider.NewFallbackResponder(content.Services, kb), time.Second),
		Qualifier:     leads.NewQualifier(),
		Recorder:      leads.NewRecorder(repo, notifier, leads.DefaultThreshold),
	})
	require.NoError(t, err)

	return &pipelineFixture{processor: processor, repo: repo, llm: llm, notifier: notifier}
}

const hotLead = "I'm the owner of a restaurant group and we're losing customers to slow replies. Budget is around $60k and we need this ASAP."

func TestPipelineNewConversation(t *testing.T) {
	f := newPipelineFixture(t, "Hello! What does your business do?", nil)
	ctx := context.Background()

	out, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ConversationID)
	assert.Equal(t, "Hello! What does your business do?", out.Response)
	assert.Equal(t, "scripted", out.Provider)
	assert.Equal(t, 0, out.Qualification.Score)
	assert.Empty(t, out.LeadOutcome)

	messages, err := f.repo.ListMessages(ctx, out.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, pkg.RoleUser, messages[0].Role)
	assert.Equal(t, pkg.RoleAssistant, messages[1].Role)
}

func TestPipelineCarriesHistoryAndKnowledge(t *testing.T) {
	f := newPipelineFixture(t, "Tell me more.", nil)
	ctx := context.Background()

	first, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "hi"})
	require.NoError(t, err)
	_, err = f.processor.Execute(ctx, core.ProcessorInput{Message: "we run an hvac company", ConversationID: first.ConversationID})
	require.NoError(t, err)

	require.Len(t, f.llm.requests, 2)
	second := f.llm.requests[1]
	assert.Equal(t, "we run an hvac company", second.UserMessage)
	require.Len(t, second.History, 2)
	assert.Equal(t, "hi", second.History[0].Content)
	assert.Contains(t, second.SystemPrompt, "user: hi")
	assert.Contains(t, second.SystemPrompt, "HVAC")
}

func TestPipelineRecordsQualifiedLeadOnce(t *testing.T) {
	f := newPipelineFixture(t, "Let's book a call.", nil)
	ctx := context.Background()
	contact := pkg.ContactInfo{Name: "Dana", Email: "dana@example.com", Company: "Bistro Co"}

	out, err := f.processor.Execute(ctx, core.ProcessorInput{Message: hotLead, Contact: contact})
	require.NoError(t, err)

	assert.Equal(t, 100, out.Qualification.Score)
	assert.Equal(t, pkg.Budget50kPlus, out.Qualification.BudgetRange)
	assert.Equal(t, pkg.ServiceTransformation, out.Qualification.RecommendedService)
	assert.Equal(t, string(leads.OutcomeCreated), out.LeadOutcome)
	assert.Equal(t, 1, f.notifier.count())

	conv, err := f.repo.FindConversation(ctx, out.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, pkg.ConversationQualified, conv.Status)
	assert.Equal(t, 100, conv.LeadScore)
	assert.Contains(t, conv.PainPoints, pkg.PainHighUrgency)

	// contact details remembered from the first turn still count
	again, err := f.processor.Execute(ctx, core.ProcessorInput{Message: hotLead, ConversationID: out.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, string(leads.OutcomeUpdated), again.LeadOutcome)
	assert.Equal(t, 1, f.notifier.count())

	stored := f.repo.Leads()
	require.Len(t, stored, 1)
	assert.Equal(t, "dana@example.com", stored[0].Email)
	assert.Equal(t, "Bistro Co", stored[0].Company)
}

func TestPipelineHighScoreWithoutEmailRecordsNothing(t *testing.T) {
	f := newPipelineFixture(t, "Sounds urgent.", nil)

	out, err := f.processor.Execute(context.Background(), core.ProcessorInput{Message: hotLead})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, out.Qualification.Score, leads.DefaultThreshold)
	assert.Empty(t, out.LeadOutcome)
	assert.Empty(t, f.repo.Leads())
	assert.Equal(t, 0, f.notifier.count())
}

func TestPipelineUnknownConversationStartsFresh(t *testing.T) {
	f := newPipelineFixture(t, "Hi!", nil)

	out, err := f.processor.Execute(context.Background(), core.ProcessorInput{Message: "hello", ConversationID: "does-not-exist"})
	require.NoError(t, err)
	assert.NotEqual(t, "does-not-exist", out.ConversationID)
	assert.Equal(t, true, out.Metadata["conversation_created"])
}

func TestPipelineAssistantTextIsNotASignal(t *testing.T) {
	f := newPipelineFixture(t, "Happy to explore options and help you learn what's possible.", nil)
	ctx := context.Background()

	first, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "hi"})
	require.NoError(t, err)
	second, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "ok", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Empty(t, second.Qualification.RecommendedService)

	third, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "I want to learn what AI could do for us", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, pkg.ServiceStrategySession, third.Qualification.RecommendedService)
}

func TestPipelineFallsBackWhenProvidersFail(t *testing.T) {
	f := newPipelineFixture(t, "", errors.New("status 502"))

	out, err := f.processor.Execute(context.Background(), core.ProcessorInput{Message: "how much does this cost?"})
	require.NoError(t, err)
	assert.Equal(t, provider.FallbackName, out.Provider)
	assert.NotEmpty(t, out.Response)
	require.Len(t, out.Attempts, 2)
	assert.False(t, out.Attempts[0].Success)
}

func TestPipelineConcurrentTurnsKeepOrder(t *testing.T) {
	f := newPipelineFixture(t, "noted", nil)
	ctx := context.Background()

	first, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "start"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.Execute(ctx, core.ProcessorInput{Message: "more", ConversationID: first.ConversationID})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	messages, err := f.repo.ListMessages(ctx, first.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 18)
	for i, m := range messages {
		if i%2 == 0 {
			assert.Equal(t, pkg.RoleUser, m.Role)
		} else {
			assert.Equal(t, pkg.RoleAssistant, m.Role)
		}
	}
}
