package conversation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"

	"leadchat/pkg"
)

const lockStripes = 64

// Service wraps a Repository with the turn-level operations the chat pipeline needs
type Service struct {
	repo     Repository
	strategy ContextStrategy
	locks    [lockStripes]sync.Mutex
}

func NewService(repo Repository, strategy ContextStrategy) *Service {
	if strategy == nil {
		strategy = NewHistoryStrategy(DefaultHistoryTurns)
	}
	return &Service{repo: repo, strategy: strategy}
}

// Lock serialises turns on one conversation within this process and returns the unlock func
func (s *Service) Lock(conversationID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(conversationID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Resolve loads conversationID, or creates a fresh conversation when the id is empty or unknown
func (s *Service) Resolve(ctx context.Context, conversationID, sessionID string, metadata map[string]any) (*pkg.Conversation, bool, error) {
	if conversationID != "" {
		conv, err := s.repo.FindConversation(ctx, conversationID)
		if err == nil {
			return conv, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	conv, err := s.repo.CreateConversation(ctx, sessionID, metadata)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, true, nil
}

// SaveUserMessage appends the visitor's message
func (s *Service) SaveUserMessage(ctx context.Context, conversationID, content string) error {
	_, err := s.repo.AppendMessage(ctx, conversationID, pkg.RoleUser, content)
	return err
}

// SaveResponse saves the assistant's response to conversation history
func (s *Service) SaveResponse(ctx context.Context, conversationID, content string) error {
	_, err := s.repo.AppendMessage(ctx, conversationID, pkg.RoleAssistant, content)
	return err
}

// RecentHistory returns the window of messages the strategy keeps, oldest first
func (s *Service) RecentHistory(ctx context.Context, conversationID string) ([]pkg.ConversationMessage, error) {
	messages, err := s.repo.ListMessages(ctx, conversationID, s.strategy.GetMaxTurns())
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := make([]pkg.ConversationMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, pkg.ConversationMessage{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

// BuildContext formats history for prompts and the qualifier
func (s *Service) BuildContext(history []pkg.ConversationMessage) string {
	return s.strategy.BuildContext(history)
}

// ApplyQualification stores the latest score and signals on the conversation.
// Detected budget and timeline replace earlier ones; pain tags accumulate.
func (s *Service) ApplyQualification(ctx context.Context, conv *pkg.Conversation, q pkg.Qualification, threshold int) error {
	conv.LeadScore = q.Score
	if q.BudgetRange != "" {
		conv.BudgetRange = q.BudgetRange
	}
	if q.Timeline != "" {
		conv.Timeline = q.Timeline
	}
	conv.PainPoints = MergeTags(conv.PainPoints, q.PainPoints)
	if q.RecommendedService != "" {
		conv.RecommendedService = q.RecommendedService
	}
	if q.Score >= threshold && conv.Status == pkg.ConversationActive {
		conv.Status = pkg.ConversationQualified
	}
	return s.repo.UpdateConversation(ctx, conv)
}

// MergeTags appends the tags from incoming that current does not have yet
func MergeTags(current, incoming []string) []string {
	merged := slices.Clone(current)
	for _, tag := range incoming {
		if tag != "" && !slices.Contains(merged, tag) {
			merged = append(merged, tag)
		}
	}
	return merged
}
