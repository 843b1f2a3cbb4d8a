package conversation

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"leadchat/pkg"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Store for development and tests.
// Returned values are copies; callers never share state with the store.
type MemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]*pkg.Conversation
	messages      map[string][]pkg.Message
	leads         map[string]*pkg.Lead // keyed by conversation ID
	now           func() time.Time
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		conversations: make(map[string]*pkg.Conversation),
		messages:      make(map[string][]pkg.Message),
		leads:         make(map[string]*pkg.Lead),
		now:           time.Now,
	}
}

func (m *MemoryRepository) FindConversation(ctx context.Context, id string) (*pkg.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return copyConversation(conv), nil
}

func (m *MemoryRepository) CreateConversation(ctx context.Context, sessionID string, metadata map[string]any) (*pkg.Conversation, error) {
	conv := newConversation(uuid.NewString(), sessionID, metadata, m.now())

	m.mu.Lock()
	m.conversations[conv.ID] = copyConversation(conv)
	m.mu.Unlock()

	return conv, nil
}

func (m *MemoryRepository) UpdateConversation(ctx context.Context, conversation *pkg.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversation.ID]; !ok {
		return fmt.Errorf("conversation %s: %w", conversation.ID, ErrNotFound)
	}
	conversation.UpdatedAt = m.now()
	m.conversations[conversation.ID] = copyConversation(conversation)
	return nil
}

func (m *MemoryRepository) AppendMessage(ctx context.Context, conversationID string, role pkg.Role, content string) (*pkg.Message, error) {
	msg := pkg.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)

	return &msg, nil
}

func (m *MemoryRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]pkg.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return slices.Clone(all), nil
}

func (m *MemoryRepository) FindLeadByConversation(ctx context.Context, conversationID string) (*pkg.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[conversationID]
	if !ok {
		return nil, fmt.Errorf("lead for conversation %s: %w", conversationID, ErrNotFound)
	}
	return copyLead(lead), nil
}

func (m *MemoryRepository) CreateLead(ctx context.Context, lead *pkg.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.leads[lead.ConversationID]; exists {
		return fmt.Errorf("lead for conversation %s already exists", lead.ConversationID)
	}
	m.leads[lead.ConversationID] = copyLead(lead)
	return nil
}

func (m *MemoryRepository) UpdateLead(ctx context.Context, lead *pkg.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.leads[lead.ConversationID]; !exists {
		return fmt.Errorf("lead for conversation %s: %w", lead.ConversationID, ErrNotFound)
	}
	m.leads[lead.ConversationID] = copyLead(lead)
	return nil
}

// Leads returns every stored lead; used by the demo and tests
func (m *MemoryRepository) Leads() []pkg.Lead {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]pkg.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		out = append(out, *copyLead(lead))
	}
	return out
}

func (m *MemoryRepository) HealthCheck(ctx context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }

func copyConversation(c *pkg.Conversation) *pkg.Conversation {
	out := *c
	out.PainPoints = slices.Clone(c.PainPoints)
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func copyLead(l *pkg.Lead) *pkg.Lead {
	out := *l
	out.PainPoints = slices.Clone(l.PainPoints)
	return &out
}
