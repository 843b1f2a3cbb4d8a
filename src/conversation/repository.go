package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadchat/pkg"
	"leadchat/src/model"
	"leadchat/src/storage"
)

// ErrNotFound is returned when a conversation or lead does not exist
var ErrNotFound = errors.New("not found")

// Repository persists conversations and their messages
type Repository interface {
	FindConversation(ctx context.Context, id string) (*pkg.Conversation, error)
	CreateConversation(ctx context.Context, sessionID string, metadata map[string]any) (*pkg.Conversation, error)
	UpdateConversation(ctx context.Context, conversation *pkg.Conversation) error
	AppendMessage(ctx context.Context, conversationID string, role pkg.Role, content string) (*pkg.Message, error)
	// ListMessages returns up to limit of the most recent messages, oldest first. limit <= 0 means all.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]pkg.Message, error)
}

// Store is a Repository that also keeps leads
type Store interface {
	Repository

	FindLeadByConversation(ctx context.Context, conversationID string) (*pkg.Lead, error)
	CreateLead(ctx context.Context, lead *pkg.Lead) error
	UpdateLead(ctx context.Context, lead *pkg.Lead) error

	HealthCheck(ctx context.Context) error
	Close() error
}

// OpenStore builds the Store selected by config.Backend
func OpenStore(ctx context.Context, config model.StoreConfig) (Store, error) {
	switch config.Backend {
	case "", "memory":
		return NewMemoryRepository(), nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisRepository(client, config.ConversationTTL), nil
	case "sqlite":
		return NewSQLiteRepository(config.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Backend)
	}
}

func newConversation(id, sessionID string, metadata map[string]any, now time.Time) *pkg.Conversation {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &pkg.Conversation{
		ID:        id,
		SessionID: sessionID,
		Status:    pkg.ConversationActive,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
