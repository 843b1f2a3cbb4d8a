package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadchat/pkg"
	"leadchat/src/logger"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores conversations as JSON documents and messages as Redis lists.
//
//	conversation:{id}           conversation JSON
//	conversation:{id}:messages  RPUSH'd message JSON, oldest first
//	conversation:{id}:lead      lead ID owned by the conversation
//	lead:{id}                   lead JSON
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps conversations forever
	now    func() time.Time
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func conversationKey(id string) string { return "conversation:" + id }
func messagesKey(id string) string     { return "conversation:" + id + ":messages" }
func leadIndexKey(id string) string    { return "conversation:" + id + ":lead" }
func leadKey(id string) string         { return "lead:" + id }

func (r *RedisRepository) FindConversation(ctx context.Context, id string) (*pkg.Conversation, error) {
	data, err := r.client.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv pkg.Conversation
	if err := sonic.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	// Refresh TTL
	r.touch(ctx, id)
	return &conv, nil
}

func (r *RedisRepository) CreateConversation(ctx context.Context, sessionID string, metadata map[string]any) (*pkg.Conversation, error) {
	conv := newConversation(uuid.NewString(), sessionID, metadata, r.now())
	if err := r.save(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *RedisRepository) UpdateConversation(ctx context.Context, conversation *pkg.Conversation) error {
	exists, err := r.client.Exists(ctx, conversationKey(conversation.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("conversation %s: %w", conversation.ID, ErrNotFound)
	}

	conversation.UpdatedAt = r.now()
	return r.save(ctx, conversation)
}

func (r *RedisRepository) save(ctx context.Context, conv *pkg.Conversation) error {
	data, err := sonic.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := r.client.Set(ctx, conversationKey(conv.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *RedisRepository) AppendMessage(ctx context.Context, conversationID string, role pkg.Role, content string) (*pkg.Message, error) {
	msg := &pkg.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      r.now(),
	}

	exists, err := r.client.Exists(ctx, conversationKey(conversationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check conversation: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}

	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := r.client.RPush(ctx, messagesKey(conversationID), data).Err(); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	r.touch(ctx, conversationID)

	return msg, nil
}

func (r *RedisRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]pkg.Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	raw, err := r.client.LRange(ctx, messagesKey(conversationID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]pkg.Message, 0, len(raw))
	for _, item := range raw {
		var msg pkg.Message
		if err := sonic.UnmarshalString(item, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisRepository) FindLeadByConversation(ctx context.Context, conversationID string) (*pkg.Lead, error) {
	leadID, err := r.client.Get(ctx, leadIndexKey(conversationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("lead for conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up lead: %w", err)
	}

	data, err := r.client.Get(ctx, leadKey(leadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}

	var lead pkg.Lead
	if err := sonic.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead: %w", err)
	}
	return &lead, nil
}

func (r *RedisRepository) CreateLead(ctx context.Context, lead *pkg.Lead) error {
	index := leadIndexKey(lead.ConversationID)

	claimed, err := r.client.SetNX(ctx, index, lead.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim lead index: %w", err)
	}
	if !claimed {
		if err := r.reclaimIndex(ctx, index, lead); err != nil {
			return err
		}
	}

	if err := r.saveLead(ctx, lead); err != nil {
		// release the claim so the next qualifying turn can create the lead
		if delErr := r.client.Del(context.WithoutCancel(ctx), index).Err(); delErr != nil {
			logger.Warn().Err(delErr).Str("conversation_id", lead.ConversationID).Msg("⚠️ Failed to release lead index")
		}
		return err
	}
	return nil
}

// reclaimIndex takes over an index whose lead document is missing; a live lead keeps its index
func (r *RedisRepository) reclaimIndex(ctx context.Context, index string, lead *pkg.Lead) error {
	current, err := r.client.Get(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read lead index: %w", err)
	}
	if current != "" {
		exists, err := r.client.Exists(ctx, leadKey(current)).Result()
		if err != nil {
			return fmt.Errorf("failed to check lead: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("lead for conversation %s already exists", lead.ConversationID)
		}
	}
	if err := r.client.Set(ctx, index, lead.ID, 0).Err(); err != nil {
		return fmt.Errorf("failed to claim lead index: %w", err)
	}
	return nil
}

func (r *RedisRepository) UpdateLead(ctx context.Context, lead *pkg.Lead) error {
	exists, err := r.client.Exists(ctx, leadKey(lead.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check lead: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("lead %s: %w", lead.ID, ErrNotFound)
	}
	return r.saveLead(ctx, lead)
}

func (r *RedisRepository) saveLead(ctx context.Context, lead *pkg.Lead) error {
	data, err := sonic.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}
	if err := r.client.Set(ctx, leadKey(lead.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// touch extends the TTL of a conversation and its message list; errors are ignored
func (r *RedisRepository) touch(ctx context.Context, conversationID string) {
	if r.ttl <= 0 {
		return
	}
	pipe := r.client.Pipeline()
	pipe.Expire(ctx, conversationKey(conversationID), r.ttl)
	pipe.Expire(ctx, messagesKey(conversationID), r.ttl)
	_, _ = pipe.Exec(ctx)
}

func (r *RedisRepository) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
