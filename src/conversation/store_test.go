package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"leadchat/pkg"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	stores := map[string]Store{
		"memory": NewMemoryRepository(),
		"sqlite": sqliteStore,
		"redis":  NewRedisRepository(client, time.Hour),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreConversationRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			conv, err := store.CreateConversation(ctx, "session-1", map[string]any{"email": "a@b.co"})
			require.NoError(t, err)
			assert.NotEmpty(t, conv.ID)
			assert.Equal(t, pkg.ConversationActive, conv.Status)

			_, err = store.AppendMessage(ctx, conv.ID, pkg.RoleUser, "hello")
			require.NoError(t, err)
			_, err = store.AppendMessage(ctx, conv.ID, pkg.RoleAssistant, "hi there")
			require.NoError(t, err)

			messages, err := store.ListMessages(ctx, conv.ID, 10)
			require.NoError(t, err)
			require.Len(t, messages, 2)
			assert.Equal(t, pkg.RoleUser, messages[0].Role)
			assert.Equal(t, "hello", messages[0].Content)
			assert.Equal(t, pkg.RoleAssistant, messages[1].Role)
			assert.Equal(t, "hi there", messages[1].Content)

			found, err := store.FindConversation(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, "session-1", found.SessionID)
			assert.Equal(t, "a@b.co", found.Metadata["email"])
		})
	}
}

func TestStoreListMessagesKeepsMostRecent(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			conv, err := store.CreateConversation(ctx, "", nil)
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				_, err := store.AppendMessage(ctx, conv.ID, pkg.RoleUser, fmt.Sprintf("m%d", i))
				require.NoError(t, err)
			}

			messages, err := store.ListMessages(ctx, conv.ID, 3)
			require.NoError(t, err)
			require.Len(t, messages, 3)
			assert.Equal(t, "m2", messages[0].Content)
			assert.Equal(t, "m4", messages[2].Content)

			all, err := store.ListMessages(ctx, conv.ID, 0)
			require.NoError(t, err)
			assert.Len(t, all, 5)
		})
	}
}

func TestStoreMissingConversation(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.FindConversation(ctx, "does-not-exist")
			assert.ErrorIs(t, err, ErrNotFound)

			err = store.UpdateConversation(ctx, &pkg.Conversation{ID: "does-not-exist"})
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.FindLeadByConversation(ctx, "does-not-exist")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.AppendMessage(ctx, "does-not-exist", pkg.RoleUser, "orphan")
			assert.ErrorIs(t, err, ErrNotFound)
			messages, err := store.ListMessages(ctx, "does-not-exist", 0)
			require.NoError(t, err)
			assert.Empty(t, messages)
		})
	}
}

func TestStoreUpdateConversation(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			conv, err := store.CreateConversation(ctx, "s", nil)
			require.NoError(t, err)

			conv.LeadScore = 72
			conv.Status = pkg.ConversationQualified
			conv.BudgetRange = pkg.Budget50kPlus
			conv.PainPoints = []string{pkg.PainHighUrgency}
			require.NoError(t, store.UpdateConversation(ctx, conv))

			found, err := store.FindConversation(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, 72, found.LeadScore)
			assert.Equal(t, pkg.ConversationQualified, found.Status)
			assert.Equal(t, pkg.Budget50kPlus, found.BudgetRange)
			assert.Equal(t, []string{pkg.PainHighUrgency}, found.PainPoints)
		})
	}
}

func TestStoreLeads(t *testing.T) {
	ctx := context.Background()

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			lead := &pkg.Lead{
				ID:             "lead-1",
				ConversationID: "conv-1",
				Email:          "owner@example.com",
				Status:         pkg.LeadNew,
				Score:          65,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			require.NoError(t, store.CreateLead(ctx, lead))
			assert.Error(t, store.CreateLead(ctx, lead), "a conversation owns one lead")

			lead.Score = 90
			require.NoError(t, store.UpdateLead(ctx, lead))

			found, err := store.FindLeadByConversation(ctx, "conv-1")
			require.NoError(t, err)
			assert.Equal(t, "lead-1", found.ID)
			assert.Equal(t, 90, found.Score)
			assert.Equal(t, "owner@example.com", found.Email)
		})
	}
}

func TestRedisRepositoryRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	conv, err := repo.CreateConversation(ctx, "", nil)
	require.NoError(t, err)

	mr.FastForward(50 * time.Second)
	_, err = repo.AppendMessage(ctx, conv.ID, pkg.RoleUser, "still here")
	require.NoError(t, err)

	mr.FastForward(50 * time.Second)
	_, err = repo.FindConversation(ctx, conv.ID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = repo.FindConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingSetHook fails SET commands on keys with prefix while fail is on
type failingSetHook struct {
	prefix string
	fail   atomic.Bool
}

func (h *failingSetHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *failingSetHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		if h.fail.Load() && cmd.Name() == "set" && len(args) > 1 && strings.HasPrefix(fmt.Sprint(args[1]), h.prefix) {
			err := errors.New("write refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h *failingSetHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisCreateLeadRecoversFromFailedWrite(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hook := &failingSetHook{prefix: "lead:"}
	client.AddHook(hook)
	repo := NewRedisRepository(client, time.Hour)

	lead := &pkg.Lead{ID: "lead-1", ConversationID: "conv-1", Email: "owner@example.com", Score: 70}

	hook.fail.Store(true)
	require.Error(t, repo.CreateLead(ctx, lead))
	assert.False(t, mr.Exists(leadIndexKey("conv-1")), "failed write must not leave the index claimed")

	hook.fail.Store(false)
	require.NoError(t, repo.CreateLead(ctx, lead))

	found, err := repo.FindLeadByConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", found.ID)
}

func TestRedisCreateLeadReclaimsStaleIndex(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	require.NoError(t, mr.Set(leadIndexKey("conv-1"), "lead-missing"))

	_, err := repo.FindLeadByConversation(ctx, "conv-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.CreateLead(ctx, &pkg.Lead{ID: "lead-2", ConversationID: "conv-1", Score: 80}))

	found, err := repo.FindLeadByConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "lead-2", found.ID)
	assert.Error(t, repo.CreateLead(ctx, &pkg.Lead{ID: "lead-3", ConversationID: "conv-1"}), "a live lead keeps its index")
}
