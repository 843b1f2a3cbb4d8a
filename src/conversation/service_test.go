package conversation

import (
	"context"
	"sync"
	"testing"

	"leadchat/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceResolve(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	created, isNew, err := svc.Resolve(ctx, "", "session", nil)
	require.NoError(t, err)
	assert.True(t, isNew)

	loaded, isNew, err := svc.Resolve(ctx, created.ID, "session", nil)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, loaded.ID)

	replaced, isNew, err := svc.Resolve(ctx, "unknown-id", "session", nil)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEqual(t, "unknown-id", replaced.ID)
}

func TestServiceHistoryWindow(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), NewHistoryStrategy(2))

	conv, _, err := svc.Resolve(ctx, "", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SaveUserMessage(ctx, conv.ID, "first"))
	require.NoError(t, svc.SaveResponse(ctx, conv.ID, "second"))
	require.NoError(t, svc.SaveUserMessage(ctx, conv.ID, "third"))

	history, err := svc.RecentHistory(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []pkg.ConversationMessage{
		{Role: pkg.RoleAssistant, Content: "second"},
		{Role: pkg.RoleUser, Content: "third"},
	}, history)
	assert.Equal(t, "assistant: second\nuser: third", svc.BuildContext(history))
}

func TestServiceApplyQualification(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)

	conv, _, err := svc.Resolve(ctx, "", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.ApplyQualification(ctx, conv, pkg.Qualification{
		Score:       40,
		BudgetRange: pkg.Budget50kPlus,
		PainPoints:  []string{pkg.PainHighUrgency},
	}, 60))
	assert.Equal(t, pkg.ConversationActive, conv.Status)

	require.NoError(t, svc.ApplyQualification(ctx, conv, pkg.Qualification{
		Score:      75,
		Timeline:   pkg.TimelineUrgent,
		PainPoints: []string{pkg.PainHighUrgency},
	}, 60))

	stored, err := repo.FindConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, stored.LeadScore)
	assert.Equal(t, pkg.ConversationQualified, stored.Status)
	assert.Equal(t, pkg.Budget50kPlus, stored.BudgetRange)
	assert.Equal(t, pkg.TimelineUrgent, stored.Timeline)
	assert.Equal(t, []string{pkg.PainHighUrgency}, stored.PainPoints)
}

func TestServiceLockSerialisesTurns(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, NewHistoryStrategy(100))

	conv, _, err := svc.Resolve(ctx, "", "", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := svc.Lock(conv.ID)
			defer unlock()
			_ = svc.SaveUserMessage(ctx, conv.ID, "q")
			_ = svc.SaveResponse(ctx, conv.ID, "a")
		}()
	}
	wg.Wait()

	messages, err := repo.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 40)
	for i := 0; i < len(messages); i += 2 {
		assert.Equal(t, pkg.RoleUser, messages[i].Role)
		assert.Equal(t, pkg.RoleAssistant, messages[i+1].Role)
	}
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, MergeTags([]string{"a"}, []string{"a", "b", ""}))
	assert.Nil(t, MergeTags(nil, nil))
}
