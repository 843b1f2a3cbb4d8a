package leads

import (
	"context"
	"errors"
	"testing"

	"leadchat/pkg"
	"leadchat/src/conversation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) NotifyLead(ctx context.Context, lead *pkg.Lead) error {
	c.calls++
	return c.err
}

type brokenStore struct{}

func (brokenStore) FindLeadByConversation(ctx context.Context, id string) (*pkg.Lead, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) CreateLead(ctx context.Context, lead *pkg.Lead) error { return nil }
func (brokenStore) UpdateLead(ctx context.Context, lead *pkg.Lead) error { return nil }

var qualified = pkg.Qualification{
	Score:              75,
	BudgetRange:        pkg.Budget15kTo50k,
	PainPoints:         []string{pkg.PainHighUrgency},
	RecommendedService: pkg.ServiceImplementation,
}

func TestRecorderSkipsBelowThresholdOrWithoutEmail(t *testing.T) {
	repo := conversation.NewMemoryRepository()
	notifier := &countingNotifier{}
	r := NewRecorder(repo, notifier, 60)

	assert.Equal(t, OutcomeSkipped, r.MaybeRecord(context.Background(), "c1", pkg.ContactInfo{Email: "a@b.co"}, pkg.Qualification{Score: 59}))
	assert.Equal(t, OutcomeSkipped, r.MaybeRecord(context.Background(), "c1", pkg.ContactInfo{Name: "No Email"}, qualified))
	assert.Empty(t, repo.Leads())
	assert.Equal(t, 0, notifier.calls)
}

func TestRecorderCreatesThenUpdates(t *testing.T) {
	repo := conversation.NewMemoryRepository()
	notifier := &countingNotifier{}
	r := NewRecorder(repo, notifier, 60)
	ctx := context.Background()

	outcome := r.MaybeRecord(ctx, "c1", pkg.ContactInfo{Name: "Ari", Email: "ari@example.com"}, qualified)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, 1, notifier.calls)

	leads := repo.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, pkg.LeadNew, leads[0].Status)
	assert.Equal(t, 75, leads[0].Score)
	assert.Equal(t, "Ari", leads[0].Name)
	assert.NotEmpty(t, leads[0].ID)

	higher := qualified
	higher.Score = 90
	higher.Timeline = pkg.TimelineUrgent
	outcome = r.MaybeRecord(ctx, "c1", pkg.ContactInfo{Email: "ari@example.com", Company: "Acme"}, higher)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 1, notifier.calls)

	leads = repo.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, 90, leads[0].Score)
	assert.Equal(t, pkg.TimelineUrgent, leads[0].Timeline)
	assert.Equal(t, "Ari", leads[0].Name)
	assert.Equal(t, "Acme", leads[0].Company)
}

func TestRecorderIsBestEffort(t *testing.T) {
	notifier := &countingNotifier{err: errors.New("smtp down")}
	r := NewRecorder(conversation.NewMemoryRepository(), notifier, 60)
	assert.Equal(t, OutcomeCreated, r.MaybeRecord(context.Background(), "c1", pkg.ContactInfo{Email: "x@y.z"}, qualified))

	r = NewRecorder(brokenStore{}, nil, 60)
	assert.Equal(t, OutcomeFailed, r.MaybeRecord(context.Background(), "c1", pkg.ContactInfo{Email: "x@y.z"}, qualified))
}

func TestRecorderDefaultThreshold(t *testing.T) {
	r := NewRecorder(conversation.NewMemoryRepository(), nil, 0)
	assert.Equal(t, DefaultThreshold, r.Threshold())
	assert.True(t, r.Qualifies(pkg.Qualification{Score: 60}, pkg.ContactInfo{Email: "a@b.c"}))
	assert.False(t, r.Qualifies(pkg.Qualification{Score: 60}, pkg.ContactInfo{}))
}
