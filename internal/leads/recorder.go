package leads

import (
	"context"
	"errors"
	"time"

	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/logger"

	"github.com/google/uuid"
)

// DefaultThreshold is the score at which a conversation becomes a lead
const DefaultThreshold = 60

// ErrLeadNotFound is what a Store returns when a conversation has no lead yet
var ErrLeadNotFound = conversation.ErrNotFound

// Store persists leads
type Store interface {
	FindLeadByConversation(ctx context.Context, conversationID string) (*pkg.Lead, error)
	CreateLead(ctx context.Context, lead *pkg.Lead) error
	UpdateLead(ctx context.Context, lead *pkg.Lead) error
}

// Notifier tells the consultant about a newly recorded lead
type Notifier interface {
	NotifyLead(ctx context.Context, lead *pkg.Lead) error
}

// Outcome describes what MaybeRecord did
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeFailed  Outcome = "failed"
)

// Recorder persists qualified leads and notifies on new ones. Every step is best effort:
// failures are logged and never surface to the chat caller.
type Recorder struct {
	store     Store
	notifier  Notifier
	threshold int
	now       func() time.Time
}

// NewRecorder creates a lead recorder. notifier may be nil when no notification channel is configured.
func NewRecorder(store Store, notifier Notifier, threshold int) *Recorder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Recorder{
		store:     store,
		notifier:  notifier,
		threshold: threshold,
		now:       time.Now,
	}
}

// Threshold returns the qualifying score
func (r *Recorder) Threshold() int {
	return r.threshold
}

// Qualifies reports whether the qualification and contact details are enough to record a lead
func (r *Recorder) Qualifies(q pkg.Qualification, contact pkg.ContactInfo) bool {
	return q.Score >= r.threshold && contact.HasEmail()
}

// MaybeRecord creates or refreshes the lead for conversationID when it qualifies.
// A conversation owns at most one lead; later qualifying turns update it in place.
func (r *Recorder) MaybeRecord(ctx context.Context, conversationID string, contact pkg.ContactInfo, q pkg.Qualification) Outcome {
	if !r.Qualifies(q, contact) {
		return OutcomeSkipped
	}

	existing, err := r.store.FindLeadByConversation(ctx, conversationID)
	switch {
	case err == nil:
		applyQualification(existing, contact, q)
		existing.UpdatedAt = r.now()
		if err := r.store.UpdateLead(ctx, existing); err != nil {
			logger.Error().Err(err).Str("conversation_id", conversationID).Msg("❌ Failed to update lead")
			return OutcomeFailed
		}
		logger.Info().Str("lead_id", existing.ID).Int("score", q.Score).Msg("🔁 Lead refreshed")
		return OutcomeUpdated
	case !errors.Is(err, ErrLeadNotFound):
		logger.Error().Err(err).Str("conversation_id", conversationID).Msg("❌ Failed to look up lead")
		return OutcomeFailed
	}

	now := r.now()
	lead := &pkg.Lead{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Status:         pkg.LeadNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyQualification(lead, contact, q)

	if err := r.store.CreateLead(ctx, lead); err != nil {
		logger.Error().Err(err).Str("conversation_id", conversationID).Msg("❌ Failed to create lead")
		return OutcomeFailed
	}
	logger.Info().Str("lead_id", lead.ID).Int("score", q.Score).Str("service", q.RecommendedService).Msg("🎯 Lead recorded")

	if r.notifier != nil {
		if err := r.notifier.NotifyLead(ctx, lead); err != nil {
			logger.Warn().Err(err).Str("lead_id", lead.ID).Msg("⚠️ Lead notification failed")
		}
	}

	return OutcomeCreated
}

func applyQualification(lead *pkg.Lead, contact pkg.ContactInfo, q pkg.Qualification) {
	lead.Email = contact.Email
	if contact.Name != "" {
		lead.Name = contact.Name
	}
	if contact.Company != "" {
		lead.Company = contact.Company
	}
	if contact.Phone != "" {
		lead.Phone = contact.Phone
	}
	lead.Score = q.Score
	if q.BudgetRange != "" {
		lead.BudgetRange = q.BudgetRange
	}
	if q.Timeline != "" {
		lead.Timeline = q.Timeline
	}
	lead.PainPoints = conversation.MergeTags(lead.PainPoints, q.PainPoints)
	if q.RecommendedService != "" {
		lead.RecommendedService = q.RecommendedService
	}
}
