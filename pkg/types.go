package pkg

import (
	"time"
)

// Lead pipeline domain types shared across storage, pipeline nodes and the HTTP layer.

// Role identifies the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationStatus tracks where a conversation sits in the sales funnel
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationQualified ConversationStatus = "qualified"
	ConversationBooked    ConversationStatus = "booked"
	ConversationClosed    ConversationStatus = "closed"
)

// LeadStatus tracks a recorded lead through follow-up
type LeadStatus string

const (
	LeadNew          LeadStatus = "new"
	LeadContacted    LeadStatus = "contacted"
	LeadQualified    LeadStatus = "qualified"
	LeadProposalSent LeadStatus = "proposal_sent"
	LeadWon          LeadStatus = "won"
	LeadLost         LeadStatus = "lost"
)

// BudgetRange is the budget bucket detected in a message
type BudgetRange string

const (
	Budget5kTo15k  BudgetRange = "5k_15k"
	Budget15kTo50k BudgetRange = "15k_50k"
	Budget50kPlus  BudgetRange = "50k_plus"
)

// Timeline is the urgency bucket detected in a message
type Timeline string

const (
	TimelineUrgent      Timeline = "urgent"
	TimelineNextMonth   Timeline = "next_month"
	TimelineNextQuarter Timeline = "next_quarter"
)

// PainHighUrgency is the pain tag attached when distress phrases are detected
const PainHighUrgency = "high_urgency"

// Service tier identifiers recommended by the qualifier
const (
	ServiceStrategySession     = "ai_strategy_session"
	ServiceImplementation      = "ai_implementation_sprint"
	ServiceTransformation      = "ai_transformation_partnership"
	ServiceReadinessAssessment = "ai_readiness_assessment"
)

// Conversation is one visitor session with the assistant
type Conversation struct {
	ID                 string             `json:"id"`
	SessionID          string             `json:"session_id"`
	Status             ConversationStatus `json:"status"`
	LeadScore          int                `json:"lead_score"`
	BudgetRange        BudgetRange        `json:"budget_range,omitempty"`
	Timeline           Timeline           `json:"timeline,omitempty"`
	PainPoints         []string           `json:"pain_points,omitempty"`
	RecommendedService string             `json:"recommended_service,omitempty"`
	Metadata           map[string]any     `json:"metadata,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Message is a single persisted turn of a conversation
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Lead is a qualified prospect extracted from a conversation
type Lead struct {
	ID                 string      `json:"id"`
	ConversationID     string      `json:"conversation_id"`
	Name               string      `json:"name,omitempty"`
	Email              string      `json:"email"`
	Company            string      `json:"company,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	Status             LeadStatus  `json:"status"`
	Score              int         `json:"score"`
	BudgetRange        BudgetRange `json:"budget_range,omitempty"`
	Timeline           Timeline    `json:"timeline,omitempty"`
	PainPoints         []string    `json:"pain_points,omitempty"`
	RecommendedService string      `json:"recommended_service,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ContactInfo is the optional visitor-supplied contact metadata on a chat request
type ContactInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// HasEmail reports whether the visitor left an email address
func (c ContactInfo) HasEmail() bool {
	return c.Email != ""
}

// Qualification is the lead score and the signals that produced it
type Qualification struct {
	Score              int         `json:"score"`
	BudgetRange        BudgetRange `json:"budget_range,omitempty"`
	Timeline           Timeline    `json:"timeline,omitempty"`
	PainPoints         []string    `json:"pain_points,omitempty"`
	RecommendedService string      `json:"recommended_service,omitempty"`
}

// ConversationMessage represents a message in conversation history
type ConversationMessage struct {
	Role    Role   `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// ServiceOffering is one entry of the consultant's service catalog
type ServiceOffering struct {
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
	Price    string `json:"price" yaml:"price"`
	Duration string `json:"duration" yaml:"duration"`
	IdealFor string `json:"ideal_for" yaml:"ideal_for"`
}

// KnowledgeEntry maps an industry keyword to canned case-study text
type KnowledgeEntry struct {
	ID      string `json:"id" yaml:"id"`
	Keyword string `json:"keyword" yaml:"keyword"`
	Content string `json:"content" yaml:"content"`
}

// ProviderAttempt records one try of the provider chain
type ProviderAttempt struct {
	Provider string        `json:"provider"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
