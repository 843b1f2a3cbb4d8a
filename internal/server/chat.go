package server

import (
	"net/http"
	"strings"

	"leadchat/internal/core"
	"leadchat/internal/leads"
	"leadchat/pkg"
	"leadchat/src/logger"

	"github.com/gin-gonic/gin"
)

type chatMetadata struct {
	Name    string `json:"name" binding:"omitempty,max=100"`
	Email   string `json:"email" binding:"omitempty,email"`
	Company string `json:"company" binding:"omitempty,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
}

type chatRequest struct {
	Message        string        `json:"message" binding:"required,min=1,max=4000"`
	ConversationID string        `json:"conversationId" binding:"omitempty,max=100"`
	SessionID      string        `json:"sessionId" binding:"omitempty,max=100"`
	Metadata       *chatMetadata `json:"metadata"`
}

func (r *chatRequest) normalize() {
	r.Message = strings.TrimSpace(r.Message)
	r.ConversationID = strings.TrimSpace(r.ConversationID)
	r.SessionID = strings.TrimSpace(r.SessionID)
	if m := r.Metadata; m != nil {
		m.Name = strings.TrimSpace(m.Name)
		m.Email = strings.TrimSpace(m.Email)
		m.Company = strings.TrimSpace(m.Company)
		m.Phone = strings.TrimSpace(m.Phone)
	}
}

type chatResponseMetadata struct {
	LeadScore          int    `json:"leadScore"`
	RecommendedService string `json:"recommendedService,omitempty"`
	Provider           string `json:"provider"`
}

type chatResponse struct {
	Response       string               `json:"response"`
	ConversationID string               `json:"conversationId"`
	Metadata       chatResponseMetadata `json:"metadata"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		s.countChat("invalid")
		return
	}

	input := core.ProcessorInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
	}
	if req.Metadata != nil {
		input.Contact = pkg.ContactInfo{
			Name:    req.Metadata.Name,
			Email:   req.Metadata.Email,
			Company: req.Metadata.Company,
			Phone:   req.Metadata.Phone,
		}
	}

	out, err := s.opts.Pipeline.Execute(c.Request.Context(), input)
	if err != nil {
		s.countChat("error")
		logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("❌ Chat turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	s.observeTurn(out)

	c.JSON(http.StatusOK, chatResponse{
		Response:       out.Response,
		ConversationID: out.ConversationID,
		Metadata: chatResponseMetadata{
			LeadScore:          out.Qualification.Score,
			RecommendedService: out.Qualification.RecommendedService,
			Provider:           out.Provider,
		},
	})
}

func (s *Server) countChat(status string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ChatRequests.WithLabelValues(status).Inc()
	}
}

func (s *Server) observeTurn(out *core.ProcessorOutput) {
	m := s.opts.Metrics
	if m == nil {
		return
	}

	m.ChatRequests.WithLabelValues("ok").Inc()
	m.LeadScore.Observe(float64(out.Qualification.Score))

	for _, attempt := range out.Attempts {
		outcome := "success"
		if !attempt.Success {
			outcome = "failure"
		}
		m.ProviderAttempts.WithLabelValues(attempt.Provider, outcome).Inc()
		m.ProviderLatency.WithLabelValues(attempt.Provider).Observe(attempt.Duration.Seconds())
	}

	if out.LeadOutcome != "" && out.LeadOutcome != string(leads.OutcomeSkipped) {
		m.LeadsRecorded.WithLabelValues(out.LeadOutcome).Inc()
	}
}
