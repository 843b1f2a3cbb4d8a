package server

import (
	"errors"
	"net/http"
	"strings"

	"leadchat/internal/notify"
	"leadchat/src/logger"

	"github.com/gin-gonic/gin"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company" binding:"omitempty,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Service string `json:"service" binding:"omitempty,max=100"`
	Message string `json:"message" binding:"required,min=10,max=2000"`
}

func (r *contactRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Service = strings.TrimSpace(r.Service)
	r.Message = strings.TrimSpace(r.Message)
}

func (s *Server) contact(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}

	submission := notify.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
		Service: req.Service,
		Message: req.Message,
	}

	provider, err := s.opts.Contact.SendContact(c.Request.Context(), submission)
	if err != nil {
		status := "failed"
		if errors.Is(err, notify.ErrNoSender) {
			status = "unconfigured"
		}
		s.countContact("none", status)
		logger.Error().Err(err).Str("status", status).Msg("❌ Contact form delivery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message, please try again later"})
		return
	}

	s.countContact(provider, "sent")
	logger.Info().Str("provider", provider).Str("service", submission.Service).Msg("📨 Contact form delivered")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thanks! I'll be in touch shortly."})
}

func (s *Server) countContact(provider, status string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ContactSubmissions.WithLabelValues(provider, status).Inc()
	}
}
