package server

import (
	"errors"
	"net/http"
	"strings"

	"leadchat/internal/voice"
	"leadchat/src/logger"

	"github.com/gin-gonic/gin"
)

type ttsRequest struct {
	Text            string   `json:"text" binding:"required,min=1,max=5000"`
	VoiceID         string   `json:"voiceId" binding:"omitempty,alphanum,max=64"`
	Stability       *float64 `json:"stability" binding:"omitempty,min=0,max=1"`
	SimilarityBoost *float64 `json:"similarityBoost" binding:"omitempty,min=0,max=1"`
	Style           *float64 `json:"style" binding:"omitempty,min=0,max=1"`
	UseSpeakerBoost *bool    `json:"useSpeakerBoost"`
}

func (r *ttsRequest) normalize() {
	r.Text = strings.TrimSpace(r.Text)
	r.VoiceID = strings.TrimSpace(r.VoiceID)
}

func (s *Server) tts(c *gin.Context) {
	var req ttsRequest
	if !bindJSON(c, &req) {
		return
	}

	audio, err := s.opts.Voice.Synthesize(c.Request.Context(), voice.Request{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Settings: voice.Settings{
			Stability:       req.Stability,
			SimilarityBoost: req.SimilarityBoost,
			Style:           req.Style,
			UseSpeakerBoost: req.UseSpeakerBoost,
		},
	})

	var upstream *voice.UpstreamError
	switch {
	case errors.Is(err, voice.ErrNotConfigured):
		s.countTTS("unconfigured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "text-to-speech is not available"})
		return
	case errors.As(err, &upstream):
		s.countTTS("upstream_error")
		logger.Warn().Int("status", upstream.StatusCode).Msg("⚠️ ElevenLabs rejected the request")
		c.JSON(http.StatusBadGateway, gin.H{"error": "text-to-speech provider error"})
		return
	case err != nil:
		s.countTTS("error")
		logger.Error().Err(err).Msg("❌ Text-to-speech failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "text-to-speech provider error"})
		return
	}
	defer audio.Close()

	s.countTTS("ok")
	c.DataFromReader(http.StatusOK, -1, "audio/mpeg", audio, map[string]string{"Cache-Control": "no-store"})
}

func (s *Server) countTTS(status string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.TTSRequests.WithLabelValues(status).Inc()
	}
}
