package server

import (
	"context"
	"net/http"
	"time"

	"leadchat/src/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"store":     "ok",
	}
	code := http.StatusOK

	if s.opts.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Store.HealthCheck(ctx); err != nil {
			logger.Warn().Err(err).Msg("⚠️ Store health check failed")
			body["status"] = "degraded"
			body["store"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, body)
}

// clientLog accepts browser-side events and errors. It always answers 200.
func (s *Server) clientLog(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	var event map[string]any
	if err := sonic.Unmarshal(raw, &event); err != nil || event == nil {
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	if s.opts.ClientLoggingEnabled {
		entry := logger.Info()
		if level, _ := event["level"].(string); level == "error" {
			entry = logger.Warn()
		}
		delete(event, "level")
		entry.Str("source", "client").Str("client_ip", c.ClientIP()).Fields(event).Msg("🖥️ Client event")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
