package server

import (
	"context"
	"io"

	"leadchat/internal/core"
	"leadchat/internal/notify"
	"leadchat/internal/observability"
	"leadchat/internal/ratelimit"
	"leadchat/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ChatPipeline runs one chat turn
type ChatPipeline interface {
	Execute(ctx context.Context, input core.ProcessorInput) (*core.ProcessorOutput, error)
}

// ContactSender delivers contact form posts and returns the email provider used
type ContactSender interface {
	SendContact(ctx context.Context, submission notify.ContactSubmission) (string, error)
}

// Synthesizer turns text into an audio/mpeg stream
type Synthesizer interface {
	Synthesize(ctx context.Context, req voice.Request) (io.ReadCloser, error)
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options configures the router
type Options struct {
	Pipeline       ChatPipeline
	ChatLimiter    ratelimit.Limiter
	ContactLimiter ratelimit.Limiter
	Contact        ContactSender
	Voice          Synthesizer
	Store          HealthChecker
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer

	ServiceName          string
	ClientLoggingEnabled bool
	TrustedProxies       []string
}

// Server holds the HTTP handlers' collaborators
type Server struct {
	opts Options
}

// NewRouter builds the gin engine with every route and middleware installed
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "leadchat"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	useJSONFieldNames()
	s := &Server{opts: opts}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	router.Use(recovery())
	router.Use(otelgin.Middleware(opts.ServiceName))
	router.Use(requestLogger())
	router.Use(requestDuration(opts.Metrics))

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/chat", rateLimit(opts.ChatLimiter, "chat", opts.Metrics), s.chat)
	api.POST("/contact", rateLimit(opts.ContactLimiter, "contact", opts.Metrics), s.contact)
	api.POST("/tts", s.tts)
	api.POST("/log", s.clientLog)

	return router, nil
}
