package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadchat/internal/config"
	"leadchat/internal/leads"
	"leadchat/internal/nodes"
	"leadchat/internal/notify"
	"leadchat/internal/observability"
	"leadchat/internal/ratelimit"
	"leadchat/internal/server"
	"leadchat/internal/services"
	"leadchat/internal/voice"
	"leadchat/src"
	"leadchat/src/conversation"
	"leadchat/src/llm/prompt"
	"leadchat/src/llm/provider"
	"leadchat/src/logger"
	"leadchat/src/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
			}

			cfg, err := src.LoadConfig()
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.LogConfig); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	return cmd
}

func serve(ctx context.Context, cfg *src.Config) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingConfig)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, err := conversation.OpenStore(ctx, cfg.StoreConfig)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreConfig.Backend, err)
	}
	defer store.Close()
	logger.Info().Str("backend", cfg.StoreConfig.Backend).Msg("🗄️ Conversation store ready")

	content, err := config.LoadContent(cfg.ContentPath)
	if err != nil {
		return err
	}

	mailer := notify.NewMailer(cfg.EmailConfig)
	pipeline, err := buildPipeline(ctx, cfg, store, content, mailer)
	if err != nil {
		return err
	}

	chatLimiter, contactLimiter, err := buildLimiters(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gin.SetMode(cfg.ServerConfig.Mode)
	router, err := server.NewRouter(server.Options{
		Pipeline:             pipeline,
		ChatLimiter:          chatLimiter,
		ContactLimiter:       contactLimiter,
		Contact:              mailer,
		Voice:                voice.NewClient(cfg.VoiceConfig),
		Store:                store,
		Metrics:              observability.NewMetrics(registry),
		Gatherer:             registry,
		ServiceName:          cfg.TracingConfig.ServiceName,
		ClientLoggingEnabled: cfg.ClientLoggingEnabled,
		TrustedProxies:       cfg.ServerConfig.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.ServerConfig.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerConfig.ReadTimeout,
		WriteTimeout: cfg.ServerConfig.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("🚀 Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerConfig.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildPipeline(ctx context.Context, cfg *src.Config, store conversation.Store, content *config.Content, mailer *notify.Mailer) (server.ChatPipeline, error) {
	knowledge := services.NewKnowledgeBase(content.Knowledge, content.KnowledgeFallback)
	conversations := conversation.NewService(store, conversation.NewHistoryStrategy(cfg.LLMConfig.HistoryLimit))

	providers, err := provider.BuildProviders(ctx, cfg.LLMConfig)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		logger.Warn().Msg("⚠️ No LLM provider configured, answering with the local fallback only")
	}
	chain := provider.NewChain(providers, provider.NewFallbackResponder(content.Services, knowledge), cfg.LLMConfig.Timeout)

	var notifier leads.Notifier
	if mailer.CanNotifyLeads() {
		notifier = mailer
	}

	return nodes.NewPipeline(config.BuildCoreConfig(), nodes.Dependencies{
		Conversations: conversations,
		Knowledge:     knowledge,
		Composer:      prompt.NewComposer(content.Persona, content.Instructions),
		Services:      content.Services,
		Responder:     chain,
		Qualifier:     leads.NewQualifier(),
		Recorder:      leads.NewRecorder(store, notifier, cfg.LeadThreshold),
	})
}

func buildLimiters(ctx context.Context, cfg *src.Config) (ratelimit.Limiter, ratelimit.Limiter, error) {
	rl := cfg.RateLimitConfig

	switch rl.Backend {
	case "", "memory":
		chat := ratelimit.NewMemoryLimiter(rl.ChatLimit, rl.ChatWindow, ratelimit.WithMaxKeys(rl.MaxKeys))
		contact := ratelimit.NewMemoryLimiter(rl.ContactLimit, rl.ContactWindow, ratelimit.WithMaxKeys(rl.MaxKeys))
		chat.StartSweeper(ctx, rl.SweepInterval)
		contact.StartSweeper(ctx, rl.SweepInterval)
		return chat, contact, nil
	case "redis":
		client, err := storage.NewRedisClient(ctx, cfg.StoreConfig.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
		return ratelimit.NewRedisLimiter(client, "chat", rl.ChatLimit, rl.ChatWindow),
			ratelimit.NewRedisLimiter(client, "contact", rl.ContactLimit, rl.ContactWindow),
			nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend %q", rl.Backend)
	}
}
