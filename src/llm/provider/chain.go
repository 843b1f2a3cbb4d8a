package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadchat/pkg"
	"leadchat/src/logger"
)

// ErrEmptyResponse is returned by a provider that answered with no text
var ErrEmptyResponse = errors.New("empty response")

// Request is one turn handed to a provider
type Request struct {
	SystemPrompt string
	UserMessage  string
	History      []pkg.ConversationMessage
}

// Provider produces an assistant reply for a request
type Provider interface {
	Name() string
	Respond(ctx context.Context, req Request) (string, error)
}

// Result is the reply and which provider produced it
type Result struct {
	Text     string
	Provider string
	Attempts []pkg.ProviderAttempt
}

// Chain tries providers in order and falls back to a local responder that never fails.
// There is no retry or circuit breaking: every call starts again from the first provider.
type Chain struct {
	providers []Provider
	fallback  Provider
	timeout   time.Duration
}

// NewChain builds a chain; fallback must not return errors
func NewChain(providers []Provider, fallback Provider, timeout time.Duration) *Chain {
	return &Chain{providers: providers, fallback: fallback, timeout: timeout}
}

// Names lists the configured providers in attempt order, fallback last
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers)+1)
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return append(names, c.fallback.Name())
}

// Respond returns the first non-empty reply; it always returns text
func (c *Chain) Respond(ctx context.Context, req Request) Result {
	var attempts []pkg.ProviderAttempt

	for _, p := range c.providers {
		start := time.Now()
		text, err := c.attempt(ctx, p, req)
		attempt := pkg.ProviderAttempt{Provider: p.Name(), Duration: time.Since(start)}

		if err == nil {
			attempt.Success = true
			attempts = append(attempts, attempt)
			return Result{Text: text, Provider: p.Name(), Attempts: attempts}
		}

		attempt.Error = err.Error()
		attempts = append(attempts, attempt)
		logger.Warn().Err(err).Str("provider", p.Name()).Dur("took", attempt.Duration).Msg("⚠️ Provider failed, falling through")

		if ctx.Err() != nil {
			// caller gave up; skip straight to the local responder
			break
		}
	}

	start := time.Now()
	text, err := c.fallback.Respond(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Error().Err(err).Msg("❌ Fallback responder misbehaved")
		text = genericReply
	}
	attempts = append(attempts, pkg.ProviderAttempt{Provider: c.fallback.Name(), Success: true, Duration: time.Since(start)})

	return Result{Text: text, Provider: c.fallback.Name(), Attempts: attempts}
}

func (c *Chain) attempt(ctx context.Context, p Provider, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := p.Respond(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", p.Name(), ErrEmptyResponse)
	}
	return strings.TrimSpace(text), nil
}
