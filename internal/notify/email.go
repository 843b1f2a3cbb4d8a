package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"leadchat/src/logger"

	"github.com/bytedance/sonic"
)

// ErrNoSender is returned when no email provider is configured
var ErrNoSender = errors.New("no email provider configured")

// Email is one outbound plain-text message
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
}

// Sender delivers email through one provider
type Sender interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, email Email) error
}

// Dispatcher tries senders in order; the first configured sender to succeed wins
type Dispatcher struct {
	senders []Sender
}

func NewDispatcher(senders ...Sender) *Dispatcher {
	return &Dispatcher{senders: senders}
}

// Configured reports whether at least one sender can be used
func (d *Dispatcher) Configured() bool {
	for _, s := range d.senders {
		if s.Configured() {
			return true
		}
	}
	return false
}

// Send returns the name of the provider that accepted the message
func (d *Dispatcher) Send(ctx context.Context, email Email) (string, error) {
	var errs []error
	for _, s := range d.senders {
		if !s.Configured() {
			continue
		}
		if err := s.Send(ctx, email); err != nil {
			logger.Warn().Err(err).Str("provider", s.Name()).Msg("⚠️ Email provider failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		return s.Name(), nil
	}

	if len(errs) == 0 {
		return "", ErrNoSender
	}
	return "", errors.Join(errs...)
}

// UpstreamError is a non-2xx answer from an email provider
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// postJSON sends payload and treats any non-2xx status as an UpstreamError
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
