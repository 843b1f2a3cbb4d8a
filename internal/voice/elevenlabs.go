package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"leadchat/src/model"

	"github.com/bytedance/sonic"
)

// ErrNotConfigured is returned when no ElevenLabs key is set
var ErrNotConfigured = errors.New("text-to-speech is not configured")

// UpstreamError is a non-2xx answer from ElevenLabs
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("elevenlabs returned status %d: %s", e.StatusCode, e.Body)
}

// Settings tune the generated voice; nil fields use the defaults
type Settings struct {
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost,omitempty"`
}

// Request is one synthesis call
type Request struct {
	Text     string
	VoiceID  string
	Settings Settings
}

var (
	defaultStability  = 0.5
	defaultSimilarity = 0.75
	defaultStyle      = 0.0
	defaultBoost      = true
)

// Client proxies text-to-speech requests to ElevenLabs using the server-held key
type Client struct {
	config model.VoiceConfig
	http   *http.Client
}

// NewClient bounds the wait for response headers by config.Timeout; the audio body
// itself may stream for longer and is bounded by the caller's context
func NewClient(config model.VoiceConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = config.Timeout

	return &Client{
		config: config,
		http:   &http.Client{Transport: transport},
	}
}

func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

type synthesizeRequest struct {
	Text          string   `json:"text"`
	ModelID       string   `json:"model_id"`
	VoiceSettings Settings `json:"voice_settings"`
}

// Synthesize returns the audio/mpeg stream; the caller must close it
func (c *Client) Synthesize(ctx context.Context, req Request) (io.ReadCloser, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = c.config.DefaultVoiceID
	}

	body, err := sonic.Marshal(synthesizeRequest{
		Text:          req.Text,
		ModelID:       c.config.ModelID,
		VoiceSettings: withDefaults(req.Settings),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tts request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return resp.Body, nil
}

func withDefaults(s Settings) Settings {
	if s.Stability == nil {
		s.Stability = &defaultStability
	}
	if s.SimilarityBoost == nil {
		s.SimilarityBoost = &defaultSimilarity
	}
	if s.Style == nil {
		s.Style = &defaultStyle
	}
	if s.UseSpeakerBoost == nil {
		s.UseSpeakerBoost = &defaultBoost
	}
	return s
}
