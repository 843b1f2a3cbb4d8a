package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadchat/pkg"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
}

// newGeminiServer answers generateContent calls with body and records the last request
func newGeminiServer(t *testing.T, status int, body string) (*GeminiProvider, *geminiRequest) {
	t.Helper()

	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &captured)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:    "g-key",
		BaseURL:   srv.URL,
		Model:     "gemini-test",
		MaxTokens: 128,
	})
	require.NoError(t, err)
	return p, &captured
}

func TestGeminiProviderJoinsParts(t *testing.T) {
	p, captured := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Happy to help. "},{"text":"What do you run?"}]}}]}`)

	reply, err := p.Respond(context.Background(), Request{
		SystemPrompt: "You are the assistant.",
		UserMessage:  "Can you help my clinic?",
		History: []pkg.ConversationMessage{
			{Role: pkg.RoleUser, Content: "hi"},
			{Role: pkg.RoleAssistant, Content: "hello"},
			{Role: pkg.RoleSystem, Content: "ignored"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Happy to help. What do you run?", reply)
	assert.Equal(t, "gemini", p.Name())

	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "Can you help my clinic?", captured.Contents[2].Parts[0].Text)
	require.NotEmpty(t, captured.SystemInstruction.Parts)
	assert.Equal(t, "You are the assistant.", captured.SystemInstruction.Parts[0].Text)
}

func TestGeminiProviderEmptyResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{"no parts", `{"candidates":[{"content":{"role":"model","parts":[]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newGeminiServer(t, http.StatusOK, tt.body)
			_, err := p.Respond(context.Background(), Request{UserMessage: "hello"})
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestGeminiProviderUpstreamError(t *testing.T) {
	p, _ := newGeminiServer(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`)

	_, err := p.Respond(context.Background(), Request{UserMessage: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gemini API error")
}

func TestGeminiProviderEmptyTextFallsThroughChain(t *testing.T) {
	p, _ := newGeminiServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`)

	result := NewChain([]Provider{p}, newFallback(), 0).Respond(context.Background(), Request{UserMessage: "pricing?"})
	assert.Equal(t, FallbackName, result.Provider)
	require.Len(t, result.Attempts, 2)
	assert.False(t, result.Attempts[0].Success)
}
