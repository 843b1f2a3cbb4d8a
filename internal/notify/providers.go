package notify

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ResendSender sends through the Resend HTTP API
type ResendSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewResendSender(apiKey, baseURL string, timeout time.Duration) *ResendSender {
	return &ResendSender{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *ResendSender) Name() string     { return "resend" }
func (r *ResendSender) Configured() bool { return r.apiKey != "" }

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (r *ResendSender) Send(ctx context.Context, email Email) error {
	return postJSON(ctx, r.client, r.Name(), r.baseURL+"/emails", r.apiKey, resendRequest{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Text:    email.Text,
	})
}

// SendGridSender sends through the SendGrid v3 mail API
type SendGridSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSendGridSender(apiKey, baseURL string, timeout time.Duration) *SendGridSender {
	return &SendGridSender{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *SendGridSender) Name() string     { return "sendgrid" }
func (s *SendGridSender) Configured() bool { return s.apiKey != "" }

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (s *SendGridSender) Send(ctx context.Context, email Email) error {
	to := make([]sendGridAddress, 0, len(email.To))
	for _, addr := range email.To {
		to = append(to, sendGridAddress{Email: addr})
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: to}},
		From:             sendGridAddress{Email: email.From},
		Subject:          email.Subject,
		Content:          []sendGridContent{{Type: "text/plain", Value: email.Text}},
	}
	if email.ReplyTo != "" {
		payload.ReplyTo = &sendGridAddress{Email: email.ReplyTo}
	}

	return postJSON(ctx, s.client, s.Name(), s.baseURL+"/v3/mail/send", s.apiKey, payload)
}
