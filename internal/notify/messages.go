package notify

import (
	"context"
	"fmt"
	"strings"

	"leadchat/pkg"
	"leadchat/src/model"
)

// ContactSubmission is a validated contact form post
type ContactSubmission struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Service string
	Message string
}

// Mailer formats site notifications and sends them through a Dispatcher
type Mailer struct {
	dispatcher   *Dispatcher
	from         string
	contactTo    string
	leadNotifyTo string
}

// NewMailer builds the dispatcher from config.Providers order
func NewMailer(config model.EmailConfig) *Mailer {
	var senders []Sender
	for _, name := range config.Providers {
		switch strings.TrimSpace(name) {
		case "resend":
			senders = append(senders, NewResendSender(config.ResendAPIKey, config.ResendBaseURL, config.Timeout))
		case "sendgrid":
			senders = append(senders, NewSendGridSender(config.SendGridAPIKey, config.SendGridURL, config.Timeout))
		}
	}
	return NewMailerWithDispatcher(NewDispatcher(senders...), config)
}

func NewMailerWithDispatcher(dispatcher *Dispatcher, config model.EmailConfig) *Mailer {
	leadTo := config.LeadNotifyTo
	if leadTo == "" {
		leadTo = config.ContactTo
	}
	return &Mailer{
		dispatcher:   dispatcher,
		from:         config.From,
		contactTo:    config.ContactTo,
		leadNotifyTo: leadTo,
	}
}

// CanNotifyLeads reports whether lead notifications have a provider and a recipient
func (m *Mailer) CanNotifyLeads() bool {
	return m.leadNotifyTo != "" && m.dispatcher.Configured()
}

// SendContact forwards a contact form post with reply-to set to the visitor
func (m *Mailer) SendContact(ctx context.Context, c ContactSubmission) (string, error) {
	if m.contactTo == "" {
		return "", ErrNoSender
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", c.Name, c.Email)
	writeOptional(&b, "Company", c.Company)
	writeOptional(&b, "Phone", c.Phone)
	writeOptional(&b, "Service", c.Service)
	fmt.Fprintf(&b, "\n%s\n", c.Message)

	return m.dispatcher.Send(ctx, Email{
		From:    m.from,
		To:      []string{m.contactTo},
		ReplyTo: c.Email,
		Subject: "New contact form message from " + c.Name,
		Text:    b.String(),
	})
}

// NotifyLead summarises a newly recorded lead for the consultant
func (m *Mailer) NotifyLead(ctx context.Context, lead *pkg.Lead) error {
	if m.leadNotifyTo == "" {
		return ErrNoSender
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d/100\n", lead.Score)
	writeOptional(&b, "Name", lead.Name)
	writeOptional(&b, "Email", lead.Email)
	writeOptional(&b, "Company", lead.Company)
	writeOptional(&b, "Phone", lead.Phone)
	writeOptional(&b, "Budget", string(lead.BudgetRange))
	writeOptional(&b, "Timeline", string(lead.Timeline))
	writeOptional(&b, "Pain points", strings.Join(lead.PainPoints, ", "))
	writeOptional(&b, "Recommended", lead.RecommendedService)
	fmt.Fprintf(&b, "Conversation: %s\n", lead.ConversationID)

	who := lead.Email
	if lead.Name != "" {
		who = lead.Name
	}

	_, err := m.dispatcher.Send(ctx, Email{
		From:    m.from,
		To:      []string{m.leadNotifyTo},
		ReplyTo: lead.Email,
		Subject: fmt.Sprintf("New qualified lead (%d): %s", lead.Score, who),
		Text:    b.String(),
	})
	return err
}

func writeOptional(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
