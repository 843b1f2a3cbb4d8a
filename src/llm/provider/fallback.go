package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"leadchat/pkg"

	"github.com/cloudwego/eino/components/retriever"
)

// FallbackName is the provider name reported when the local responder answered
const FallbackName = "fallback"

const genericReply = "Thanks for reaching out! I help businesses put AI to work on their busiest workflows. " +
	"Tell me a little about your company and the problem you'd like to solve, and I'll point you to the right next step."

var (
	greetingTopic = regexp.MustCompile(`^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`)
	pricingTopic  = regexp.MustCompile(`\b(price|pricing|cost|costs|how much|rates?|budget|fees?)\b`)
	bookingTopic  = regexp.MustCompile(`\b(book|booking|schedule|call|meeting|calendar|consultation)\b`)
	servicesTopic = regexp.MustCompile(`\b(services?|offer|help with|what do you do|packages?)\b`)
)

// FallbackResponder answers deterministically from the service catalog and knowledge base.
// It never fails and never returns empty text.
type FallbackResponder struct {
	services  []pkg.ServiceOffering
	knowledge retriever.Retriever
}

func NewFallbackResponder(services []pkg.ServiceOffering, knowledge retriever.Retriever) *FallbackResponder {
	return &FallbackResponder{services: services, knowledge: knowledge}
}

func (f *FallbackResponder) Name() string {
	return FallbackName
}

func (f *FallbackResponder) Respond(ctx context.Context, req Request) (string, error) {
	text := strings.ToLower(req.UserMessage)

	switch {
	case pricingTopic.MatchString(text):
		return "Here is how engagements are priced:\n" + f.serviceLines() +
			"\nIf you share your timeline and the workflow you want to improve, I can suggest the best fit.", nil

	case bookingTopic.MatchString(text):
		return "I'd be happy to set up a call. Leave your email address and a good time to reach you, " +
			"and you'll get a confirmation with a calendar link shortly.", nil

	case servicesTopic.MatchString(text):
		return "These are the ways I can help:\n" + f.serviceLines() +
			"\nWhich of these sounds closest to what you need?", nil

	case greetingTopic.MatchString(text):
		return "Hi there! I help businesses use AI to save time and win more customers. " +
			"What does your company do, and what's taking up most of your team's time right now?", nil
	}

	if f.knowledge != nil {
		docs, err := f.knowledge.Retrieve(ctx, text, retriever.WithTopK(1))
		if err == nil && len(docs) > 0 {
			return "Here's something similar I've worked on:\n" + docs[0].Content +
				"\nWould a quick call to see what that could look like for your business be useful?", nil
		}
	}

	return genericReply, nil
}

func (f *FallbackResponder) serviceLines() string {
	lines := make([]string, 0, len(f.services))
	for _, s := range f.services {
		lines = append(lines, fmt.Sprintf("- %s: %s, %s", s.Name, s.Price, s.Duration))
	}
	return strings.Join(lines, "\n")
}
