package prompt

import (
	"strings"

	"leadchat/pkg"
)

// DefaultPersona introduces the assistant
const DefaultPersona = `You are the AI assistant on the website of an independent AI consultant.
You help business owners understand how AI automation could help their company, answer questions
about the consultant's services, and invite promising visitors to book a call.`

// DefaultInstructions close every system prompt
const DefaultInstructions = `- Keep replies under 120 words, warm and specific to the visitor's business.
- Ask at most one follow-up question, aimed at budget, timeline, decision authority or the main pain point.
- Only quote prices and durations listed under Services.
- When the visitor seems ready, suggest booking a call or leaving an email address.
- Never invent case studies beyond the Relevant experience section.`

// Composer assembles the system prompt for one turn. It is a pure function of its inputs.
type Composer struct {
	persona      string
	instructions string
}

func NewComposer(persona, instructions string) *Composer {
	if persona == "" {
		persona = DefaultPersona
	}
	if instructions == "" {
		instructions = DefaultInstructions
	}
	return &Composer{persona: persona, instructions: instructions}
}

// Compose concatenates persona, retrieved knowledge, services, formatted history and instructions
func (c *Composer) Compose(knowledge string, services []pkg.ServiceOffering, history string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(c.persona))

	b.WriteString("\n\n## Relevant experience\n")
	b.WriteString(knowledge)

	b.WriteString("\n\n## Services\n")
	b.WriteString(FormatServices(services))

	b.WriteString("\n\n## Conversation so far\n")
	if history == "" {
		b.WriteString("(new conversation)")
	} else {
		b.WriteString(history)
	}

	b.WriteString("\n\n## Instructions\n")
	b.WriteString(strings.TrimSpace(c.instructions))

	return b.String()
}

// FormatServices renders one line per offering: name, price, duration and who it suits
func FormatServices(services []pkg.ServiceOffering) string {
	lines := make([]string, 0, len(services))
	for _, s := range services {
		lines = append(lines, "- "+s.Name+" ("+s.Price+", "+s.Duration+"): ideal for "+s.IdealFor)
	}
	return strings.Join(lines, "\n")
}
