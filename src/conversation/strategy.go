package conversation

import (
	"strings"

	"leadchat/pkg"
)

type ContextStrategy interface {
	BuildContext(messages []pkg.ConversationMessage) string
	GetMaxTurns() int
}

// HistoryStrategy renders the last N messages as "role: content" lines
type HistoryStrategy struct {
	maxTurns int
}

// DefaultHistoryTurns is how many recent messages the prompt sees
const DefaultHistoryTurns = 10

func NewHistoryStrategy(maxTurns int) *HistoryStrategy {
	if maxTurns <= 0 {
		maxTurns = DefaultHistoryTurns
	}
	return &HistoryStrategy{maxTurns: maxTurns}
}

func (s *HistoryStrategy) GetMaxTurns() int {
	return s.maxTurns
}

func (s *HistoryStrategy) BuildContext(messages []pkg.ConversationMessage) string {
	recent := trimTail(messages, s.maxTurns)

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, string(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// Helper function
func trimTail[T any](messages []T, maxTurns int) []T {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
