// Package window keeps the conversation transcript and produces views of it
// that fit a token budget.
package window

import (
	"github.com/Rorical/RoriAgent/internal/models"
)

// charsPerToken is the divisor used by EstimateTokens.
const charsPerToken = 4

// Manager owns one conversation transcript. The first message is always the
// system prompt and is never evicted. A Manager belongs to a single
// conversation and is not safe for concurrent use.
type Manager struct {
	messages []models.Message
	limit    int
}

// SafeLimit reserves room for the reply plus a 5% safety margin.
func SafeLimit(contextLimit, maxOutput int) int {
	limit := int(float64(contextLimit-maxOutput) * 0.95)
	if limit < 0 {
		return 0
	}
	return limit
}

// NewManager starts a transcript holding only system. limit is the default
// budget reported by Limit.
func NewManager(system models.Message, limit int) *Manager {
	system.Type = models.System
	return &Manager{
		messages: []models.Message{system},
		limit:    limit,
	}
}

// Limit returns the default token budget for snapshots.
func (m *Manager) Limit() int {
	return m.limit
}

// Append adds msg to the end of the transcript.
func (m *Manager) Append(msg models.Message) {
	m.messages = append(m.messages, msg)
}

// Len returns the number of messages in the transcript, system included.
func (m *Manager) Len() int {
	return len(m.messages)
}

// Messages returns a copy of the full transcript.
func (m *Manager) Messages() []models.Message {
	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Snapshot returns the system message followed by the longest chronological
// suffix of the transcript whose estimated cost, together with the system
// message, stays within budget. Older messages are dropped from the view
// only. The system message is included even when it alone exceeds budget.
func (m *Manager) Snapshot(budget int) []models.Message {
	system := m.messages[0]
	used := EstimateTokens(system)

	var selected []models.Message
	for i := len(m.messages) - 1; i >= 1; i-- {
		cost := EstimateTokens(m.messages[i])
		if used+cost > budget {
			break
		}
		used += cost
		selected = append(selected, m.messages[i])
	}

	view := make([]models.Message, 0, len(selected)+1)
	view = append(view, system)
	for i := len(selected) - 1; i >= 0; i-- {
		view = append(view, selected[i])
	}
	return view
}

// Reset truncates the transcript back to the system message.
func (m *Manager) Reset() {
	system := m.messages[0]
	clear(m.messages[1:])
	m.messages = append(m.messages[:0], system)
}

// EstimateTokens approximates the token cost of msg. It is deterministic and
// never decreases as content grows.
func EstimateTokens(msg models.Message) int {
	n := len(msg.Content)
	for _, call := range msg.ToolCalls {
		n += len(call.ID) + len(call.Name) + len(call.Arguments)
	}
	return n / charsPerToken
}

// TotalTokens sums EstimateTokens over msgs.
func TotalTokens(msgs []models.Message) int {
	total := 0
	for _, msg := range msgs {
		total += EstimateTokens(msg)
	}
	return total
}
