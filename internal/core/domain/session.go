package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the speaker label used when rendering a transcript.
func (r Role) Label() string {
	if r == RoleUser {
		return "Human"
	}
	return "Assistant"
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is a single turn in a session. Immutable once appended.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Session is an ordered, append-only message log.
type Session struct {
	// ID is an opaque random token.
	ID string

	// Messages are ordered oldest first.
	Messages []Message

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// UpdatedAt is when the last message was appended.
	UpdatedAt time.Time
}

// SessionSummary is a lightweight listing entry.
type SessionSummary struct {
	ID           string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LastMessages returns the most recent max messages, oldest first.
// A max of zero or less returns every message.
func LastMessages(messages []Message, max int) []Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}

// RenderTranscript formats messages as "<Label>: <content>" blocks
// separated by blank lines, trimmed.
func RenderTranscript(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Role.Label())
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
