// message.go - Defines the ChatMessage struct for every entry shown in the chat log.
// Messages are created once when sent or received and never mutated afterwards.

package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single rendered chat entry.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser reports whether the message was authored by the user.
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}

// ParseRole maps a backend role string onto a Role. Anything that is not
// "user" is shown as an assistant message.
func ParseRole(s string) Role {
	if Role(s) == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}
