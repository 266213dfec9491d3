// Package session owns the per-process chat session state: the conversation
// id the backend uses to group message history.
package session

import (
	"strconv"
	"time"
)

// DefaultConversationID is used until the user starts a new chat.
const DefaultConversationID = "default"

const conversationPrefix = "chat_"

// Session holds the active conversation id. It is owned by the UI loop and is
// not safe for concurrent mutation.
type Session struct {
	conversationID string
	lastMillis     int64
	now            func() time.Time
}

// New creates a session on the default conversation. A nil clock uses time.Now.
func New(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{conversationID: DefaultConversationID, now: now}
}

// Resume creates a session attached to an existing conversation id.
func Resume(id string, now func() time.Time) *Session {
	s := New(now)
	if id != "" {
		s.conversationID = id
	}
	return s
}

// ConversationID returns the active conversation id.
func (s *Session) ConversationID() string {
	return s.conversationID
}

// NewConversation mints "chat_<unix millis>" and makes it active. The id is
// always different from the previous one, even when the clock has not moved.
func (s *Session) NewConversation() string {
	ms := s.now().UnixMilli()
	if ms <= s.lastMillis {
		ms = s.lastMillis + 1
	}
	id := conversationPrefix + strconv.FormatInt(ms, 10)
	if id == s.conversationID {
		ms++
		id = conversationPrefix + strconv.FormatInt(ms, 10)
	}
	s.lastMillis = ms
	s.conversationID = id
	return id
}
