package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewChatMessage(sessionID string, author Participant, displayName, text string, now time.Time) ChatMessage {
	if displayName == "" {
		displayName = author.DisplayName
	}
	return ChatMessage{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserID:      author.UserID,
		DisplayName: displayName,
		Text:        text,
		CreatedAt:   now.UTC(),
	}
}

// ChatLog is the ordered message history of one session. Messages are kept in
// insertion order and CreatedAt never decreases along the log.
type ChatLog struct {
	messages []ChatMessage
	limit    int
	purged   bool
}

// NewChatLog returns a log that keeps at most limit messages, dropping the
// oldest first. A limit <= 0 keeps everything.
func NewChatLog(limit int) *ChatLog {
	return &ChatLog{limit: limit}
}

func (l *ChatLog) Append(msg ChatMessage) (ChatMessage, error) {
	if l.purged {
		return ChatMessage{}, ErrSessionNotFound
	}
	if n := len(l.messages); n > 0 {
		if last := l.messages[n-1].CreatedAt; msg.CreatedAt.Before(last) {
			msg.CreatedAt = last
		}
	}
	l.messages = append(l.messages, msg)
	if l.limit > 0 && len(l.messages) > l.limit {
		l.messages = append([]ChatMessage(nil), l.messages[len(l.messages)-l.limit:]...)
	}
	return msg, nil
}

// List returns messages created after since (zero means all). When limit > 0
// only the most recent limit messages are returned, still oldest first.
func (l *ChatLog) List(since time.Time, limit int) ([]ChatMessage, error) {
	if l.purged {
		return nil, ErrSessionNotFound
	}
	out := make([]ChatMessage, 0, len(l.messages))
	for _, msg := range l.messages {
		if !since.IsZero() && !msg.CreatedAt.After(since) {
			continue
		}
		out = append(out, msg)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (l *ChatLog) Len() int {
	return len(l.messages)
}

func (l *ChatLog) Purge() {
	l.messages = nil
	l.purged = true
}
