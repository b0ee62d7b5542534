package domain

import "time"

type EventType string

const (
	EventParticipantJoined EventType = "participant-joined"
	EventParticipantLeft   EventType = "participant-left"
	EventSessionEnded      EventType = "session-ended"
	EventCodeUpdated       EventType = "code-updated"
	EventCursorUpdated     EventType = "cursor-updated"
	EventChatMessage       EventType = "chat-message"
	EventWebRTCSignal      EventType = "webrtc-signal"
	EventResyncRequired    EventType = "resync-required"
)

// Event is a push notification for the subscribers of one session. The
// routing fields never leave the process.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	TargetUserID  string `json:"-"`
	ExcludeUserID string `json:"-"`
}

func NewEvent(eventType EventType, sessionID string, payload any, now time.Time) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		CreatedAt: now.UTC(),
	}
}

// DeliverableTo reports whether a subscriber owned by userID gets the event.
func (e Event) DeliverableTo(userID string) bool {
	if e.ExcludeUserID != "" && e.ExcludeUserID == userID {
		return false
	}
	return e.TargetUserID == "" || e.TargetUserID == userID
}

type ParticipantEvent struct {
	Participant      Participant `json:"participant"`
	ParticipantCount int         `json:"participant_count"`
}

type SessionEndedEvent struct {
	Reason  EndReason `json:"reason"`
	EndedAt time.Time `json:"ended_at"`
}

type CodeUpdatedEvent struct {
	Version  int64     `json:"version"`
	Content  string    `json:"content"`
	EditorID string    `json:"editor_id"`
	EditedAt time.Time `json:"edited_at"`
}
