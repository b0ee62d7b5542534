package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
)

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
	SignalCustom       SignalKind = "custom"
)

type SignalPayload struct {
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Data      map[string]any             `json:"data,omitempty"`
}

// Validate checks that the payload carries what the kind needs.
func (p SignalPayload) Validate(kind SignalKind) error {
	switch kind {
	case SignalOffer:
		if p.SDP == nil || p.SDP.Type != webrtc.SDPTypeOffer {
			return fmt.Errorf("%w: offer requires an sdp of type offer", ErrInvalidSignal)
		}
	case SignalAnswer:
		if p.SDP == nil || (p.SDP.Type != webrtc.SDPTypeAnswer && p.SDP.Type != webrtc.SDPTypePranswer) {
			return fmt.Errorf("%w: answer requires an sdp of type answer", ErrInvalidSignal)
		}
	case SignalICECandidate:
		if p.Candidate == nil {
			return fmt.Errorf("%w: ice-candidate requires a candidate", ErrInvalidSignal)
		}
		return nil
	case SignalCustom:
		if len(p.Data) == 0 {
			return fmt.Errorf("%w: custom signal requires data", ErrInvalidSignal)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidSignal, kind)
	}

	if strings.TrimSpace(p.SDP.SDP) == "" {
		return fmt.Errorf("%w: empty sdp", ErrInvalidSignal)
	}
	return nil
}

type SignalMessage struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	FromUserID string        `json:"from_user_id"`
	ToUserID   string        `json:"to_user_id,omitempty"` // empty broadcasts to the room
	Kind       SignalKind    `json:"kind"`
	Payload    SignalPayload `json:"payload"`
	CreatedAt  time.Time     `json:"created_at"`
}

func NewSignalMessage(sessionID, from, to string, kind SignalKind, payload SignalPayload, now time.Time) SignalMessage {
	return SignalMessage{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		FromUserID: from,
		ToUserID:   to,
		Kind:       kind,
		Payload:    payload,
		CreatedAt:  now.UTC(),
	}
}

// VisibleTo reports whether userID should see the message when catching up.
func (m SignalMessage) VisibleTo(userID string) bool {
	if m.FromUserID == userID {
		return false
	}
	return m.ToUserID == "" || m.ToUserID == userID
}

// SignalStore is an append-only buffer of signaling messages bounded by age
// and count.
type SignalStore struct {
	messages  []SignalMessage
	retention time.Duration
	limit     int
	purged    bool
}

// NewSignalStore keeps messages younger than retention, at most limit of
// them. Non-positive values disable the respective bound.
func NewSignalStore(retention time.Duration, limit int) *SignalStore {
	return &SignalStore{retention: retention, limit: limit}
}

func (s *SignalStore) Append(msg SignalMessage, now time.Time) error {
	if s.purged {
		return ErrSessionNotFound
	}
	s.Evict(now)
	s.messages = append(s.messages, msg)
	if s.limit > 0 && len(s.messages) > s.limit {
		s.messages = append([]SignalMessage(nil), s.messages[len(s.messages)-s.limit:]...)
	}
	return nil
}

// For returns the buffered messages visible to userID created after since.
func (s *SignalStore) For(userID string, since time.Time) ([]SignalMessage, error) {
	if s.purged {
		return nil, ErrSessionNotFound
	}
	out := make([]SignalMessage, 0)
	for _, msg := range s.messages {
		if !since.IsZero() && !msg.CreatedAt.After(since) {
			continue
		}
		if msg.VisibleTo(userID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *SignalStore) All() ([]SignalMessage, error) {
	if s.purged {
		return nil, ErrSessionNotFound
	}
	return append([]SignalMessage(nil), s.messages...), nil
}

// Evict drops messages older than the retention window and returns how many
// were removed.
func (s *SignalStore) Evict(now time.Time) int {
	if s.retention <= 0 || len(s.messages) == 0 {
		return 0
	}
	cutoff := now.Add(-s.retention)
	i := 0
	for i < len(s.messages) && s.messages[i].CreatedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.messages = append([]SignalMessage(nil), s.messages[i:]...)
	}
	return i
}

func (s *SignalStore) Len() int {
	return len(s.messages)
}

func (s *SignalStore) Purge() {
	s.messages = nil
	s.purged = true
}
