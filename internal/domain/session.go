package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const joinCodeBytes = 12

type EndReason string

const (
	EndReasonEnded EndReason = "ended"
	EndReasonEmpty EndReason = "empty"
	EndReasonIdle  EndReason = "idle"
)

type Settings struct {
	Language        string `json:"language"`
	Theme           string `json:"theme"`
	ReadOnly        bool   `json:"read_only"`
	MaxParticipants int    `json:"max_participants"`
	AllowJoin       bool   `json:"allow_join"`
	InitialCode     string `json:"initial_code,omitempty"`
}

func (s Settings) Validate() error {
	if s.MaxParticipants < 1 {
		return fmt.Errorf("%w: max_participants must be at least 1", ErrInvalidSettings)
	}
	return nil
}

// Limits bound the per-session buffers.
type Limits struct {
	ChatHistory     int
	SignalRetention time.Duration
	SignalLimit     int
}

// Session is the live state of one collaborative room. Every field and
// sub-component is guarded by Mutex; the sub-components are not safe for
// concurrent use on their own.
type Session struct {
	Mutex          sync.RWMutex
	ID             string
	JoinCode       string
	CreatorID      string
	Title          string
	Settings       Settings
	IsActive       bool
	EndReason      EndReason
	CreatedAt      time.Time
	LastActivityAt time.Time
	EndedAt        time.Time

	Participants *Roster
	Document     *Document
	Chat         *ChatLog
	Cursors      *CursorTracker
	Signals      *SignalStore
}

// NewSession constructs an active session with the creator registered as host
// and a document at version 1.
func NewSession(creator Identity, title string, settings Settings, limits Limits, now time.Time) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(creator.UserID) == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}

	joinCode, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("%w: generate join code: %v", ErrInternal, err)
	}

	now = now.UTC()
	s := &Session{
		ID:             uuid.NewString(),
		JoinCode:       joinCode,
		CreatorID:      creator.UserID,
		Title:          strings.TrimSpace(title),
		Settings:       settings,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
		Participants:   NewRoster(),
		Document:       NewDocument(settings.InitialCode, creator.UserID, now),
		Chat:           NewChatLog(limits.ChatHistory),
		Cursors:        NewCursorTracker(),
		Signals:        NewSignalStore(limits.SignalRetention, limits.SignalLimit),
	}
	s.Participants.Add(Participant{
		UserID:         creator.UserID,
		DisplayName:    creator.DisplayName,
		Role:           RoleHost,
		JoinedAt:       now,
		LastActivityAt: now,
	})

	return s, nil
}

// RoleOf reports the role the user holds or would hold in the session.
func (s *Session) RoleOf(userID string) Role {
	if userID == s.CreatorID {
		return RoleHost
	}
	return RoleParticipant
}

func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now.UTC()
}

// Deactivate moves the session to its terminal state. It reports false when
// the session was already inactive.
func (s *Session) Deactivate(reason EndReason, now time.Time) bool {
	if !s.IsActive {
		return false
	}
	now = now.UTC()
	s.IsActive = false
	s.EndReason = reason
	s.EndedAt = now
	s.LastActivityAt = now
	return true
}

// Purge releases chat, cursor and signal memory. The roster and document are
// kept for read access.
func (s *Session) Purge() {
	s.Chat.Purge()
	s.Cursors.Purge()
	s.Signals.Purge()
}

// IdleSince reports whether the session saw no activity after cutoff.
func (s *Session) IdleSince(cutoff time.Time) bool {
	return s.LastActivityAt.Before(cutoff)
}

type SessionSnapshot struct {
	ID             string        `json:"id"`
	JoinCode       string        `json:"join_code"`
	CreatorID      string        `json:"creator_id"`
	Title          string        `json:"title"`
	Settings       Settings      `json:"settings"`
	IsActive       bool          `json:"is_active"`
	EndReason      EndReason     `json:"end_reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	EndedAt        *time.Time    `json:"ended_at,omitempty"`
	Participants   []Participant `json:"participants"`
	Document       CodeDocument  `json:"document"`
}

// SessionRecord is the durable form of a session, one per session id.
type SessionRecord struct {
	SessionSnapshot
	Chat    []ChatMessage   `json:"chat"`
	Cursors []CursorState   `json:"cursors"`
	Signals []SignalMessage `json:"signals"`
	SavedAt time.Time       `json:"saved_at"`
}

// Snapshot copies the session. The caller must hold at least a read lock.
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:             s.ID,
		JoinCode:       s.JoinCode,
		CreatorID:      s.CreatorID,
		Title:          s.Title,
		Settings:       s.Settings,
		IsActive:       s.IsActive,
		EndReason:      s.EndReason,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		Participants:   s.Participants.List(),
		Document:       s.Document.Snapshot(),
	}
	if !s.EndedAt.IsZero() {
		endedAt := s.EndedAt
		snap.EndedAt = &endedAt
	}
	return snap
}

// Record copies the session together with its buffers. Purged buffers are
// recorded as empty. The caller must hold at least a read lock.
func (s *Session) Record(now time.Time) *SessionRecord {
	rec := &SessionRecord{
		SessionSnapshot: s.Snapshot(),
		SavedAt:         now.UTC(),
	}
	if chat, err := s.Chat.List(time.Time{}, 0); err == nil {
		rec.Chat = chat
	}
	if cursors, err := s.Cursors.All(); err == nil {
		rec.Cursors = cursors
	}
	if signals, err := s.Signals.All(); err == nil {
		rec.Signals = signals
	}
	return rec
}

// SessionFromRecord rebuilds live state from a persisted record.
func SessionFromRecord(rec *SessionRecord, limits Limits) *Session {
	s := &Session{
		ID:             rec.ID,
		JoinCode:       rec.JoinCode,
		CreatorID:      rec.CreatorID,
		Title:          rec.Title,
		Settings:       rec.Settings,
		IsActive:       rec.IsActive,
		EndReason:      rec.EndReason,
		CreatedAt:      rec.CreatedAt.UTC(),
		LastActivityAt: rec.LastActivityAt.UTC(),
		Participants:   NewRoster(),
		Document:       RestoreDocument(rec.Document),
		Chat:           NewChatLog(limits.ChatHistory),
		Cursors:        NewCursorTracker(),
		Signals:        NewSignalStore(limits.SignalRetention, limits.SignalLimit),
	}
	if rec.EndedAt != nil {
		s.EndedAt = rec.EndedAt.UTC()
	}
	for _, p := range rec.Participants {
		s.Participants.Add(p)
	}
	for _, msg := range rec.Chat {
		_, _ = s.Chat.Append(msg)
	}
	for _, c := range rec.Cursors {
		_ = s.Cursors.Update(c)
	}
	for _, sig := range rec.Signals {
		_ = s.Signals.Append(sig, sig.CreatedAt)
	}
	if !s.IsActive {
		s.Purge()
	}
	return s
}

func generateJoinCode() (string, error) {
	b := make([]byte, joinCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
