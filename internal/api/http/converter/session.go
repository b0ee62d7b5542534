package converter

import (
	"time"

	"github.com/immxrtalbeast/codecollab/internal/domain"
)

type CreateSessionRequest struct {
	Title           string `json:"title"`
	Language        string `json:"language"`
	Theme           string `json:"theme"`
	ReadOnly        bool   `json:"read_only"`
	MaxParticipants int    `json:"max_participants"`
	AllowJoin       *bool  `json:"allow_join"`
	InitialCode     string `json:"initial_code"`
}

// Settings builds session settings from the request. Joining is allowed
// unless the request says otherwise; a zero max_participants is filled in by
// the service.
func (r CreateSessionRequest) Settings() domain.Settings {
	allowJoin := true
	if r.AllowJoin != nil {
		allowJoin = *r.AllowJoin
	}
	return domain.Settings{
		Language:        r.Language,
		Theme:           r.Theme,
		ReadOnly:        r.ReadOnly,
		MaxParticipants: r.MaxParticipants,
		AllowJoin:       allowJoin,
		InitialCode:     r.InitialCode,
	}
}

type UpdateCodeRequest struct {
	Content *string `json:"content" binding:"required"`
}

type UpdateCursorRequest struct {
	Position  domain.CursorPosition   `json:"position"`
	Selection *domain.CursorSelection `json:"selection"`
}

func (r UpdateCursorRequest) Cursor() domain.CursorState {
	return domain.CursorState{Position: r.Position, Selection: r.Selection}
}

type PostChatRequest struct {
	Text        string `json:"text"`
	DisplayName string `json:"display_name"`
}

type RelaySignalRequest struct {
	ToUserID string               `json:"to_user_id"`
	Kind     domain.SignalKind    `json:"kind" binding:"required"`
	Payload  domain.SignalPayload `json:"payload"`
}

type SessionResponse struct {
	ID               string               `json:"id"`
	JoinCode         string               `json:"join_code"`
	CreatorID        string               `json:"creator_id"`
	Title            string               `json:"title"`
	Settings         domain.Settings      `json:"settings"`
	IsActive         bool                 `json:"is_active"`
	EndReason        domain.EndReason     `json:"end_reason,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	LastActivityAt   time.Time            `json:"last_activity_at"`
	EndedAt          *time.Time           `json:"ended_at,omitempty"`
	Participants     []domain.Participant `json:"participants"`
	ParticipantCount int                  `json:"participant_count"`
	Document         domain.CodeDocument  `json:"document"`
}

func SessionToApi(s domain.SessionSnapshot) *SessionResponse {
	participants := s.Participants
	if participants == nil {
		participants = []domain.Participant{}
	}
	return &SessionResponse{
		ID:               s.ID,
		JoinCode:         s.JoinCode,
		CreatorID:        s.CreatorID,
		Title:            s.Title,
		Settings:         s.Settings,
		IsActive:         s.IsActive,
		EndReason:        s.EndReason,
		CreatedAt:        s.CreatedAt,
		LastActivityAt:   s.LastActivityAt,
		EndedAt:          s.EndedAt,
		Participants:     participants,
		ParticipantCount: len(participants),
		Document:         s.Document,
	}
}

// SessionSummary is the list form of a session, without the document body.
type SessionSummary struct {
	ID               string    `json:"id"`
	JoinCode         string    `json:"join_code"`
	CreatorID        string    `json:"creator_id"`
	Title            string    `json:"title"`
	Language         string    `json:"language"`
	ParticipantCount int       `json:"participant_count"`
	MaxParticipants  int       `json:"max_participants"`
	CreatedAt        time.Time `json:"created_at"`
	LastActivityAt   time.Time `json:"last_activity_at"`
}

func SessionsToApi(list []domain.SessionSnapshot) []SessionSummary {
	out := make([]SessionSummary, 0, len(list))
	for _, s := range list {
		out = append(out, SessionSummary{
			ID:               s.ID,
			JoinCode:         s.JoinCode,
			CreatorID:        s.CreatorID,
			Title:            s.Title,
			Language:         s.Settings.Language,
			ParticipantCount: len(s.Participants),
			MaxParticipants:  s.Settings.MaxParticipants,
			CreatedAt:        s.CreatedAt,
			LastActivityAt:   s.LastActivityAt,
		})
	}
	return out
}
