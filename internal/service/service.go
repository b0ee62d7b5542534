package service

import (
	"context"
	"time"

	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/relay"
)

type SessionInteractor interface {
	CreateSession(ctx context.Context, creator domain.Identity, title string, settings domain.Settings) (domain.SessionSnapshot, error)
	GetSession(ctx context.Context, id string) (domain.SessionSnapshot, error)
	GetSessionByJoinCode(ctx context.Context, joinCode string) (domain.SessionSnapshot, error)
	JoinSession(ctx context.Context, id string, user domain.Identity) (domain.SessionSnapshot, error)
	LeaveSession(ctx context.Context, id, userID string) error
	EndSession(ctx context.Context, id, callerID string) error
	UpdateCode(ctx context.Context, id, callerID, content string) (int64, error)
	UpdateCursor(ctx context.Context, id, userID string, cursor domain.CursorState) ([]domain.CursorState, error)
	PostChatMessage(ctx context.Context, id, userID, displayName, text string) (domain.ChatMessage, error)
	GetChatMessages(ctx context.Context, id string, since time.Time, limit int) ([]domain.ChatMessage, error)
	RelaySignal(ctx context.Context, id, fromUserID, toUserID string, kind domain.SignalKind, payload domain.SignalPayload) (domain.SignalMessage, error)
	GetSignals(ctx context.Context, id, userID string, since time.Time) ([]domain.SignalMessage, error)
	ListActiveSessions(ctx context.Context) ([]domain.SessionSnapshot, error)
	ExportSession(ctx context.Context, id, callerID string) (*domain.SessionRecord, error)
	Subscribe(ctx context.Context, id, userID string) (*relay.Subscription, error)
	Unsubscribe(subscriptionID string)
}

var _ SessionInteractor = (*SessionService)(nil)
