package repository

import (
	"context"

	"github.com/immxrtalbeast/codecollab/internal/domain"
)

// SessionStore is the in-process table of live sessions keyed by id. It only
// guards insert, delete and lookup; per-session state has its own lock.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	// Activate loads a session rebuilt from the snapshot store, returning the
	// already loaded instance when there is one.
	Activate(session *domain.Session) *domain.Session
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Session, error)
}

// SnapshotStore is the durable key-value store of session records. It is
// used for crash recovery and export, never as the source of truth.
type SnapshotStore interface {
	Put(ctx context.Context, record *domain.SessionRecord) error
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*domain.SessionRecord, error)
	ListActive(ctx context.Context) ([]*domain.SessionRecord, error)
}
