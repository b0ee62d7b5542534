package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/immxrtalbeast/codecollab/internal/domain"
)

type InMemorySessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session
	joinCodes map[string]string
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions:  make(map[string]*domain.Session),
		joinCodes: make(map[string]string),
	}
}

// Create inserts the session. Ids and join codes are never reused, even
// after Delete.
func (r *InMemorySessionStore) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return ErrJoinCodeExists
	}
	if _, ok := r.joinCodes[session.JoinCode]; ok {
		return ErrJoinCodeExists
	}

	r.sessions[session.ID] = session
	r.joinCodes[session.JoinCode] = session.ID
	return nil
}

// Activate inserts a session rebuilt from a record unless one with the same id
// is already loaded, in which case the loaded one is returned.
func (r *InMemorySessionStore) Activate(session *domain.Session) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.sessions[session.ID]; existing != nil {
		return existing
	}
	r.sessions[session.ID] = session
	r.joinCodes[session.JoinCode] = session.ID
	return session
}

func (r *InMemorySessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (r *InMemorySessionStore) GetByJoinCode(ctx context.Context, joinCode string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.joinCodes[joinCode]
	if !ok {
		return nil, ErrSessionNotFound
	}

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Delete evicts the session from memory. Its join code stays reserved.
func (r *InMemorySessionStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}

	delete(r.sessions, id)
	return nil
}

func (r *InMemorySessionStore) List(ctx context.Context) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		result = append(result, session)
	}
	return result, nil
}

// InMemorySnapshotStore keeps records in process memory. It backs the
// "memory" storage driver and tests.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	records   map[string]domain.SessionRecord
	joinCodes map[string]string
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		records:   make(map[string]domain.SessionRecord),
		joinCodes: make(map[string]string),
	}
}

func (r *InMemorySnapshotStore) Put(ctx context.Context, record *domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.ID] = *record
	r.joinCodes[record.JoinCode] = record.ID
	return nil
}

func (r *InMemorySnapshotStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[sessionID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &rec, nil
}

func (r *InMemorySnapshotStore) GetByJoinCode(ctx context.Context, joinCode string) (*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.joinCodes[joinCode]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &rec, nil
}

func (r *InMemorySnapshotStore) ListActive(ctx context.Context) ([]*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.SessionRecord, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.IsActive {
			continue
		}
		rec := rec
		result = append(result, &rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
