package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/repository"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
)

const defaultPersistTimeout = 5 * time.Second

// Persister writes session records to the snapshot store in the background.
// Only the latest pending record of a session is kept, so a burst of edits
// costs one write. Failed writes are logged and dropped.
type Persister struct {
	store   repository.SnapshotStore
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*domain.SessionRecord
	order   []string
	notify  chan struct{}

	writeMu sync.Mutex
}

func NewPersister(store repository.SnapshotStore, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.Default()
	}
	return &Persister{
		store:   store,
		log:     log,
		timeout: defaultPersistTimeout,
		pending: make(map[string]*domain.SessionRecord),
		notify:  make(chan struct{}, 1),
	}
}

// Enqueue schedules rec for writing, replacing any pending record of the same
// session. It never blocks on the store.
func (p *Persister) Enqueue(rec *domain.SessionRecord) {
	if rec == nil {
		return
	}

	p.mu.Lock()
	if _, ok := p.pending[rec.ID]; !ok {
		p.order = append(p.order, rec.ID)
	}
	p.pending[rec.ID] = rec
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Pending reports the number of sessions waiting to be written.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run writes records as they arrive until ctx is done, then flushes what is
// left with a fresh deadline.
func (p *Persister) Run(ctx context.Context) error {
	const op = "service.persister.run"
	log := p.log.With(slog.String("op", op))
	log.Info("persister started")

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
			n := p.Flush(flushCtx)
			cancel()
			log.Info("persister stopped", slog.Int("flushed", n))
			return nil
		case <-p.notify:
			p.Flush(ctx)
		}
	}
}

// Flush writes every pending record and returns how many were stored.
func (p *Persister) Flush(ctx context.Context) int {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	written := 0
	for {
		rec := p.next()
		if rec == nil {
			return written
		}
		if err := p.write(ctx, rec); err != nil {
			p.log.Error("failed to persist session",
				slog.String("session_id", rec.ID),
				sl.Err(err),
			)
			continue
		}
		written++
	}
}

func (p *Persister) next() *domain.SessionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.order) == 0 {
		return nil
	}
	id := p.order[0]
	p.order = p.order[1:]
	rec := p.pending[id]
	delete(p.pending, id)
	return rec
}

func (p *Persister) write(ctx context.Context, rec *domain.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.store.Put(ctx, rec)
}
