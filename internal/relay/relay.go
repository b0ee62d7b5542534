// Package relay fans session events out to connected endpoints.
//
// Delivery is best effort and at most once. Every session has its own topic
// with a lock and a sequence counter; Publish enqueues to all matching
// subscriptions while holding that lock, so subscribers of one session observe
// a single order. Enqueueing never blocks: each subscription has a bounded
// backlog and, on overflow, drops its oldest event and queues a
// resync-required marker in front.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/codecollab/internal/domain"
)

const DefaultBacklog = 64

var ErrSubscriptionClosed = errors.New("subscription closed")

type topic struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[string]*Subscription
	closed bool
}

type Relay struct {
	log     *slog.Logger
	backlog int

	mu     sync.RWMutex
	topics map[string]*topic
	byID   map[string]*Subscription
}

func New(backlog int, log *slog.Logger) *Relay {
	if backlog < 2 {
		backlog = DefaultBacklog
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		log:     log,
		backlog: backlog,
		topics:  make(map[string]*topic),
		byID:    make(map[string]*Subscription),
	}
}

// Subscribe registers an endpoint of userID on the session.
func (r *Relay) Subscribe(sessionID, userID string) *Subscription {
	sub := newSubscription(sessionID, userID, r.backlog)

	r.mu.Lock()
	t := r.topics[sessionID]
	if t == nil {
		t = &topic{subs: make(map[string]*Subscription)}
		r.topics[sessionID] = t
	}
	t.mu.Lock()
	t.subs[sub.ID] = sub
	t.mu.Unlock()
	r.byID[sub.ID] = sub
	r.mu.Unlock()

	r.log.Debug("endpoint subscribed",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
		slog.String("subscription_id", sub.ID),
	)
	return sub
}

// Unsubscribe detaches the subscription and wakes its reader. Unknown ids are
// ignored. The topic outlives its last subscriber so sequence numbers keep
// increasing until the session is closed.
func (r *Relay) Unsubscribe(subscriptionID string) {
	r.mu.Lock()
	sub, ok := r.byID[subscriptionID]
	if ok {
		delete(r.byID, subscriptionID)
		if t := r.topics[sub.SessionID]; t != nil {
			t.mu.Lock()
			delete(t.subs, subscriptionID)
			t.mu.Unlock()
		}
	}
	r.mu.Unlock()

	if ok {
		sub.cancel()
	}
}

// Publish delivers ev to every subscription of the session that the event's
// routing allows. It returns the sequence number assigned to the event, or 0
// when the session topic is closed.
func (r *Relay) Publish(sessionID string, ev domain.Event) uint64 {
	t := r.topic(sessionID)
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}

	t.seq++
	ev.Seq = t.seq
	ev.SessionID = sessionID

	for _, sub := range t.subs {
		if !ev.DeliverableTo(sub.UserID) {
			continue
		}
		if dropped := sub.push(ev); dropped {
			r.log.Warn("subscriber backlog overflow, dropped oldest event",
				slog.String("session_id", sessionID),
				slog.String("subscription_id", sub.ID),
				slog.String("type", string(ev.Type)),
			)
		}
	}
	return ev.Seq
}

// CloseSession stops accepting events for the session. Subscriptions finish
// once their queued events have been read.
func (r *Relay) CloseSession(sessionID string) {
	r.mu.Lock()
	t, ok := r.topics[sessionID]
	if ok {
		delete(r.topics, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	t.closed = true
	subs := make([]*Subscription, 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.subs = nil
	t.mu.Unlock()

	r.mu.Lock()
	for _, sub := range subs {
		delete(r.byID, sub.ID)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.finish()
	}
}

// SubscriberCount reports the number of endpoints attached to the session.
func (r *Relay) SubscriberCount(sessionID string) int {
	t := r.topic(sessionID)
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (r *Relay) topic(sessionID string) *topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topics[sessionID]
}

// Subscription is one endpoint's queue of pending events.
type Subscription struct {
	ID        string
	SessionID string
	UserID    string

	mu       sync.Mutex
	queue    []domain.Event
	limit    int
	finished bool // no more events will be queued
	canceled bool // reader should stop immediately
	ready    chan struct{}
}

func newSubscription(sessionID, userID string, limit int) *Subscription {
	return &Subscription{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		limit:     limit,
		ready:     make(chan struct{}, 1),
	}
}

// Next blocks until an event is available, the subscription ends or ctx is
// done. After the session closes, the remaining events are still returned
// before ErrSubscriptionClosed.
func (s *Subscription) Next(ctx context.Context) (domain.Event, error) {
	for {
		s.mu.Lock()
		if s.canceled {
			s.mu.Unlock()
			return domain.Event{}, ErrSubscriptionClosed
		}
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue[0] = domain.Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		if s.finished {
			s.mu.Unlock()
			return domain.Event{}, ErrSubscriptionClosed
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Event{}, ctx.Err()
		case <-s.ready:
		}
	}
}

// Pending reports the number of queued events including a resync marker.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscription) push(ev domain.Event) (dropped bool) {
	s.mu.Lock()
	if s.finished || s.canceled {
		s.mu.Unlock()
		return false
	}

	marker := len(s.queue) > 0 && s.queue[0].Type == domain.EventResyncRequired
	n := len(s.queue)
	if marker {
		n--
	}
	if n >= s.limit {
		dropped = true
		if marker {
			s.queue = append(s.queue[:1], s.queue[2:]...)
		} else {
			s.queue[0] = domain.Event{
				Type:      domain.EventResyncRequired,
				SessionID: s.SessionID,
				CreatedAt: time.Now().UTC(),
			}
		}
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	s.wake()
	return dropped
}

func (s *Subscription) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) cancel() {
	s.mu.Lock()
	s.canceled = true
	s.queue = nil
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
