package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/relay"
	"github.com/immxrtalbeast/codecollab/internal/repository"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
)

const (
	maxChatMessageLength = 4000
	maxDisplayNameLength = 255
	maxCreateAttempts    = 5
)

type Options struct {
	DefaultMaxParticipants int
	MaxParticipantsLimit   int
	MaxDocumentBytes       int
	Limits                 domain.Limits
	IdleTimeout            time.Duration
	InactiveRetention      time.Duration
	Now                    func() time.Time
}

func (o *Options) setDefaults() {
	if o.DefaultMaxParticipants < 1 {
		o.DefaultMaxParticipants = 10
	}
	if o.MaxParticipantsLimit < o.DefaultMaxParticipants {
		o.MaxParticipantsLimit = o.DefaultMaxParticipants
	}
	if o.MaxDocumentBytes < 1 {
		o.MaxDocumentBytes = 1 << 20
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 24 * time.Hour
	}
	if o.InactiveRetention <= 0 {
		o.InactiveRetention = time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// SessionService is the only writer of session state. Every operation takes
// the session's lock for its whole read-modify-write step and publishes its
// events before releasing it, so subscribers see events in mutation order.
type SessionService struct {
	sessions  repository.SessionStore
	snapshots repository.SnapshotStore
	persister *Persister
	relay     *relay.Relay
	log       *slog.Logger
	opts      Options
}

func NewSessionService(
	sessions repository.SessionStore,
	snapshots repository.SnapshotStore,
	persister *Persister,
	relay *relay.Relay,
	log *slog.Logger,
	opts Options,
) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	opts.setDefaults()
	return &SessionService{
		sessions:  sessions,
		snapshots: snapshots,
		persister: persister,
		relay:     relay,
		log:       log,
		opts:      opts,
	}
}

func (s *SessionService) CreateSession(ctx context.Context, creator domain.Identity, title string, settings domain.Settings) (domain.SessionSnapshot, error) {
	const op = "service.session.create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("creator_id", creator.UserID),
	)

	if settings.MaxParticipants == 0 {
		settings.MaxParticipants = s.opts.DefaultMaxParticipants
	}
	if settings.MaxParticipants > s.opts.MaxParticipantsLimit {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: max_participants must not exceed %d", domain.ErrInvalidSettings, s.opts.MaxParticipantsLimit)
	}
	if len(settings.InitialCode) > s.opts.MaxDocumentBytes {
		return domain.SessionSnapshot{}, domain.ErrDocumentTooBig
	}
	if creator.DisplayName == "" {
		creator.DisplayName = creator.UserID
	}
	if utf8.RuneCountInString(creator.DisplayName) > maxDisplayNameLength {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: display name is too long", domain.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		session, err := domain.NewSession(creator, title, settings, s.opts.Limits, s.now())
		if err != nil {
			return domain.SessionSnapshot{}, err
		}

		if err := s.sessions.Create(ctx, session); err != nil {
			if errors.Is(err, repository.ErrJoinCodeExists) {
				log.Warn("session token collision, retrying", slog.Int("attempt", attempt+1))
				continue
			}
			log.Error("failed to store session", sl.Err(err))
			return domain.SessionSnapshot{}, err
		}

		session.Mutex.RLock()
		snap := session.Snapshot()
		s.persist(session)
		session.Mutex.RUnlock()

		log.Info("session created",
			slog.String("session_id", snap.ID),
			slog.Int("max_participants", snap.Settings.MaxParticipants),
		)
		return snap, nil
	}

	log.Error("could not allocate unique session tokens")
	return domain.SessionSnapshot{}, fmt.Errorf("%w: could not allocate unique session tokens", domain.ErrInternal)
}

func (s *SessionService) GetSession(ctx context.Context, id string) (domain.SessionSnapshot, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	session.Mutex.RLock()
	defer session.Mutex.RUnlock()
	return session.Snapshot(), nil
}

func (s *SessionService) GetSessionByJoinCode(ctx context.Context, joinCode string) (domain.SessionSnapshot, error) {
	session, err := s.getSessionByJoinCode(ctx, joinCode)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	session.Mutex.RLock()
	defer session.Mutex.RUnlock()
	return session.Snapshot(), nil
}

// JoinSession admits user to the session. Joining again only refreshes the
// participant's activity.
func (s *SessionService) JoinSession(ctx context.Context, id string, user domain.Identity) (domain.SessionSnapshot, error) {
	const op = "service.session.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("user_id", user.UserID),
	)

	if strings.TrimSpace(user.UserID) == "" {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	displayName := strings.TrimSpace(user.DisplayName)
	if displayName == "" {
		displayName = user.UserID
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return domain.SessionSnapshot{}, fmt.Errorf("%w: display name is too long", domain.ErrInvalidInput)
	}

	session, err := s.getSession(ctx, id)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if !session.IsActive {
		return domain.SessionSnapshot{}, domain.ErrSessionInactive
	}

	now := s.now()
	if session.Participants.Contains(user.UserID) {
		session.Participants.Touch(user.UserID, now)
		session.Touch(now)
		s.persist(session)
		log.Debug("participant rejoined")
		return session.Snapshot(), nil
	}

	if !session.Settings.AllowJoin && user.UserID != session.CreatorID {
		return domain.SessionSnapshot{}, domain.ErrJoinNotAllowed
	}
	if session.Participants.Len() >= session.Settings.MaxParticipants {
		log.Info("session is full", slog.Int("participants", session.Participants.Len()))
		return domain.SessionSnapshot{}, domain.ErrSessionFull
	}

	participant := domain.Participant{
		UserID:         user.UserID,
		DisplayName:    displayName,
		Role:           session.RoleOf(user.UserID),
		JoinedAt:       now.UTC(),
		LastActivityAt: now.UTC(),
	}
	session.Participants.Add(participant)
	session.Touch(now)

	s.publish(session, domain.NewEvent(domain.EventParticipantJoined, session.ID, domain.ParticipantEvent{
		Participant:      participant,
		ParticipantCount: session.Participants.Len(),
	}, now))
	s.persist(session)

	log.Info("participant joined",
		slog.String("role", string(participant.Role)),
		slog.Int("participants", session.Participants.Len()),
	)
	return session.Snapshot(), nil
}

// LeaveSession removes the participant. The session ends when the last one
// leaves. Leaving a session the user is not part of does nothing.
func (s *SessionService) LeaveSession(ctx context.Context, id, userID string) error {
	const op = "service.session.leave"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("user_id", userID),
	)

	session, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if !session.IsActive {
		return nil
	}

	participant, ok := session.Participants.Remove(userID)
	if !ok {
		return nil
	}
	_ = session.Cursors.Remove(userID)

	now := s.now()
	session.Touch(now)
	remaining := session.Participants.Len()

	s.publish(session, domain.NewEvent(domain.EventParticipantLeft, session.ID, domain.ParticipantEvent{
		Participant:      participant,
		ParticipantCount: remaining,
	}, now))

	log.Info("participant left", slog.Int("participants", remaining))

	if remaining == 0 {
		s.endLocked(session, domain.EndReasonEmpty, now)
		log.Info("session ended, no participants left")
		return nil
	}

	s.persist(session)
	return nil
}

// EndSession terminates the session on behalf of its creator.
func (s *SessionService) EndSession(ctx context.Context, id, callerID string) error {
	const op = "service.session.end"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("caller_id", callerID),
	)

	session, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if callerID != session.CreatorID {
		log.Warn("end rejected, caller is not the creator")
		return domain.ErrNotCreator
	}
	if !session.IsActive {
		return domain.ErrSessionInactive
	}

	s.endLocked(session, domain.EndReasonEnded, s.now())
	log.Info("session ended")
	return nil
}

// UpdateCode replaces the document content. Concurrent writers are applied in
// lock order and the last one wins.
func (s *SessionService) UpdateCode(ctx context.Context, id, callerID, content string) (int64, error) {
	const op = "service.session.update.code"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("user_id", callerID),
	)

	if len(content) > s.opts.MaxDocumentBytes {
		return 0, domain.ErrDocumentTooBig
	}

	session, err := s.getSession(ctx, id)
	if err != nil {
		return 0, err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if err := s.checkParticipant(session, callerID); err != nil {
		return 0, err
	}
	if session.Settings.ReadOnly && session.RoleOf(callerID) != domain.RoleHost {
		return 0, domain.ErrReadOnlyViolation
	}

	now := s.now()
	version := session.Document.Replace(content, callerID, now)
	session.Participants.Touch(callerID, now)
	session.Touch(now)

	s.publish(session, domain.NewEvent(domain.EventCodeUpdated, session.ID, domain.CodeUpdatedEvent{
		Version:  version,
		Content:  content,
		EditorID: callerID,
		EditedAt: now.UTC(),
	}, now))
	s.persist(session)

	log.Debug("code updated", slog.Int64("version", version), slog.Int("bytes", len(content)))
	return version, nil
}

// UpdateCursor stores the caller's cursor and returns every cursor of the
// session.
func (s *SessionService) UpdateCursor(ctx context.Context, id, userID string, cursor domain.CursorState) ([]domain.CursorState, error) {
	cursor.UserID = userID
	if err := cursor.Validate(); err != nil {
		return nil, err
	}

	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if err := s.checkParticipant(session, userID); err != nil {
		return nil, err
	}

	now := s.now()
	cursor.UpdatedAt = now.UTC()
	if err := session.Cursors.Update(cursor); err != nil {
		return nil, err
	}
	session.Participants.Touch(userID, now)
	session.Touch(now)

	ev := domain.NewEvent(domain.EventCursorUpdated, session.ID, cursor, now)
	ev.ExcludeUserID = userID
	s.publish(session, ev)
	s.persist(session)

	return session.Cursors.All()
}

func (s *SessionService) PostChatMessage(ctx context.Context, id, userID, displayName, text string) (domain.ChatMessage, error) {
	const op = "service.session.chat.post"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("user_id", userID),
	)

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxChatMessageLength {
		return domain.ChatMessage{}, domain.ErrMessageTooLong
	}
	displayName = strings.TrimSpace(displayName)
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return domain.ChatMessage{}, fmt.Errorf("%w: display name is too long", domain.ErrInvalidInput)
	}

	session, err := s.getSession(ctx, id)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if err := s.checkParticipant(session, userID); err != nil {
		return domain.ChatMessage{}, err
	}
	author, _ := session.Participants.Get(userID)

	now := s.now()
	msg, err := session.Chat.Append(domain.NewChatMessage(session.ID, author, displayName, text, now))
	if err != nil {
		return domain.ChatMessage{}, err
	}
	session.Participants.Touch(userID, now)
	session.Touch(now)

	s.publish(session, domain.NewEvent(domain.EventChatMessage, session.ID, msg, now))
	s.persist(session)

	log.Debug("chat message posted", slog.String("message_id", msg.ID))
	return msg, nil
}

// GetChatMessages returns the history oldest first. A zero since returns
// everything retained; limit > 0 keeps only the newest messages.
func (s *SessionService) GetChatMessages(ctx context.Context, id string, since time.Time, limit int) ([]domain.ChatMessage, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Mutex.RLock()
	defer session.Mutex.RUnlock()

	if !session.IsActive {
		return nil, domain.ErrSessionInactive
	}
	return session.Chat.List(since, limit)
}

// RelaySignal buffers a WebRTC signaling message and pushes it to its target,
// or to everyone but the sender when there is no target.
func (s *SessionService) RelaySignal(ctx context.Context, id, fromUserID, toUserID string, kind domain.SignalKind, payload domain.SignalPayload) (domain.SignalMessage, error) {
	const op = "service.session.signal"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
		slog.String("from_user_id", fromUserID),
		slog.String("to_user_id", toUserID),
		slog.String("kind", string(kind)),
	)

	if err := payload.Validate(kind); err != nil {
		return domain.SignalMessage{}, err
	}
	if toUserID != "" && toUserID == fromUserID {
		return domain.SignalMessage{}, fmt.Errorf("%w: sender and target are the same user", domain.ErrInvalidSignal)
	}

	session, err := s.getSession(ctx, id)
	if err != nil {
		return domain.SignalMessage{}, err
	}

	session.Mutex.Lock()
	defer session.Mutex.Unlock()

	if err := s.checkParticipant(session, fromUserID); err != nil {
		return domain.SignalMessage{}, err
	}
	if toUserID != "" && !session.Participants.Contains(toUserID) {
		return domain.SignalMessage{}, domain.ErrParticipantNotFound
	}

	now := s.now()
	msg := domain.NewSignalMessage(session.ID, fromUserID, toUserID, kind, payload, now)
	if err := session.Signals.Append(msg, now); err != nil {
		return domain.SignalMessage{}, err
	}
	session.Participants.Touch(fromUserID, now)
	session.Touch(now)

	ev := domain.NewEvent(domain.EventWebRTCSignal, session.ID, msg, now)
	if toUserID != "" {
		ev.TargetUserID = toUserID
	} else {
		ev.ExcludeUserID = fromUserID
	}
	s.publish(session, ev)
	s.persist(session)

	log.Debug("signal relayed", slog.String("signal_id", msg.ID))
	return msg, nil
}

// GetSignals returns the buffered signaling messages addressed to userID or
// broadcast by another participant, oldest first.
func (s *SessionService) GetSignals(ctx context.Context, id, userID string, since time.Time) ([]domain.SignalMessage, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Mutex.RLock()
	defer session.Mutex.RUnlock()

	if err := s.checkParticipant(session, userID); err != nil {
		return nil, err
	}

	if retention := s.opts.Limits.SignalRetention; retention > 0 {
		if cutoff := s.now().Add(-retention); since.Before(cutoff) {
			since = cutoff
		}
	}
	return session.Signals.For(userID, since)
}

// ListActiveSessions returns the live sessions ordered by creation time.
func (s *SessionService) ListActiveSessions(ctx context.Context) ([]domain.SessionSnapshot, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SessionSnapshot, 0, len(sessions))
	for _, session := range sessions {
		session.Mutex.RLock()
		if session.IsActive {
			result = append(result, session.Snapshot())
		}
		session.Mutex.RUnlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Subscribe registers a push endpoint for a participant. It holds the session
// lock so the endpoint either sees session-ended or is refused.
func (s *SessionService) Subscribe(ctx context.Context, id, userID string) (*relay.Subscription, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Mutex.RLock()
	defer session.Mutex.RUnlock()

	if err := s.checkParticipant(session, userID); err != nil {
		return nil, err
	}
	return s.relay.Subscribe(session.ID, userID), nil
}

func (s *SessionService) Unsubscribe(subscriptionID string) {
	s.relay.Unsubscribe(subscriptionID)
}

// ExportSession returns the persisted record of a session. Only the creator
// and the participants recorded in it may read it.
func (s *SessionService) ExportSession(ctx context.Context, id, callerID string) (*domain.SessionRecord, error) {
	const op = "service.session.export"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", id),
	)

	s.persister.Flush(ctx)

	rec, err := s.snapshots.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		log.Error("failed to read snapshot", sl.Err(err))
		return nil, fmt.Errorf("%w: read snapshot: %v", domain.ErrInternal, err)
	}

	if rec.CreatorID != callerID && !recordHasParticipant(rec, callerID) {
		return nil, domain.ErrNotParticipant
	}
	return rec, nil
}

// Restore loads the active sessions of the snapshot store into memory.
func (s *SessionService) Restore(ctx context.Context) (int, error) {
	const op = "service.session.restore"
	log := s.log.With(slog.String("op", op))

	records, err := s.snapshots.ListActive(ctx)
	if err != nil {
		log.Error("failed to list active sessions", sl.Err(err))
		return 0, err
	}

	for _, rec := range records {
		s.sessions.Activate(domain.SessionFromRecord(rec, s.opts.Limits))
	}

	log.Info("sessions restored", slog.Int("count", len(records)))
	return len(records), nil
}

type SweepStats struct {
	Expired        int
	SignalsEvicted int
	Evicted        int
	// ended sessions kept in memory because their final record is not stored yet
	Retained int
}

// Sweep ends idle sessions, drops expired signals and forgets sessions that
// have been inactive for longer than the retention. Sessions are locked one at
// a time.
func (s *SessionService) Sweep(ctx context.Context) (SweepStats, error) {
	const op = "service.session.sweep"
	log := s.log.With(slog.String("op", op))

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return SweepStats{}, err
	}

	var stats SweepStats
	now := s.now()
	idleCutoff := now.Add(-s.opts.IdleTimeout)
	evictCutoff := now.Add(-s.opts.InactiveRetention)

	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var final *domain.SessionRecord
		session.Mutex.Lock()
		switch {
		case session.IsActive && session.IdleSince(idleCutoff):
			s.endLocked(session, domain.EndReasonIdle, now)
			stats.Expired++
			log.Info("idle session expired",
				slog.String("session_id", session.ID),
				slog.Time("last_activity_at", session.LastActivityAt),
			)
		case session.IsActive:
			if n := session.Signals.Evict(now); n > 0 {
				stats.SignalsEvicted += n
				s.persist(session)
			}
		default:
			if session.EndedAt.Before(evictCutoff) {
				final = session.Record(now)
			}
		}
		session.Mutex.Unlock()

		if final != nil {
			if !s.finalRecordStored(ctx, final) {
				stats.Retained++
				continue
			}
			if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
				log.Error("failed to evict session", slog.String("session_id", session.ID), sl.Err(err))
				continue
			}
			stats.Evicted++
		}
	}

	log.Info("sweep finished",
		slog.Int("expired", stats.Expired),
		slog.Int("signals_evicted", stats.SignalsEvicted),
		slog.Int("evicted", stats.Evicted),
		slog.Int("retained", stats.Retained),
	)
	return stats, nil
}

// finalRecordStored reports whether the snapshot store already holds the
// session as inactive. Until it does, the live table is the only copy of the
// ended state, so the record is queued again and the session stays loaded.
func (s *SessionService) finalRecordStored(ctx context.Context, final *domain.SessionRecord) bool {
	rec, err := s.snapshots.Get(ctx, final.ID)
	if err == nil && !rec.IsActive {
		return true
	}
	if err != nil && !errors.Is(err, repository.ErrSnapshotNotFound) {
		s.log.Warn("failed to check final session record",
			slog.String("session_id", final.ID),
			sl.Err(err),
		)
	}
	s.persister.Enqueue(final)
	return false
}

// endLocked deactivates the session, publishes session-ended as its final
// event, stores the final record and releases the buffers. The caller holds
// the write lock.
func (s *SessionService) endLocked(session *domain.Session, reason domain.EndReason, now time.Time) {
	if !session.Deactivate(reason, now) {
		return
	}

	s.publish(session, domain.NewEvent(domain.EventSessionEnded, session.ID, domain.SessionEndedEvent{
		Reason:  reason,
		EndedAt: session.EndedAt,
	}, now))
	s.persist(session)
	session.Purge()
	s.log.Debug("closing session endpoints",
		slog.String("session_id", session.ID),
		slog.String("reason", string(reason)),
		slog.Int("subscribers", s.relay.SubscriberCount(session.ID)),
	)
	s.relay.CloseSession(session.ID)
}

func (s *SessionService) checkParticipant(session *domain.Session, userID string) error {
	if !session.IsActive {
		return domain.ErrSessionInactive
	}
	if !session.Participants.Contains(userID) {
		return domain.ErrNotParticipant
	}
	return nil
}

func (s *SessionService) getSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, err
	}

	rec, err := s.snapshots.Get(ctx, id)
	return s.activate(rec, err)
}

func (s *SessionService) getSessionByJoinCode(ctx context.Context, joinCode string) (*domain.Session, error) {
	session, err := s.sessions.GetByJoinCode(ctx, joinCode)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, err
	}

	rec, err := s.snapshots.GetByJoinCode(ctx, joinCode)
	return s.activate(rec, err)
}

// activate turns a stored record into a session. Active records are loaded
// into the table; ended ones are returned detached and read-only.
func (s *SessionService) activate(rec *domain.SessionRecord, err error) (*domain.Session, error) {
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			s.log.Warn("snapshot lookup failed", sl.Err(err))
		}
		return nil, domain.ErrSessionNotFound
	}

	session := domain.SessionFromRecord(rec, s.opts.Limits)
	if !session.IsActive {
		return session, nil
	}
	return s.sessions.Activate(session), nil
}

// publish enqueues an event on the relay. It never blocks, so it is called
// with the session lock held.
func (s *SessionService) publish(session *domain.Session, ev domain.Event) {
	s.relay.Publish(session.ID, ev)
}

// persist enqueues the current record. The caller holds the session lock.
func (s *SessionService) persist(session *domain.Session) {
	s.persister.Enqueue(session.Record(s.now()))
}

func (s *SessionService) now() time.Time {
	return s.opts.Now().UTC()
}

func recordHasParticipant(rec *domain.SessionRecord, userID string) bool {
	for _, p := range rec.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
