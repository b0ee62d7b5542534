package domain

import (
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0     = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	limits = Limits{ChatHistory: 3, SignalRetention: time.Minute, SignalLimit: 2}
)

func TestNewSession(t *testing.T) {
	s, err := NewSession(Identity{UserID: "alice", DisplayName: "Alice"}, " demo ", Settings{MaxParticipants: 2, InitialCode: "x = 1"}, limits, t0)
	require.NoError(t, err)

	assert.Len(t, s.JoinCode, 16)
	assert.NotEqual(t, s.ID, s.JoinCode)
	assert.Equal(t, "demo", s.Title)
	assert.True(t, s.IsActive)
	assert.Equal(t, int64(1), s.Document.Snapshot().Version)
	assert.Equal(t, "x = 1", s.Document.Snapshot().Content)

	host, ok := s.Participants.Get("alice")
	require.True(t, ok)
	assert.Equal(t, RoleHost, host.Role)
	assert.Equal(t, RoleHost, s.RoleOf("alice"))
	assert.Equal(t, RoleParticipant, s.RoleOf("bob"))

	other, err := NewSession(Identity{UserID: "alice"}, "", Settings{MaxParticipants: 2}, limits, t0)
	require.NoError(t, err)
	assert.NotEqual(t, s.JoinCode, other.JoinCode)
}

func TestNewSession_Invalid(t *testing.T) {
	_, err := NewSession(Identity{UserID: "alice"}, "", Settings{MaxParticipants: 0}, limits, t0)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = NewSession(Identity{UserID: " "}, "", Settings{MaxParticipants: 1}, limits, t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSession_DeactivateIsTerminal(t *testing.T) {
	s, err := NewSession(Identity{UserID: "alice"}, "", Settings{MaxParticipants: 1}, limits, t0)
	require.NoError(t, err)

	assert.True(t, s.Deactivate(EndReasonEnded, t0.Add(time.Minute)))
	assert.False(t, s.Deactivate(EndReasonIdle, t0.Add(time.Hour)))
	assert.Equal(t, EndReasonEnded, s.EndReason)
	assert.Equal(t, t0.Add(time.Minute), s.EndedAt)
}

func TestSession_PurgeReleasesBuffers(t *testing.T) {
	s, err := NewSession(Identity{UserID: "alice"}, "", Settings{MaxParticipants: 1}, limits, t0)
	require.NoError(t, err)
	s.Purge()

	_, err = s.Chat.Append(ChatMessage{Text: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Cursors.Update(CursorState{UserID: "alice"}), ErrSessionNotFound)
	assert.ErrorIs(t, s.Signals.Append(SignalMessage{}, t0), ErrSessionNotFound)
	_, err = s.Signals.For("alice", time.Time{})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	snap := s.Snapshot()
	assert.Len(t, snap.Participants, 1)
}

func TestSessionRecord_RoundTrip(t *testing.T) {
	s, err := NewSession(Identity{UserID: "alice", DisplayName: "Alice"}, "demo", Settings{MaxParticipants: 3, AllowJoin: true}, limits, t0)
	require.NoError(t, err)
	s.Participants.Add(Participant{UserID: "bob", Role: RoleParticipant, JoinedAt: t0})
	s.Document.Replace("print(1)", "bob", t0.Add(time.Second))
	host, _ := s.Participants.Get("alice")
	_, err = s.Chat.Append(NewChatMessage(s.ID, host, "", "hi", t0))
	require.NoError(t, err)
	require.NoError(t, s.Cursors.Update(CursorState{UserID: "bob", Position: CursorPosition{Line: 2}}))
	require.NoError(t, s.Signals.Append(NewSignalMessage(s.ID, "alice", "bob", SignalOffer, SignalPayload{
		SDP: &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
	}, t0), t0))

	rec := s.Record(t0)
	restored := SessionFromRecord(rec, limits)

	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	msgs, err := restored.Chat.List(time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	cursors, err := restored.Cursors.All()
	require.NoError(t, err)
	assert.Len(t, cursors, 1)
	assert.Equal(t, int64(2), restored.Document.Snapshot().Version)

	s.Deactivate(EndReasonEnded, t0.Add(time.Hour))
	ended := SessionFromRecord(s.Record(t0.Add(time.Hour)), limits)
	assert.False(t, ended.IsActive)
	_, err = ended.Chat.List(time.Time{}, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRoster(t *testing.T) {
	r := NewRoster()
	assert.True(t, r.Add(Participant{UserID: "a"}))
	assert.True(t, r.Add(Participant{UserID: "b"}))
	assert.False(t, r.Add(Participant{UserID: "a", DisplayName: "dup"}))
	assert.True(t, r.Add(Participant{UserID: "c"}))

	_, ok := r.Remove("b")
	assert.True(t, ok)
	_, ok = r.Remove("b")
	assert.False(t, ok)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].UserID)
	assert.Equal(t, "", list[0].DisplayName)
	assert.Equal(t, "c", list[1].UserID)

	assert.True(t, r.Touch("a", t0))
	assert.False(t, r.Touch("zz", t0))
	a, _ := r.Get("a")
	assert.Equal(t, t0, a.LastActivityAt)
}

func TestDocument_Replace(t *testing.T) {
	d := NewDocument("", "alice", t0)
	assert.Equal(t, int64(2), d.Replace("a", "alice", t0))
	assert.Equal(t, int64(3), d.Replace("b", "bob", t0.Add(time.Second)))

	snap := d.Snapshot()
	assert.Equal(t, "b", snap.Content)
	assert.Equal(t, "bob", snap.LastEditorID)

	assert.Equal(t, int64(1), RestoreDocument(CodeDocument{}).Snapshot().Version)
}

func TestChatLog(t *testing.T) {
	l := NewChatLog(3)
	author := Participant{UserID: "alice", DisplayName: "Alice"}

	first, err := l.Append(NewChatMessage("s", author, "", "1", t0.Add(time.Minute)))
	require.NoError(t, err)
	second, err := l.Append(NewChatMessage("s", author, "", "2", t0))
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "created_at never decreases")

	for _, text := range []string{"3", "4"} {
		_, err := l.Append(NewChatMessage("s", author, "", text, t0.Add(2*time.Minute)))
		require.NoError(t, err)
	}

	all, err := l.List(time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].Text)
	assert.Equal(t, "4", all[2].Text)

	recent, err := l.List(t0.Add(time.Minute), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestCursorState_Validate(t *testing.T) {
	assert.NoError(t, CursorState{UserID: "a"}.Validate())
	assert.ErrorIs(t, CursorState{}.Validate(), ErrInvalidCursor)
	assert.ErrorIs(t, CursorState{UserID: "a", Position: CursorPosition{Line: -1}}.Validate(), ErrInvalidCursor)
	assert.ErrorIs(t, CursorState{UserID: "a", Selection: &CursorSelection{End: CursorPosition{Column: -2}}}.Validate(), ErrInvalidInput)
}

func TestCursorTracker_LatestWins(t *testing.T) {
	tr := NewCursorTracker()
	require.NoError(t, tr.Update(CursorState{UserID: "b", Position: CursorPosition{Line: 1}}))
	require.NoError(t, tr.Update(CursorState{UserID: "a"}))
	require.NoError(t, tr.Update(CursorState{UserID: "b", Position: CursorPosition{Line: 9}}))

	all, err := tr.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].UserID)
	assert.Equal(t, 9, all[1].Position.Line)
}

func TestSignalStore_RetentionAndLimit(t *testing.T) {
	s := NewSignalStore(limits.SignalRetention, limits.SignalLimit)
	offer := SignalPayload{SDP: &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}}

	require.NoError(t, s.Append(NewSignalMessage("s", "a", "b", SignalOffer, offer, t0), t0))
	require.NoError(t, s.Append(NewSignalMessage("s", "a", "", SignalOffer, offer, t0.Add(time.Second)), t0.Add(time.Second)))
	require.NoError(t, s.Append(NewSignalMessage("s", "c", "a", SignalOffer, offer, t0.Add(2*time.Second)), t0.Add(2*time.Second)))
	assert.Equal(t, 2, s.Len())

	forB, err := s.For("b", time.Time{})
	require.NoError(t, err)
	assert.Len(t, forB, 1)
	forA, err := s.For("a", time.Time{})
	require.NoError(t, err)
	assert.Len(t, forA, 1)

	assert.Equal(t, 2, s.Evict(t0.Add(2*time.Minute)))
	assert.Equal(t, 0, s.Len())
}

func TestSignalPayload_Validate(t *testing.T) {
	offer := &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	answer := &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}

	assert.NoError(t, SignalPayload{SDP: offer}.Validate(SignalOffer))
	assert.NoError(t, SignalPayload{SDP: answer}.Validate(SignalAnswer))
	assert.NoError(t, SignalPayload{Candidate: &webrtc.ICECandidateInit{Candidate: "c"}}.Validate(SignalICECandidate))
	assert.NoError(t, SignalPayload{Data: map[string]any{"k": 1}}.Validate(SignalCustom))

	assert.ErrorIs(t, SignalPayload{SDP: answer}.Validate(SignalOffer), ErrInvalidSignal)
	assert.ErrorIs(t, SignalPayload{SDP: &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer}}.Validate(SignalOffer), ErrInvalidSignal)
	assert.ErrorIs(t, SignalPayload{}.Validate(SignalICECandidate), ErrInvalidSignal)
	assert.ErrorIs(t, SignalPayload{}.Validate(SignalCustom), ErrInvalidSignal)
	assert.ErrorIs(t, SignalPayload{SDP: offer}.Validate("renegotiate"), ErrInvalidInput)
}

func TestEvent_DeliverableTo(t *testing.T) {
	broadcast := NewEvent(EventChatMessage, "s", nil, t0)
	assert.True(t, broadcast.DeliverableTo("a"))

	targeted := broadcast
	targeted.TargetUserID = "b"
	assert.False(t, targeted.DeliverableTo("a"))
	assert.True(t, targeted.DeliverableTo("b"))

	excluded := broadcast
	excluded.ExcludeUserID = "a"
	assert.False(t, excluded.DeliverableTo("a"))
	assert.True(t, excluded.DeliverableTo("b"))
}
