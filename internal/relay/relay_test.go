package relay

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/lib/logger/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(t domain.EventType) domain.Event {
	return domain.NewEvent(t, "", nil, time.Now())
}

func next(t *testing.T, sub *Subscription) domain.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	return ev
}

func TestRelay_PublishOrderAndSeq(t *testing.T) {
	r := New(16, slogdiscard.NewDiscardLogger())
	a := r.Subscribe("s1", "alice")
	b := r.Subscribe("s1", "bob")
	other := r.Subscribe("s2", "carol")

	for i := 0; i < 5; i++ {
		r.Publish("s1", event(domain.EventCodeUpdated))
	}

	for _, sub := range []*Subscription{a, b} {
		for want := uint64(1); want <= 5; want++ {
			ev := next(t, sub)
			assert.Equal(t, want, ev.Seq)
			assert.Equal(t, "s1", ev.SessionID)
		}
	}
	assert.Equal(t, 0, other.Pending())
}

func TestRelay_Routing(t *testing.T) {
	r := New(16, nil)
	a := r.Subscribe("s1", "alice")
	b := r.Subscribe("s1", "bob")

	targeted := event(domain.EventWebRTCSignal)
	targeted.TargetUserID = "bob"
	r.Publish("s1", targeted)

	excluded := event(domain.EventCursorUpdated)
	excluded.ExcludeUserID = "bob"
	r.Publish("s1", excluded)

	assert.Equal(t, 1, a.Pending())
	assert.Equal(t, domain.EventCursorUpdated, next(t, a).Type)
	assert.Equal(t, 1, b.Pending())
	assert.Equal(t, domain.EventWebRTCSignal, next(t, b).Type)
}

func TestRelay_OverflowKeepsSingleResyncMarker(t *testing.T) {
	r := New(4, slogdiscard.NewDiscardLogger())
	sub := r.Subscribe("s1", "alice")

	for i := 0; i < 10; i++ {
		r.Publish("s1", event(domain.EventChatMessage))
	}

	assert.Equal(t, 5, sub.Pending())
	first := next(t, sub)
	assert.Equal(t, domain.EventResyncRequired, first.Type)

	var seqs []uint64
	for i := 0; i < 4; i++ {
		seqs = append(seqs, next(t, sub).Seq)
	}
	assert.Equal(t, []uint64{7, 8, 9, 10}, seqs)
}

func TestRelay_CloseSessionDrainsThenCloses(t *testing.T) {
	r := New(8, nil)
	sub := r.Subscribe("s1", "alice")

	r.Publish("s1", event(domain.EventParticipantLeft))
	r.Publish("s1", event(domain.EventSessionEnded))
	r.CloseSession("s1")

	assert.Equal(t, uint64(0), r.Publish("s1", event(domain.EventChatMessage)))

	assert.Equal(t, domain.EventParticipantLeft, next(t, sub).Type)
	assert.Equal(t, domain.EventSessionEnded, next(t, sub).Type)
	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Equal(t, 0, r.SubscriberCount("s1"))
}

func TestRelay_UnsubscribeWakesReader(t *testing.T) {
	r := New(8, nil)
	sub := r.Subscribe("s1", "alice")
	assert.Equal(t, 1, r.SubscriberCount("s1"))

	errc := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		errc <- err
	}()

	r.Unsubscribe(sub.ID)
	r.Unsubscribe(sub.ID)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSubscriptionClosed)
	case <-time.After(time.Second):
		t.Fatal("reader was not woken")
	}
	assert.Equal(t, 0, r.SubscriberCount("s1"))
}

func TestSubscription_NextHonorsContext(t *testing.T) {
	r := New(8, nil)
	sub := r.Subscribe("s1", "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelay_ConcurrentPublishersSingleOrder(t *testing.T) {
	r := New(1024, nil)
	a := r.Subscribe("s1", "alice")
	b := r.Subscribe("s1", "bob")

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ev := event(domain.EventChatMessage)
				ev.Payload = fmt.Sprintf("%d-%d", p, i)
				r.Publish("s1", ev)
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, 400, a.Pending())
	require.Equal(t, 400, b.Pending())
	for i := 0; i < 400; i++ {
		ea, eb := next(t, a), next(t, b)
		assert.Equal(t, ea.Seq, eb.Seq)
		assert.Equal(t, ea.Payload, eb.Payload)
	}
}
