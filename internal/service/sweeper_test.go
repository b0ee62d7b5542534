package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/immxrtalbeast/codecollab/lib/logger/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweep struct {
	calls atomic.Int32
}

func (c *countingSweep) Sweep(context.Context) (SweepStats, error) {
	c.calls.Add(1)
	return SweepStats{}, nil
}

func TestSweeper_RunsOnScheduleUntilCanceled(t *testing.T) {
	target := &countingSweep{}
	sw := NewSweeper(target, time.Second, slogdiscard.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestNewSweeper_ClampsInterval(t *testing.T) {
	sw := NewSweeper(&countingSweep{}, time.Millisecond, nil)
	assert.Equal(t, time.Second, sw.interval)
}
