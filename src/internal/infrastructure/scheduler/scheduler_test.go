package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_Add_InvalidSpec(t *testing.T) {
	// Arrange
	s := scheduler.New(quietLogger(), nil)

	// Act
	err := s.Add("expire", "every now and then", func(context.Context) error { return nil })

	// Assert
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_Add_StandardAndDescriptorSpecs(t *testing.T) {
	// Arrange
	s := scheduler.New(quietLogger(), time.UTC)
	noop := func(context.Context) error { return nil }

	// Act
	require.NoError(t, s.Add("expire", "0 3 * * *", noop))
	require.NoError(t, s.Add("tiers", "@daily", noop))

	// Assert
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_RunsJobsAndCancelsOnStop(t *testing.T) {
	// Arrange
	s := scheduler.New(quietLogger(), nil)
	var runs atomic.Int32
	var sawCancel atomic.Bool
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		<-ctx.Done()
		sawCancel.Store(true)
		return errors.New("stopped")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Act
	go func() {
		s.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	// Assert
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.True(t, sawCancel.Load(), "執行中的任務應收到取消")
	assert.Equal(t, int32(1), runs.Load(), "上一次未結束時跳過觸發")
}
