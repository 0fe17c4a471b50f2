package connectivity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/connectivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchable struct {
	up atomic.Bool
}

func (s *switchable) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if s.up.Load() {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}

func signalled(m *connectivity.Monitor) bool {
	select {
	case <-m.Reachable():
		return true
	default:
		return false
	}
}

func TestMonitor_Poll_SignalsOnlyOnRecovery(t *testing.T) {
	// Arrange
	backend := &switchable{}
	server := httptest.NewServer(backend)
	defer server.Close()
	monitor := connectivity.NewMonitor(connectivity.Config{URL: server.URL}, nil)
	ctx := context.Background()

	// Act & Assert: 不可連線時沒有訊號
	assert.False(t, monitor.Poll(ctx))
	assert.False(t, signalled(monitor))

	// 恢復連線送出一次訊號
	backend.up.Store(true)
	assert.True(t, monitor.Poll(ctx))
	assert.True(t, signalled(monitor))
	assert.True(t, monitor.IsReachable())

	// 持續可連線不重複送出
	assert.True(t, monitor.Poll(ctx))
	assert.False(t, signalled(monitor))

	// 斷線後再恢復，再送出一次
	backend.up.Store(false)
	assert.False(t, monitor.Poll(ctx))
	backend.up.Store(true)
	assert.True(t, monitor.Poll(ctx))
	assert.True(t, signalled(monitor))
}

func TestMonitor_Poll_UnreachableHost(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	monitor := connectivity.NewMonitor(connectivity.Config{URL: url, ProbeTimeout: 200 * time.Millisecond}, nil)

	// Act
	ok := monitor.Poll(context.Background())

	// Assert
	assert.False(t, ok)
	assert.False(t, signalled(monitor))
}

func TestMonitor_Run_FirstProbeSignals(t *testing.T) {
	// Arrange
	backend := &switchable{}
	backend.up.Store(true)
	server := httptest.NewServer(backend)
	defer server.Close()
	monitor := connectivity.NewMonitor(connectivity.Config{URL: server.URL, Interval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	// Act
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	// Assert
	select {
	case <-monitor.Reachable():
	case <-time.After(2 * time.Second):
		t.Fatal("expected reachable signal")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "Run should stop after cancel")
	}
}
