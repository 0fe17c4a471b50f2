// Package connectivity 以 HTTP 探測判斷遠端是否可連線
package connectivity

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// Config 探測設定
type Config struct {
	URL          string
	Interval     time.Duration
	ProbeTimeout time.Duration
}

// Monitor 週期性探測，每次由「不可連線」轉為「可連線」時送出一個訊號
//
// 初始狀態視為不可連線，因此第一次探測成功也會送出訊號。
// 訊號通道容量為 1，消費者來不及處理時多次恢復會合併成一次。
type Monitor struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu        sync.Mutex
	reachable bool
	signals   chan struct{}
}

var _ ports.ConnectivityMonitor = (*Monitor)(nil)

// NewMonitor 建立探測器
func NewMonitor(cfg Config, logger *slog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		url:      cfg.URL,
		interval: cfg.Interval,
		client:   &http.Client{Timeout: cfg.ProbeTimeout},
		logger:   logger,
		signals:  make(chan struct{}, 1),
	}
}

// Reachable 恢復連線訊號
func (m *Monitor) Reachable() <-chan struct{} {
	return m.signals
}

// IsReachable 最近一次探測結果
func (m *Monitor) IsReachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// Run 立即探測一次，之後每個 interval 探測，直到 ctx 取消
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll 探測一次並更新狀態，返回是否可連線
func (m *Monitor) Poll(ctx context.Context) bool {
	ok := m.probe(ctx)

	m.mu.Lock()
	recovered := ok && !m.reachable
	changed := ok != m.reachable
	m.reachable = ok
	m.mu.Unlock()

	if changed {
		m.logger.Info("connectivity changed", "reachable", ok, "url", m.url)
	}
	if recovered {
		select {
		case m.signals <- struct{}{}:
		default:
		}
	}
	return ok
}

// probe 2xx/3xx 視為可連線
func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		m.logger.Warn("invalid connectivity probe URL", "url", m.url, "error", err)
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Debug("connectivity probe failed", "url", m.url, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 400
}
