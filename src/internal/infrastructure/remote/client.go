// Package remote 遠端帳本與使用者動作的 HTTP JSON 客戶端
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
)

// DefaultTimeout 未指定時的 HTTP 逾時
const DefaultTimeout = 10 * time.Second

// HeaderIdempotencyKey 冪等鍵標頭
const HeaderIdempotencyKey = "Idempotency-Key"

// Config 客戶端設定
type Config struct {
	BaseURL string
	Timeout time.Duration
	// APIToken 非空時以 Bearer 送出
	APIToken string
}

// Client 遠端服務客戶端
//
// 錯誤對應：
//   - 網路錯誤、5xx、429 → ports.ErrRemoteUnavailable（可重試）
//   - 404 → ports.ErrRemoteNotFound
//   - 其他 4xx → ports.ErrRemoteRejected（驗證錯誤）
//   - 呼叫端取消或逾時 → 包裝 ctx.Err()
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ ports.RemoteLedgerAPI = (*Client)(nil)
	_ ports.RemoteActionAPI = (*Client)(nil)
)

// NewClient 建立客戶端
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("remote base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

// errorBody 遠端錯誤回應
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do 送出請求；out 為 nil 時忽略回應內容
func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, idempotencyKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return ports.ErrRemoteUnavailable.WithContext("method", method, "path", path, "error", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return ports.ErrRemoteUnavailable.WithContext("method", method, "path", path, "decode_error", err.Error())
		}
		return nil
	}

	return c.statusError(method, path, resp)
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &eb)

	kv := []interface{}{"method", method, "path", path, "status", resp.StatusCode}
	if eb.Code != "" {
		kv = append(kv, "remote_code", eb.Code)
	}
	if eb.Message != "" {
		kv = append(kv, "remote_message", eb.Message)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ports.ErrRemoteNotFound.WithContext(kv...)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		c.logger.Warn("remote service unavailable", "method", method, "path", path, "status", resp.StatusCode)
		return ports.ErrRemoteUnavailable.WithContext(kv...)
	default:
		return ports.ErrRemoteRejected.WithContext(kv...)
	}
}
