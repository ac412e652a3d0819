// Package authority is the HTTP client of the Game Authority, the external
// service that owns chess rules, legality and scoring.
package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/park285/webchess/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	pathStart      = "/start"
	pathState      = "/get_state"
	pathValidMoves = "/valid_moves/"
	pathPlayerMove = "/player_move"
	pathLogs       = "/logs"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartGame asks the Authority for a fresh game on behalf of player.
func (c *Client) StartGame(ctx context.Context, player string) (*chessdto.StartResponse, error) {
	var resp chessdto.StartResponse
	if err := c.doJSON(ctx, "start", fasthttp.MethodPost, pathStart, chessdto.StartRequest{Player: player}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// State returns the current position.
func (c *Client) State(ctx context.Context) (*chessdto.StateResponse, error) {
	var resp chessdto.StateResponse
	if err := c.doJSON(ctx, "state", fasthttp.MethodGet, pathState, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LegalMoves lists the legal moves originating at the algebraic square from.
func (c *Client) LegalMoves(ctx context.Context, from string) ([]string, error) {
	var resp chessdto.MovesResponse
	path := pathValidMoves + url.PathEscape(strings.TrimSpace(from))
	if err := c.doJSON(ctx, "legal_moves", fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Moves, nil
}

// SubmitMove sends a move. The Authority replies after its own reply move, if any.
func (c *Client) SubmitMove(ctx context.Context, req chessdto.MoveRequest) (*chessdto.MoveResponse, error) {
	var resp chessdto.MoveResponse
	if err := c.doJSON(ctx, "submit_move", fasthttp.MethodPost, pathPlayerMove, req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs returns the finished-games log as plain text.
func (c *Client) Logs(ctx context.Context) (string, error) {
	body, err := c.do(ctx, "logs", fasthttp.MethodGet, pathLogs, nil, true)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out any, retry bool) error {
	var payload []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		payload = raw
	}
	body, err := c.do(ctx, op, method, path, payload, retry)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		started := time.Now()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = &TransportError{Op: op, Err: err}
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = &StatusError{Op: op, Status: status, Body: truncate(string(resp.Body()), 512)}
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
		} else {
			c.logger.Debug("authority_call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("latency", time.Since(started)),
			)
			return append([]byte(nil), resp.Body()...), nil
		}

		if attempt == attempts {
			break
		}
		c.logger.Warn("authority_retry", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(lastErr))
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return nil, lastErr
		}
		resp.Reset()
	}

	if lastErr == nil {
		lastErr = &TransportError{Op: op, Err: errors.New("unknown error")}
	}
	return nil, lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
