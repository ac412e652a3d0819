package authority

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/webchess/pkg/chessdto"
)

func newTestServer(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithTimeout(2*time.Second))
}

func TestStartGameSendsPlayer(t *testing.T) {
	var got chessdto.StartRequest
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/start" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"status":"started","player":"Alice","fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}`)
	}))

	resp, err := c.StartGame(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if got.Player != "Alice" || resp.Player != "Alice" || resp.Status != "started" {
		t.Fatalf("unexpected exchange: sent=%+v got=%+v", got, resp)
	}
}

func TestLegalMovesPath(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/valid_moves/e2" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"moves":["e2e4","e2e3"]}`)
	}))
	moves, err := c.LegalMoves(context.Background(), "e2")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if len(moves) != 2 || moves[0] != "e2e4" || moves[1] != "e2e3" {
		t.Fatalf("moves = %v", moves)
	}
}

func TestSubmitMoveBody(t *testing.T) {
	var got chessdto.MoveRequest
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"status":"finished","result":"White wins","fen":"x"}`)
	}))
	resp, err := c.SubmitMove(context.Background(), chessdto.MoveRequest{Move: "e2e4", Difficulty: "hard", Player: "Bob"})
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if got.Move != "e2e4" || got.Difficulty != "hard" || got.Player != "Bob" {
		t.Fatalf("request body = %+v", got)
	}
	if !resp.Finished() || resp.Result != "White wins" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestLogsReturnsText(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "Game ended\nResult: Draw\n")
	}))
	text, err := c.Logs(context.Background())
	if err != nil || text != "Game ended\nResult: Draw\n" {
		t.Fatalf("Logs = %q, %v", text, err)
	}
}

func TestIdempotentCallsRetryOn5xx(t *testing.T) {
	var calls int32
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"fen":"8/8/8/8/8/8/8/8 w - - 0 1"}`)
	}))
	st, err := c.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Placement() != "8/8/8/8/8/8/8/8" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("placement=%q calls=%d", st.Placement(), calls)
	}
}

func TestMoveSubmissionIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.SubmitMove(context.Background(), chessdto.MoveRequest{Move: "e2e4"})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithRetry(1), WithTimeout(500*time.Millisecond))
	_, err := c.Logs(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "logs" {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestMalformedJSONIsDecodeError(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"moves":`)
	}))
	_, err := c.LegalMoves(context.Background(), "a2")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestHeaderProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Client-Id") != "c1" || r.Header.Get("X-Empty") != "" {
			t.Errorf("headers = %v", r.Header)
		}
		_, _ = io.WriteString(w, "")
	}))
	defer srv.Close()
	c := NewClient(srv.URL, WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Client-Id": "c1", "X-Empty": " "}
	}))
	if _, err := c.Logs(context.Background()); err != nil {
		t.Fatalf("Logs: %v", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	if backoffDuration(0) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond || backoffDuration(10) != 3200*time.Millisecond {
		t.Fatalf("unexpected backoff schedule")
	}
}
