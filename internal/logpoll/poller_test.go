package logpoll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubSource struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubSource) Logs(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

func (s *stubSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sinkRec struct {
	mu    sync.Mutex
	shown []string
}

func (s *sinkRec) ShowLog(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, text)
}

func (s *sinkRec) lastShown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.shown) == 0 {
		return ""
	}
	return s.shown[len(s.shown)-1]
}

func TestRefreshVerbatim(t *testing.T) {
	src := &stubSource{text: "Alice vs AI: 1-0\n"}
	sink := &sinkRec{}
	p := New(src, sink, time.Minute)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if sink.lastShown() != "Alice vs AI: 1-0\n" || p.Last() != sink.lastShown() {
		t.Fatalf("shown = %q", sink.lastShown())
	}
}

func TestRefreshPlaceholder(t *testing.T) {
	sink := &sinkRec{}
	p := New(&stubSource{}, sink, time.Minute)
	_ = p.Refresh(context.Background())
	if sink.lastShown() != "No games yet." {
		t.Fatalf("shown = %q", sink.lastShown())
	}
}

func TestRefreshWhitespaceIsVerbatim(t *testing.T) {
	sink := &sinkRec{}
	p := New(&stubSource{text: "\n"}, sink, time.Minute)
	_ = p.Refresh(context.Background())
	if sink.lastShown() != "\n" {
		t.Fatalf("shown = %q", sink.lastShown())
	}
}

func TestRefreshError(t *testing.T) {
	sink := &sinkRec{}
	p := New(&stubSource{err: errors.New("dial tcp: refused")}, sink, time.Minute)
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if sink.lastShown() != "Error loading logs." {
		t.Fatalf("shown = %q", sink.lastShown())
	}
}

func TestTriggerBypassesTimer(t *testing.T) {
	src := &stubSource{text: "x"}
	p := New(src, &sinkRec{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	waitCalls(t, src, 1)
	p.Trigger()
	waitCalls(t, src, 2)
}

func TestTickerRefreshes(t *testing.T) {
	src := &stubSource{text: "x"}
	p := New(src, &sinkRec{}, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	waitCalls(t, src, 3)
}

func TestTriggerCoalesces(t *testing.T) {
	p := New(&stubSource{}, &sinkRec{}, time.Hour)
	p.Trigger()
	p.Trigger()
	p.Trigger()
	if len(p.trigger) != 1 {
		t.Fatalf("pending triggers = %d", len(p.trigger))
	}
}

func waitCalls(t *testing.T, src *stubSource, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for src.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("calls = %d, want >= %d", src.count(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
