package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/webchess/pkg/chessdto"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(rdb, "c1")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestPrefsRoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	p, err := s.LoadPrefs(ctx)
	if err != nil || p != nil {
		t.Fatalf("LoadPrefs on empty = %+v, %v", p, err)
	}
	if err := s.SavePrefs(ctx, chessdto.Prefs{Player: "Alice", Difficulty: "hard"}); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}
	p, err = s.LoadPrefs(ctx)
	if err != nil || p == nil || p.Player != "Alice" || p.Difficulty != "hard" {
		t.Fatalf("LoadPrefs = %+v, %v", p, err)
	}
	if ttl := mr.TTL("webchess:prefs:c1"); ttl != defaultTTL {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestRecentTrimmedNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < defaultRecentLimit+5; i++ {
		rec := chessdto.GameRecord{GameID: fmt.Sprintf("g%d", i), Result: "Draw", FinishedAt: time.Unix(int64(i), 0)}
		if err := s.RecordOutcome(ctx, rec); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}
	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != defaultRecentLimit {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].GameID != fmt.Sprintf("g%d", defaultRecentLimit+4) {
		t.Fatalf("newest = %s", all[0].GameID)
	}
	few, _ := s.Recent(ctx, 3)
	if len(few) != 3 {
		t.Fatalf("len = %d", len(few))
	}
}

func TestRecentSkipsGarbage(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	_ = s.RecordOutcome(ctx, chessdto.GameRecord{GameID: "ok"})
	mr.Lpush("webchess:recent:c1", "{not json")
	got, err := s.Recent(ctx, 5)
	if err != nil || len(got) != 1 || got[0].GameID != "ok" {
		t.Fatalf("Recent = %+v, %v", got, err)
	}
}

func TestClientsAreIsolated(t *testing.T) {
	s, mr := newTestStore(t)
	other := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "c2")
	defer other.Close()
	ctx := context.Background()
	_ = s.SavePrefs(ctx, chessdto.Prefs{Player: "Alice"})
	if p, _ := other.LoadPrefs(ctx); p != nil {
		t.Fatalf("prefs leaked across clients: %+v", p)
	}
}

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	s, err := Open(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.clientID != "local" {
		t.Fatalf("clientID = %q", s.clientID)
	}
	if _, err := Open(context.Background(), "", "x"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
