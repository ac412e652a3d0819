package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/webchess/pkg/chessdto"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix          = "webchess:"
	defaultTTL         = 30 * 24 * time.Hour
	defaultRecentLimit = 20
)

// Store keeps per-client preferences and a short list of finished games in Redis.
type Store struct {
	rdb         *redis.Client
	clientID    string
	ttl         time.Duration
	recentLimit int64
}

// Open connects to redisURL (redis://host:port/db) and pings it.
func Open(ctx context.Context, redisURL, clientID string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL is empty")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, clientID), nil
}

func New(rdb *redis.Client, clientID string) *Store {
	if strings.TrimSpace(clientID) == "" {
		clientID = "local"
	}
	return &Store{rdb: rdb, clientID: strings.TrimSpace(clientID), ttl: defaultTTL, recentLimit: defaultRecentLimit}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) keyPrefs() string  { return keyPrefix + "prefs:" + s.clientID }
func (s *Store) keyRecent() string { return keyPrefix + "recent:" + s.clientID }

func (s *Store) SavePrefs(ctx context.Context, p chessdto.Prefs) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyPrefs(), raw, s.ttl).Err()
}

// LoadPrefs returns nil, nil when nothing was saved.
func (s *Store) LoadPrefs(ctx context.Context) (*chessdto.Prefs, error) {
	raw, err := s.rdb.Get(ctx, s.keyPrefs()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p chessdto.Prefs
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode prefs: %w", err)
	}
	return &p, nil
}

// RecordOutcome pushes rec to the front of the recent list and trims it.
func (s *Store) RecordOutcome(ctx context.Context, rec chessdto.GameRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.keyRecent(), raw)
	pipe.LTrim(ctx, s.keyRecent(), 0, s.recentLimit-1)
	pipe.Expire(ctx, s.keyRecent(), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n finished games, newest first. Undecodable entries are skipped.
func (s *Store) Recent(ctx context.Context, n int) ([]chessdto.GameRecord, error) {
	if n <= 0 || int64(n) > s.recentLimit {
		n = int(s.recentLimit)
	}
	items, err := s.rdb.LRange(ctx, s.keyRecent(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]chessdto.GameRecord, 0, len(items))
	for _, it := range items {
		var rec chessdto.GameRecord
		if err := json.Unmarshal([]byte(it), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
