package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Input modes for the main binary.
const (
	InputConsole = "console"
	InputWS      = "ws"
	InputBoth    = "both"
)

type AppConfig struct {
	AuthorityBaseURL string
	AuthorityTimeout time.Duration
	AuthorityRetry   int

	RendererWSURL string

	RedisURL    string
	DatabaseURL string

	ClientID string

	DefaultDifficulty string
	Difficulties      []string

	LogRefreshInterval time.Duration

	SnapshotPath string
	MessagesDir  string
	InputMode    string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		AuthorityTimeout:   10 * time.Second,
		AuthorityRetry:     3,
		ClientID:           "local",
		DefaultDifficulty:  "medium",
		Difficulties:       []string{"easy", "medium", "hard"},
		LogRefreshInterval: 30 * time.Second,
		InputMode:          InputConsole,
	}

	cfg.AuthorityBaseURL = strings.TrimSpace(os.Getenv("AUTHORITY_BASE_URL"))
	cfg.RendererWSURL = strings.TrimSpace(os.Getenv("RENDERER_WS_URL"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.SnapshotPath = strings.TrimSpace(os.Getenv("SNAPSHOT_PATH"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("CLIENT_ID")); v != "" {
		cfg.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("AUTHORITY_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuthorityTimeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTHORITY_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuthorityRetry = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_REFRESH_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LogRefreshInterval = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("DIFFICULTIES")); v != "" {
		if list := splitList(v); len(list) > 0 {
			cfg.Difficulties = list
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_DIFFICULTY")); v != "" {
		cfg.DefaultDifficulty = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("INPUT_MODE"))); v != "" {
		cfg.InputMode = v
	}

	if cfg.AuthorityBaseURL == "" {
		return nil, errors.New("AUTHORITY_BASE_URL is required")
	}
	switch cfg.InputMode {
	case InputConsole:
	case InputWS, InputBoth:
		if cfg.RendererWSURL == "" {
			return nil, errors.New("RENDERER_WS_URL is required when INPUT_MODE=" + cfg.InputMode)
		}
	default:
		return nil, errors.New("INPUT_MODE must be one of console, ws, both")
	}

	return cfg, nil
}

// KnownDifficulty reports whether d is one of the configured selector values.
func (c *AppConfig) KnownDifficulty(d string) bool {
	for _, v := range c.Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
