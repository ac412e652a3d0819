package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "webchess.log")
	logger, err := New(Options{Level: "debug", File: path, Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("board_refresh", zap.String("square", "e2"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"board_refresh"`) || !strings.Contains(string(raw), `"square":"e2"`) {
		t.Fatalf("unexpected log content: %s", raw)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetForTestRestores(t *testing.T) {
	before := L()
	restore := SetForTest(nil)
	if L() == before {
		t.Fatalf("expected logger to be swapped")
	}
	restore()
	if L() != before {
		t.Fatalf("expected logger to be restored")
	}
}
