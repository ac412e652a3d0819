package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/view"
	"github.com/park285/webchess/pkg/chessdto"
)

type fakeCtrl struct {
	screen     *view.Model
	player     string
	difficulty string
	starts     []string
	clicks     []board.Square
	refreshes  int
}

func (f *fakeCtrl) Start(ctx context.Context, p string) error {
	f.starts = append(f.starts, p)
	if strings.TrimSpace(p) == "" {
		f.screen.Alert("Please enter your name to start the game.")
		return errors.New("empty")
	}
	f.player = p
	return nil
}

func (f *fakeCtrl) Click(ctx context.Context, sq board.Square) error {
	f.clicks = append(f.clicks, sq)
	f.screen.AddDot(sq)
	return nil
}

func (f *fakeCtrl) SetDifficulty(ctx context.Context, d string) bool {
	f.difficulty = d
	return d == "easy" || d == "medium" || d == "hard"
}

func (f *fakeCtrl) RefreshBoard(ctx context.Context) error { f.refreshes++; return nil }
func (f *fakeCtrl) Player() string { return f.player }
func (f *fakeCtrl) Difficulty() string { return f.difficulty }

type fakeLogs struct{ text string }

func (l *fakeLogs) Refresh(ctx context.Context) error { return nil }
func (l *fakeLogs) Last() string { return l.text }

func newConsole(t *testing.T, in string, opts ...Option) (*Console, *fakeCtrl, *bytes.Buffer) {
	t.Helper()
	screen := view.NewModel(nil)
	ctrl := &fakeCtrl{screen: screen, difficulty: "medium"}
	out := &bytes.Buffer{}
	opts = append([]Option{WithDifficulties([]string{"easy", "medium", "hard"})}, opts...)
	return New(strings.NewReader(in), out, ctrl, screen, &fakeLogs{text: "No games yet."}, opts...), ctrl, out
}

func TestBareSquareClicks(t *testing.T) {
	c, ctrl, out := newConsole(t, "")
	c.Exec(context.Background(), "e2")
	c.Exec(context.Background(), "click 28")
	if len(ctrl.clicks) != 2 || ctrl.clicks[0] != 12 || ctrl.clicks[1] != 28 {
		t.Fatalf("clicks = %v", ctrl.clicks)
	}
	if !strings.Contains(out.String(), "8 ") || !strings.Contains(out.String(), "*") {
		t.Fatalf("board not printed:\n%s", out)
	}
}

func TestStartUsesRememberedName(t *testing.T) {
	c, ctrl, out := newConsole(t, "")
	ctrl.player = "Alice"
	c.Exec(context.Background(), "start")
	c.Exec(context.Background(), "start Bob Smith")
	if len(ctrl.starts) != 2 || ctrl.starts[0] != "Alice" || ctrl.starts[1] != "Bob Smith" {
		t.Fatalf("starts = %q", ctrl.starts)
	}
	ctrl.player = ""
	c.Exec(context.Background(), "start")
	if !strings.Contains(out.String(), "! Please enter your name") {
		t.Fatalf("alert not flushed:\n%s", out)
	}
}

func TestDifficulty(t *testing.T) {
	c, ctrl, out := newConsole(t, "")
	c.Exec(context.Background(), "difficulty grandmaster")
	if ctrl.difficulty != "grandmaster" || !strings.Contains(out.String(), "Unknown difficulty grandmaster") {
		t.Fatalf("output:\n%s", out)
	}
	out.Reset()
	c.Exec(context.Background(), "difficulty hard")
	if !strings.Contains(out.String(), "Difficulty set to hard.") {
		t.Fatalf("output:\n%s", out)
	}
	out.Reset()
	c.Exec(context.Background(), "difficulty")
	if !strings.Contains(out.String(), "hard (easy, medium, hard)") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestLogsAndHistory(t *testing.T) {
	games := []chessdto.GameRecord{{
		Player:     "Alice",
		Difficulty: "easy",
		Result:     "White wins",
		Moves:      []string{"e2e4", "f1c4", "d1h5", "h5f7", "a2a3"},
		StartedAt:  time.Now().Add(-90 * time.Second),
		FinishedAt: time.Now(),
	}}
	c, _, out := newConsole(t, "", WithHistory(func(ctx context.Context, n int) ([]chessdto.GameRecord, error) {
		if n != historyLimit {
			t.Errorf("n = %d", n)
		}
		return games, nil
	}))
	c.Exec(context.Background(), "logs")
	c.Exec(context.Background(), "history")
	s := out.String()
	if !strings.Contains(s, "No games yet.") || !strings.Contains(s, "White wins") || !strings.Contains(s, "… f1c4 d1h5 h5f7 a2a3") || !strings.Contains(s, "took 1m30s") {
		t.Fatalf("output:\n%s", s)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	c, _, out := newConsole(t, "")
	c.Exec(context.Background(), "history")
	if !strings.Contains(out.String(), "No finished games recorded.") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	c, ctrl, out := newConsole(t, "")
	c.Exec(context.Background(), "castle now")
	if len(ctrl.clicks) != 0 || !strings.Contains(out.String(), "Unknown command castle") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	c, ctrl, _ := newConsole(t, "board\nquit\ne2\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctrl.refreshes != 1 || len(ctrl.clicks) != 0 {
		t.Fatalf("refreshes=%d clicks=%v", ctrl.refreshes, ctrl.clicks)
	}
}

func TestRunStopsOnEOF(t *testing.T) {
	c, _, _ := newConsole(t, "help\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
