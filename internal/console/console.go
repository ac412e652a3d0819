package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/msgcat"
	"github.com/park285/webchess/internal/view"
	"github.com/park285/webchess/pkg/chessdto"
	"go.uber.org/zap"
)

// Controller is the session surface the console drives.
type Controller interface {
	Start(ctx context.Context, player string) error
	Click(ctx context.Context, sq board.Square) error
	SetDifficulty(ctx context.Context, d string) bool
	RefreshBoard(ctx context.Context) error
	Player() string
	Difficulty() string
}

// Screen is what the console reads back to print.
type Screen interface {
	Frame() view.Frame
	DrainAlerts() []string
}

// Logs is the log panel source.
type Logs interface {
	Refresh(ctx context.Context) error
	Last() string
}

// HistoryFunc lists up to n recently finished games.
type HistoryFunc func(ctx context.Context, n int) ([]chessdto.GameRecord, error)

const historyLimit = 10

// Console is a line-oriented front end for one session.
type Console struct {
	in      io.Reader
	out     io.Writer
	ctrl    Controller
	screen  Screen
	logs    Logs
	history HistoryFunc
	msgs    *msgcat.Catalog
	logger  *zap.Logger
	levels  []string
}

type Option func(*Console)

func WithHistory(h HistoryFunc) Option { return func(c *Console) { c.history = h } }

func WithCatalog(m *msgcat.Catalog) Option {
	return func(c *Console) {
		if m != nil {
			c.msgs = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDifficulties lists the selector values shown by a bare "difficulty".
func WithDifficulties(levels []string) Option { return func(c *Console) { c.levels = levels } }

func New(in io.Reader, out io.Writer, ctrl Controller, screen Screen, logs Logs, opts ...Option) *Console {
	c := &Console{in: in, out: out, ctrl: ctrl, screen: screen, logs: logs, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	if c.msgs == nil {
		c.msgs = msgcat.Default()
	}
	return c
}

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	c.print(c.msgs.Text("console.help", nil))
	for {
		fmt.Fprint(c.out, c.msgs.Text("console.prompt", nil))
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := c.Exec(ctx, sc.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	defer c.flushAlerts()

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.print(c.msgs.Text("console.help", nil))
	case "start", "new":
		name := strings.Join(args, " ")
		if strings.TrimSpace(name) == "" {
			name = c.ctrl.Player()
		}
		if err := c.ctrl.Start(ctx, name); err != nil {
			c.logger.Debug("console_start_failed", zap.Error(err))
			return false
		}
		c.printBoard()
	case "difficulty", "level":
		c.difficulty(ctx, args)
	case "click":
		if len(args) == 0 {
			c.print(c.msgs.Text("console.unknown", map[string]string{"Command": line}))
			return false
		}
		c.click(ctx, args[0])
	case "board":
		if err := c.ctrl.RefreshBoard(ctx); err != nil {
			c.logger.Debug("console_refresh_failed", zap.Error(err))
		}
		c.printBoard()
	case "logs", "log":
		_ = c.logs.Refresh(ctx)
		c.print(c.logs.Last())
	case "history":
		c.printHistory(ctx)
	default:
		if len(args) == 0 {
			if _, err := board.ParseSquare(cmd); err == nil {
				c.click(ctx, cmd)
				return false
			}
		}
		c.print(c.msgs.Text("console.unknown", map[string]string{"Command": fields[0]}))
	}
	return false
}

func (c *Console) click(ctx context.Context, arg string) {
	sq, err := board.ParseSquare(arg)
	if err != nil {
		c.print(err.Error())
		return
	}
	if err := c.ctrl.Click(ctx, sq); err != nil {
		c.logger.Debug("console_click_failed", zap.Stringer("square", sq), zap.Error(err))
	}
	c.printBoard()
}

func (c *Console) difficulty(ctx context.Context, args []string) {
	if len(args) == 0 {
		c.print(fmt.Sprintf("%s (%s)", c.ctrl.Difficulty(), strings.Join(c.levels, ", ")))
		return
	}
	value := strings.Join(args, " ")
	if c.ctrl.SetDifficulty(ctx, value) {
		c.print(c.msgs.Text("difficulty.set", map[string]string{"Value": value}))
	} else {
		c.print(c.msgs.Text("difficulty.unknown", map[string]string{"Value": value}))
	}
}

func (c *Console) printBoard() {
	c.print(view.RenderBoard(c.screen.Frame()))
}

func (c *Console) printHistory(ctx context.Context) {
	if c.history == nil {
		c.print(c.msgs.Text("history.empty", nil))
		return
	}
	games, err := c.history(ctx, historyLimit)
	if err != nil {
		c.logger.Warn("console_history_failed", zap.Error(err))
		c.print(c.msgs.Text("history.empty", nil))
		return
	}
	if len(games) == 0 {
		c.print(c.msgs.Text("history.empty", nil))
		return
	}
	c.print(formatHistory(games))
}

func (c *Console) flushAlerts() {
	for _, a := range c.screen.DrainAlerts() {
		c.print("! " + strings.ReplaceAll(a, "\n", "\n  "))
	}
}

func (c *Console) print(s string) {
	s = strings.TrimRight(s, "\n")
	fmt.Fprintln(c.out, s)
}
