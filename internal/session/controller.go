package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/msgcat"
	"github.com/park285/webchess/pkg/chessdto"
	"go.uber.org/zap"
)

const defaultCallTimeout = 10 * time.Second

// Authority is the remote rules service.
type Authority interface {
	StartGame(ctx context.Context, player string) (*chessdto.StartResponse, error)
	State(ctx context.Context) (*chessdto.StateResponse, error)
	LegalMoves(ctx context.Context, from string) ([]string, error)
	SubmitMove(ctx context.Context, req chessdto.MoveRequest) (*chessdto.MoveResponse, error)
}

// Presenter draws the board and user-facing notices.
type Presenter interface {
	ClearBoard()
	SetGlyph(sq board.Square, glyph string)
	AddDot(sq board.Square)
	ClearDots()
	ShowOutcome(result string)
	ShowLog(text string)
	Alert(msg string)
}

// LogRefresher asks the log poller for an out-of-schedule refresh.
type LogRefresher interface {
	Trigger()
}

// OutcomeRecorder persists finished games.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, rec chessdto.GameRecord) error
}

// PrefsSaver persists the last player name and difficulty.
type PrefsSaver interface {
	SavePrefs(ctx context.Context, p chessdto.Prefs) error
}

type effect func(ctx context.Context) error

// Controller is the board-interaction state machine for one client.
type Controller struct {
	authority Authority
	view      Presenter
	logs      LogRefresher
	recorders []OutcomeRecorder
	prefs     PrefsSaver
	msgs      *msgcat.Catalog
	logger    *zap.Logger
	timeout   time.Duration
	clientID  string
	known     map[string]struct{}
	now       func() time.Time

	mu         sync.Mutex
	state      State
	player     string
	difficulty string
	gameID     string
	startedAt  time.Time
	moves      []string
	tokenSeq   uint64
	pending    uint64
	submitting bool
	refreshSeq uint64
	rendered   uint64
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithCatalog(m *msgcat.Catalog) Option { return func(c *Controller) { c.msgs = m } }

func WithLogRefresher(r LogRefresher) Option { return func(c *Controller) { c.logs = r } }

// WithRecorder adds a sink for finished games. May be given more than once.
func WithRecorder(r OutcomeRecorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorders = append(c.recorders, r)
		}
	}
}

func WithPrefs(p PrefsSaver) Option { return func(c *Controller) { c.prefs = p } }

func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClientID(id string) Option { return func(c *Controller) { c.clientID = id } }

// WithDifficulty sets the initial difficulty and, optionally, the values
// the selector offers. Unknown values are still forwarded.
func WithDifficulty(initial string, known ...string) Option {
	return func(c *Controller) {
		if s := strings.TrimSpace(initial); s != "" {
			c.difficulty = s
		}
		if len(known) > 0 {
			c.known = make(map[string]struct{}, len(known))
			for _, k := range known {
				c.known[k] = struct{}{}
			}
		}
	}
}

// WithPlayer preloads a remembered player name. It is only used as a default
// for Start; the game still has to be started explicitly.
func WithPlayer(name string) Option {
	return func(c *Controller) { c.player = strings.TrimSpace(name) }
}

func withClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// New returns a controller in Idle.
func New(auth Authority, view Presenter, opts ...Option) *Controller {
	c := &Controller{
		authority:  auth,
		view:       view,
		logger:     zap.NewNop(),
		timeout:    defaultCallTimeout,
		difficulty: "medium",
		now:        time.Now,
		state:      State{Kind: Idle, From: board.NoSquare},
	}
	for _, o := range opts {
		o(c)
	}
	if c.msgs == nil {
		c.msgs = msgcat.Default()
	}
	return c
}

// State returns a copy of the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Player() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

func (c *Controller) Difficulty() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.difficulty
}

// GameID is the local id of the current game, empty before the first start.
func (c *Controller) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Start requests a new game for player. An empty name is a ValidationError.
// A start while one is already in flight is ignored.
func (c *Controller) Start(ctx context.Context, player string) error {
	return c.dispatch(ctx, event{kind: evStart, player: player})
}

// Click handles a square interaction.
func (c *Controller) Click(ctx context.Context, sq board.Square) error {
	if !sq.Valid() {
		return &ValidationError{Field: "square", Reason: "out of range"}
	}
	return c.dispatch(ctx, event{kind: evClick, square: sq})
}

// SetDifficulty changes the difficulty sent with the next move. Values outside
// the configured set are logged and forwarded verbatim. Returns whether the
// value was known.
func (c *Controller) SetDifficulty(ctx context.Context, d string) bool {
	d = strings.TrimSpace(d)
	if d == "" {
		return false
	}
	c.mu.Lock()
	c.difficulty = d
	player := c.player
	_, known := c.known[d]
	if c.known == nil {
		known = true
	}
	c.mu.Unlock()

	if !known {
		c.logger.Warn("difficulty_unknown", zap.String("difficulty", d))
	}
	c.savePrefs(ctx, chessdto.Prefs{Player: player, Difficulty: d})
	return known
}

// RefreshBoard re-reads the authority state and redraws the pieces.
// On failure the previous rendering is left untouched.
func (c *Controller) RefreshBoard(ctx context.Context) error {
	c.mu.Lock()
	c.refreshSeq++
	seq := c.refreshSeq
	c.mu.Unlock()

	cctx, cancel := c.callContext(ctx)
	st, err := c.authority.State(cctx)
	cancel()
	if err != nil {
		c.logger.Warn("board_state_failed", zap.Error(err))
		return &AuthorityError{Op: "state", Err: err}
	}

	desc := st.Placement()
	if desc == "" {
		merr := &MalformedStateError{Placement: st.FEN}
		c.logger.Error("board_state_malformed", zap.Error(merr))
		return merr
	}
	placement, err := board.ParsePlacement(desc)
	if err != nil {
		merr := &MalformedStateError{Placement: desc, Err: err}
		c.logger.Error("board_state_malformed", zap.Error(merr))
		return merr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.rendered {
		c.logger.Debug("board_state_stale", zap.Uint64("seq", seq))
		return nil
	}
	c.rendered = seq
	c.view.ClearBoard()
	for _, sq := range placement.Occupied() {
		c.view.SetGlyph(sq, board.Glyph(placement.At(sq)))
	}
	return nil
}

func (c *Controller) dispatch(ctx context.Context, ev event) error {
	c.mu.Lock()
	from := c.state.Kind
	h, ok := transitions[transitionKey{state: from, event: ev.kind}]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("event_ignored", zap.Stringer("state", from), zap.Stringer("event", ev.kind))
		return nil
	}
	next, err := h(c, ev)
	to := c.state.Kind
	c.mu.Unlock()

	if from != to {
		c.logger.Debug("state_transition", zap.Stringer("from", from), zap.Stringer("to", to), zap.Stringer("event", ev.kind))
	}
	if err != nil {
		return err
	}
	if next != nil {
		return next(ctx)
	}
	return nil
}

func (c *Controller) onStart(ev event) (effect, error) {
	player := strings.TrimSpace(ev.player)
	if player == "" {
		c.view.Alert(c.msgs.Text("start.name_required", nil))
		return nil, &ValidationError{Field: "player", Reason: "empty"}
	}
	if c.state.Kind == PieceSelected {
		c.view.ClearDots()
	}
	c.state = State{Kind: AwaitingStart, From: board.NoSquare}
	c.pending = 0

	return func(ctx context.Context) error {
		cctx, cancel := c.callContext(ctx)
		resp, err := c.authority.StartGame(cctx, player)
		cancel()
		if err != nil {
			return c.dispatch(ctx, event{kind: evStartFailed, err: err})
		}
		echoed := strings.TrimSpace(resp.Player)
		if echoed == "" {
			echoed = player
		}
		return c.dispatch(ctx, event{kind: evStarted, player: echoed})
	}, nil
}

func (c *Controller) onStarted(ev event) (effect, error) {
	c.player = ev.player
	c.gameID = uuid.NewString()
	c.startedAt = c.now()
	c.moves = nil
	c.state = State{Kind: Selecting, From: board.NoSquare}
	prefs := chessdto.Prefs{Player: c.player, Difficulty: c.difficulty}
	c.logger.Info("game_started", zap.String("player", c.player), zap.String("game_id", c.gameID))

	return func(ctx context.Context) error {
		c.savePrefs(ctx, prefs)
		// 시작 자체는 성공. 보드 실패는 로그만 남기고 이전 렌더 유지
		_ = c.RefreshBoard(ctx)
		return nil
	}, nil
}

func (c *Controller) onStartFailed(ev event) (effect, error) {
	if c.gameID != "" {
		c.state = State{Kind: Selecting, From: board.NoSquare}
	} else {
		c.state = State{Kind: Idle, From: board.NoSquare}
	}
	c.logger.Warn("game_start_failed", zap.Error(ev.err))
	c.view.Alert(c.msgs.Text("authority.error", map[string]string{"Op": "start"}))
	return nil, &AuthorityError{Op: "start", Err: ev.err}
}

func (c *Controller) onSelect(ev event) (effect, error) {
	if c.submitting {
		c.logger.Debug("click_ignored_submitting", zap.Stringer("square", ev.square))
		return nil, nil
	}
	c.tokenSeq++
	token := c.tokenSeq
	c.pending = token
	from := ev.square

	return func(ctx context.Context) error {
		cctx, cancel := c.callContext(ctx)
		moves, err := c.authority.LegalMoves(cctx, from.String())
		cancel()
		if err != nil {
			return c.dispatch(ctx, event{kind: evMovesFailed, token: token, square: from, err: err})
		}
		return c.dispatch(ctx, event{kind: evMoves, token: token, square: from, moves: moves})
	}, nil
}

func (c *Controller) onMoves(ev event) (effect, error) {
	if ev.token != c.pending {
		c.logger.Debug("legal_moves_stale", zap.Uint64("token", ev.token), zap.Uint64("latest", c.pending))
		return nil, nil
	}
	c.pending = 0

	dests := make([]board.Square, 0, len(ev.moves))
	for _, m := range ev.moves {
		to, err := board.Destination(m)
		if err != nil {
			c.logger.Warn("legal_move_unparsable", zap.String("move", m), zap.Error(err))
			continue
		}
		if !slices.Contains(dests, to) {
			dests = append(dests, to)
		}
	}
	c.state = State{Kind: PieceSelected, From: ev.square, Dests: dests}
	c.view.ClearDots()
	for _, d := range dests {
		c.view.AddDot(d)
	}
	return nil, nil
}

func (c *Controller) onMovesFailed(ev event) (effect, error) {
	if ev.token != c.pending {
		return nil, nil
	}
	c.pending = 0
	c.view.ClearDots()
	c.logger.Warn("legal_moves_failed", zap.Stringer("square", ev.square), zap.Error(ev.err))
	c.view.Alert(c.msgs.Text("authority.error", map[string]string{"Op": "valid_moves"}))
	return nil, &AuthorityError{Op: "valid_moves", Err: ev.err}
}

func (c *Controller) onTarget(ev event) (effect, error) {
	from, dests := c.state.From, c.state.Dests
	c.state = State{Kind: Selecting, From: board.NoSquare}
	c.view.ClearDots()

	if !slices.Contains(dests, ev.square) || c.submitting {
		return nil, nil
	}

	c.submitting = true
	req := chessdto.MoveRequest{
		Move:       board.MoveText(from, ev.square),
		Difficulty: c.difficulty,
		Player:     c.player,
	}
	gameID := c.gameID

	return func(ctx context.Context) error {
		cctx, cancel := c.callContext(ctx)
		resp, err := c.authority.SubmitMove(cctx, req)
		cancel()
		moved := event{kind: evMoved, gameID: gameID, move: req.Move, err: err}
		if err == nil {
			moved.result = resp
		}
		derr := c.dispatch(ctx, moved)
		_ = c.RefreshBoard(ctx)
		return derr
	}, nil
}

func (c *Controller) onMoved(ev event) (effect, error) {
	c.submitting = false
	if ev.gameID != c.gameID {
		c.logger.Info("move_result_stale", zap.String("game_id", ev.gameID))
		return nil, nil
	}
	if ev.err != nil {
		c.logger.Warn("move_failed", zap.String("move", ev.move), zap.Error(ev.err))
		c.view.Alert(c.msgs.Text("authority.error", map[string]string{"Op": "player_move"}))
		return nil, &AuthorityError{Op: "player_move", Err: ev.err}
	}

	out := ev.result
	switch {
	case out.Finished():
		c.moves = append(c.moves, ev.move)
		rec := chessdto.GameRecord{
			GameID:     c.gameID,
			ClientID:   c.clientID,
			Player:     c.player,
			Difficulty: c.difficulty,
			Result:     out.Result,
			Moves:      append([]string(nil), c.moves...),
			StartedAt:  c.startedAt,
			FinishedAt: c.now(),
		}
		c.logger.Info("game_finished", zap.String("game_id", rec.GameID), zap.String("result", rec.Result))
		c.view.ShowOutcome(out.Result)
		if c.logs != nil {
			c.logs.Trigger()
		}
		return func(ctx context.Context) error {
			c.record(ctx, rec)
			return nil
		}, nil
	case out.Status == chessdto.MoveStatusIllegal, out.Status == chessdto.MoveStatusError:
		c.logger.Warn("move_rejected", zap.String("move", ev.move), zap.String("status", out.Status))
		c.view.Alert(c.msgs.Text("move.rejected", map[string]string{"Move": ev.move, "Status": out.Status}))
		return nil, &AuthorityError{Op: "player_move", Err: chessdto.DomainError{Code: out.Status, Message: out.Result}}
	default:
		c.moves = append(c.moves, ev.move)
		return nil, nil
	}
}

func (c *Controller) record(ctx context.Context, rec chessdto.GameRecord) {
	for _, r := range c.recorders {
		if err := r.RecordOutcome(ctx, rec); err != nil {
			c.logger.Warn("outcome_record_failed", zap.String("game_id", rec.GameID), zap.Error(err))
		}
	}
}

func (c *Controller) savePrefs(ctx context.Context, p chessdto.Prefs) {
	if c.prefs == nil {
		return
	}
	if err := c.prefs.SavePrefs(ctx, p); err != nil {
		c.logger.Warn("prefs_save_failed", zap.Error(err))
	}
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
