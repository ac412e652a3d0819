package viewlink

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/view"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
	pingTimeout  = 3 * time.Second
	outboxSize   = 256
)

// Link is a renderer connection. It implements the session presenter by
// queueing frames for a single writer goroutine, and reports renderer input
// through OnEvent callbacks. Presenter methods never wait on the socket.
type Link struct {
	url string

	connM sync.RWMutex
	conn  *websocket.Conn
	state State

	writeM     sync.Mutex
	outbox     chan Frame
	writerOnce sync.Once

	cbM      sync.RWMutex
	eventCbs []EventCallback
	stateCbs []StateCallback

	maxReconnectAttempts int
	pingInterval         time.Duration
	headerProvider       HeaderProvider
	logger               *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type Option func(*Link)

func WithReconnect(maxAttempts int) Option {
	return func(l *Link) { l.maxReconnectAttempts = maxAttempts }
}

func WithPingInterval(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.pingInterval = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option { return func(l *Link) { l.headerProvider = h } }

func WithLogger(lg *zap.Logger) Option {
	return func(l *Link) {
		if lg != nil {
			l.logger = lg
		}
	}
}

func New(url string, opts ...Option) *Link {
	l := &Link{
		url:                  url,
		state:                StateDisconnected,
		maxReconnectAttempts: 5,
		pingInterval:         30 * time.Second,
		logger:               zap.NewNop(),
		stopCh:               make(chan struct{}),
		outbox:               make(chan Frame, outboxSize),
	}
	for _, o := range opts {
		o(l)
	}
	l.rootCtx, l.rootCancel = context.WithCancel(context.Background())
	return l
}

// Connect dials the renderer. On failure a background reconnect is scheduled
// and the dial error is returned.
func (l *Link) Connect(ctx context.Context) error {
	if s := l.State(); s == StateConnected || s == StateConnecting {
		return nil
	}
	l.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := l.dial(dialCtx)
	if err != nil {
		l.logger.Warn("renderer_dial_failed", zap.String("url", l.url), zap.Error(err))
		l.setState(StateFailed)
		l.scheduleReconnect()
		return err
	}
	l.attach(conn)
	return nil
}

func (l *Link) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, l.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      l.buildHeaders(),
	})
	return conn, err
}

func (l *Link) attach(conn *websocket.Conn) {
	l.connM.Lock()
	l.conn = conn
	l.connM.Unlock()
	l.logger.Info("renderer_connected", zap.String("url", l.url))

	l.writerOnce.Do(func() {
		l.wg.Add(1)
		go l.writeLoop()
	})
	l.wg.Add(2)
	go l.listen(conn)
	go l.pingLoop(conn)
	l.setState(StateConnected)
}

func (l *Link) current() *websocket.Conn {
	l.connM.RLock()
	defer l.connM.RUnlock()
	return l.conn
}

func (l *Link) listen(conn *websocket.Conn) {
	defer l.wg.Done()
	for {
		var ev Event
		if err := wsjson.Read(l.rootCtx, conn, &ev); err != nil {
			if l.isStopping() {
				return
			}
			l.logger.Warn("renderer_read_failed", zap.Error(err))
			l.drop(conn, "reconnect")
			return
		}

		l.cbM.RLock()
		cbs := append([]EventCallback(nil), l.eventCbs...)
		l.cbM.RUnlock()
		for _, cb := range cbs {
			cb(ev)
		}
	}
}

func (l *Link) pingLoop(conn *websocket.Conn) {
	defer l.wg.Done()
	t := time.NewTicker(l.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-l.stopCh:
			return
		case <-t.C:
			if l.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(l.rootCtx, pingTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if l.isStopping() {
					return
				}
				l.drop(conn, "ping failure")
				return
			}
		}
	}
}

// drop closes conn if it is still the active connection and starts reconnecting.
func (l *Link) drop(conn *websocket.Conn, reason string) {
	l.connM.Lock()
	if l.conn != conn {
		l.connM.Unlock()
		return
	}
	l.conn = nil
	l.connM.Unlock()

	_ = conn.Close(websocket.StatusGoingAway, reason)
	l.setState(StateDisconnected)
	l.scheduleReconnect()
}

func (l *Link) scheduleReconnect() {
	if l.maxReconnectAttempts <= 0 || l.isStopping() {
		return
	}
	l.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= l.maxReconnectAttempts; attempt++ {
			select {
			case <-l.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			dialCtx, cancel := context.WithTimeout(l.rootCtx, dialTimeout)
			conn, err := l.dial(dialCtx)
			cancel()
			if err != nil {
				l.logger.Debug("renderer_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			l.attach(conn)
			return
		}
		l.setState(StateFailed)
	}()
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<uint(min(attempt-1, 5))) * time.Second
}

// OnEvent registers a callback for renderer input. Callbacks run on the read goroutine.
func (l *Link) OnEvent(cb EventCallback) {
	l.cbM.Lock()
	l.eventCbs = append(l.eventCbs, cb)
	l.cbM.Unlock()
}

func (l *Link) OnStateChange(cb StateCallback) {
	l.cbM.Lock()
	l.stateCbs = append(l.stateCbs, cb)
	l.cbM.Unlock()
}

func (l *Link) State() State {
	l.connM.RLock()
	defer l.connM.RUnlock()
	return l.state
}

func (l *Link) setState(s State) {
	l.connM.Lock()
	l.state = s
	l.connM.Unlock()

	l.cbM.RLock()
	cbs := append([]StateCallback(nil), l.stateCbs...)
	l.cbM.RUnlock()
	for _, cb := range cbs {
		cb(s)
	}
}

// Send writes one frame. Frames sent while disconnected are dropped.
func (l *Link) Send(f Frame) error {
	conn := l.current()
	if conn == nil {
		l.logger.Debug("renderer_frame_dropped", zap.String("op", f.Op))
		return nil
	}
	l.writeM.Lock()
	defer l.writeM.Unlock()
	ctx, cancel := context.WithTimeout(l.rootCtx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, f); err != nil {
		l.logger.Warn("renderer_write_failed", zap.String("op", f.Op), zap.Error(err))
		return err
	}
	return nil
}

// enqueue hands f to the writer. Frames are dropped while disconnected or
// when the queue is full.
func (l *Link) enqueue(f Frame) {
	if l.current() == nil || l.isStopping() {
		l.logger.Debug("renderer_frame_dropped", zap.String("op", f.Op))
		return
	}
	select {
	case l.outbox <- f:
	default:
		l.logger.Warn("renderer_outbox_full", zap.String("op", f.Op))
	}
}

func (l *Link) writeLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopCh:
			return
		case f := <-l.outbox:
			_ = l.Send(f)
		}
	}
}

// SendSnapshot replays a full view frame, used after (re)connecting.
func (l *Link) SendSnapshot(f view.Frame) {
	l.enqueue(Frame{Op: OpClearBoard})
	l.enqueue(Frame{Op: OpClearDots})
	for i := 0; i < board.NumSquares; i++ {
		sq := board.Square(i)
		if f.Glyphs[i] != "" {
			l.enqueue(Frame{Op: OpGlyph, Square: sq.String(), Glyph: f.Glyphs[i]})
		}
		if f.Dots[i] {
			l.enqueue(Frame{Op: OpDot, Square: sq.String()})
		}
	}
	if f.Log != "" {
		l.enqueue(Frame{Op: OpLog, Text: f.Log, ScrollEnd: true})
	}
}

func (l *Link) ClearBoard() { l.enqueue(Frame{Op: OpClearBoard}) }

func (l *Link) SetGlyph(sq board.Square, glyph string) {
	l.enqueue(Frame{Op: OpGlyph, Square: sq.String(), Glyph: glyph})
}

func (l *Link) AddDot(sq board.Square) { l.enqueue(Frame{Op: OpDot, Square: sq.String()}) }

func (l *Link) ClearDots() { l.enqueue(Frame{Op: OpClearDots}) }

func (l *Link) ShowOutcome(result string) { l.enqueue(Frame{Op: OpOutcome, Text: result}) }

func (l *Link) ShowLog(text string) { l.enqueue(Frame{Op: OpLog, Text: text, ScrollEnd: true}) }

func (l *Link) Alert(msg string) { l.enqueue(Frame{Op: OpAlert, Text: msg}) }

// Close stops reconnecting and closes the connection.
func (l *Link) Close(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stopCh) })

	l.connM.Lock()
	conn := l.conn
	l.conn = nil
	l.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		l.rootCancel()
		return nil
	}
}

func (l *Link) isStopping() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func (l *Link) buildHeaders() http.Header {
	hdr := http.Header{}
	if l.headerProvider == nil {
		return hdr
	}
	for k, v := range l.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
