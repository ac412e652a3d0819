package view

import (
	"slices"
	"strings"
	"sync"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/msgcat"
)

const maxPendingAlerts = 16

// Frame is a copy of everything the model currently shows.
type Frame struct {
	Glyphs  [board.NumSquares]string
	Dots    [board.NumSquares]bool
	Outcome string
	Log     string
	Version uint64
}

// Model is an in-memory presenter. Safe for concurrent use.
type Model struct {
	msgs *msgcat.Catalog

	mu     sync.RWMutex
	frame  Frame
	alerts []string
	notify []func(Frame)
}

func NewModel(msgs *msgcat.Catalog) *Model {
	if msgs == nil {
		msgs = msgcat.Default()
	}
	return &Model{msgs: msgs}
}

// OnChange registers fn to be called (outside the lock) after every update.
func (m *Model) OnChange(fn func(Frame)) {
	m.mu.Lock()
	m.notify = append(m.notify, fn)
	m.mu.Unlock()
}

func (m *Model) ClearBoard() {
	m.update(func(f *Frame) {
		for i := range f.Glyphs {
			f.Glyphs[i] = ""
		}
	})
}

func (m *Model) SetGlyph(sq board.Square, glyph string) {
	if !sq.Valid() {
		return
	}
	m.update(func(f *Frame) { f.Glyphs[sq] = glyph })
}

func (m *Model) AddDot(sq board.Square) {
	if !sq.Valid() {
		return
	}
	m.update(func(f *Frame) { f.Dots[sq] = true })
}

func (m *Model) ClearDots() {
	m.update(func(f *Frame) { f.Dots = [board.NumSquares]bool{} })
}

// ShowOutcome stores the formatted game-over text and queues it as an alert.
func (m *Model) ShowOutcome(result string) {
	text := m.msgs.Text("game.over", map[string]string{"Result": result})
	m.update(func(f *Frame) { f.Outcome = result })
	m.pushAlert(text)
}

func (m *Model) ShowLog(text string) {
	m.update(func(f *Frame) { f.Log = text })
}

func (m *Model) Alert(msg string) { m.pushAlert(msg) }

// Frame returns the current frame.
func (m *Model) Frame() Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frame
}

// DrainAlerts returns and clears the queued alerts, oldest first.
func (m *Model) DrainAlerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.alerts
	m.alerts = nil
	return out
}

func (m *Model) pushAlert(msg string) {
	m.mu.Lock()
	m.alerts = append(m.alerts, msg)
	if len(m.alerts) > maxPendingAlerts {
		m.alerts = m.alerts[len(m.alerts)-maxPendingAlerts:]
	}
	m.mu.Unlock()
}

func (m *Model) update(fn func(*Frame)) {
	m.mu.Lock()
	fn(&m.frame)
	m.frame.Version++
	f := m.frame
	listeners := slices.Clone(m.notify)
	m.mu.Unlock()
	for _, l := range listeners {
		l(f)
	}
}

// RenderBoard draws f as text, rank 8 on top. Empty squares are '.', highlighted ones '*'.
func RenderBoard(f Frame) string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		b.WriteByte(byte('1' + rank))
		b.WriteByte(' ')
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			cell := f.Glyphs[sq]
			switch {
			case cell == "" && f.Dots[sq]:
				cell = "*"
			case cell == "":
				cell = "."
			case f.Dots[sq]:
				// capture target
				cell = "[" + cell + "]"
			}
			b.WriteString(pad(cell))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for file := 0; file < 8; file++ {
		b.WriteString(pad(string(rune('a' + file))))
	}
	b.WriteByte('\n')
	return b.String()
}

func pad(cell string) string {
	switch n := len([]rune(cell)); {
	case n >= 3:
		return cell
	case n == 2:
		return cell + " "
	default:
		return " " + cell + " "
	}
}
