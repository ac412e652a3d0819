package view

import (
	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/session"
)

// Multi fans every presenter call out to each member in order.
type Multi []session.Presenter

func (m Multi) ClearBoard() {
	for _, p := range m {
		p.ClearBoard()
	}
}

func (m Multi) SetGlyph(sq board.Square, glyph string) {
	for _, p := range m {
		p.SetGlyph(sq, glyph)
	}
}

func (m Multi) AddDot(sq board.Square) {
	for _, p := range m {
		p.AddDot(sq)
	}
}

func (m Multi) ClearDots() {
	for _, p := range m {
		p.ClearDots()
	}
}

func (m Multi) ShowOutcome(result string) {
	for _, p := range m {
		p.ShowOutcome(result)
	}
}

func (m Multi) ShowLog(text string) {
	for _, p := range m {
		p.ShowLog(text)
	}
}

func (m Multi) Alert(msg string) {
	for _, p := range m {
		p.Alert(msg)
	}
}
