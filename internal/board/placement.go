package board

import (
	"fmt"
	"strings"
)

// Symbol is a FEN piece letter. The zero value means an empty square.
type Symbol rune

const NoSymbol Symbol = 0

// Placement maps every square to an optional piece symbol.
type Placement [NumSquares]Symbol

// ParseError describes why a placement field was rejected.
type ParseError struct {
	Input  string
	Rank   int // 1..8, 0 when the error is not rank specific
	Reason string
}

func (e *ParseError) Error() string {
	if e.Rank > 0 {
		return fmt.Sprintf("parse placement %q: rank %d: %s", e.Input, e.Rank, e.Reason)
	}
	return fmt.Sprintf("parse placement %q: %s", e.Input, e.Reason)
}

// ParsePlacement decodes the FEN board-placement field. Ranks are listed 8 to 1;
// rank 1 lands on squares 0..7. Digits skip empty files, any other character is
// emitted as a piece. Each rank must cover exactly 8 files.
func ParsePlacement(desc string) (Placement, error) {
	var p Placement
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return p, &ParseError{Input: desc, Reason: "empty description"}
	}
	ranks := strings.Split(desc, "/")
	if len(ranks) != 8 {
		return p, &ParseError{Input: desc, Reason: fmt.Sprintf("expected 8 ranks, got %d", len(ranks))}
	}
	for r := 0; r < 8; r++ {
		row := ranks[7-r]
		file := 0
		for _, c := range row {
			if c >= '0' && c <= '9' {
				file += int(c - '0')
				continue
			}
			if file > 7 {
				return Placement{}, &ParseError{Input: desc, Rank: r + 1, Reason: "more than 8 files"}
			}
			p[NewSquare(file, r)] = Symbol(c)
			file++
		}
		if file != 8 {
			return Placement{}, &ParseError{Input: desc, Rank: r + 1, Reason: fmt.Sprintf("files sum to %d, want 8", file)}
		}
	}
	return p, nil
}

// At returns the symbol on sq, or NoSymbol.
func (p *Placement) At(sq Square) Symbol {
	if !sq.Valid() {
		return NoSymbol
	}
	return p[sq]
}

// Occupied lists the occupied squares in ascending order.
func (p *Placement) Occupied() []Square {
	var out []Square
	for i, s := range p {
		if s != NoSymbol {
			out = append(out, Square(i))
		}
	}
	return out
}
