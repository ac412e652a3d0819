// Package board holds the client-side board vocabulary: square indices, the
// FEN placement field and piece glyphs.
package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Square is a board index 0..63 with index = file + 8*rank (a1 = 0, h8 = 63).
type Square int

const (
	NumSquares       = 64
	NoSquare  Square = -1
)

// Valid reports whether sq is on the board.
func (sq Square) Valid() bool { return sq >= 0 && sq < NumSquares }

// File is 0 for the a-file through 7 for the h-file.
func (sq Square) File() int { return int(sq) % 8 }

// Rank is 0 for rank 1 through 7 for rank 8.
func (sq Square) Rank() int { return int(sq) / 8 }

func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return SquareToAlgebraic(sq)
}

// NewSquare builds a square from zero-based file and rank.
func NewSquare(file, rank int) Square { return Square(file + 8*rank) }

// SquareToAlgebraic returns the coordinate name of sq, e.g. 12 -> "e2".
func SquareToAlgebraic(sq Square) string {
	i := int(sq)
	return string(rune('a'+i%8)) + strconv.Itoa(i/8+1)
}

// AlgebraicToSquare is the inverse of SquareToAlgebraic.
func AlgebraicToSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(file, rank), nil
}

// ParseSquare accepts either an algebraic name ("e2", case-insensitive) or an index ("12").
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		sq := Square(n)
		if !sq.Valid() {
			return NoSquare, fmt.Errorf("square index out of range: %d", n)
		}
		return sq, nil
	}
	return AlgebraicToSquare(s)
}

// MoveText joins two squares into the 4-character coordinate pair sent to the Authority.
func MoveText(from, to Square) string {
	return SquareToAlgebraic(from) + SquareToAlgebraic(to)
}

// Destination extracts the target square of a coordinate move such as "e2e4" or "e7e8q".
func Destination(move string) (Square, error) {
	if len(move) < 4 {
		return NoSquare, fmt.Errorf("invalid move %q", move)
	}
	return AlgebraicToSquare(strings.ToLower(move[2:4]))
}
