package board

import nchess "github.com/corentings/chess/v2"

var symbolPieces = map[Symbol]nchess.Piece{
	'K': nchess.WhiteKing,
	'Q': nchess.WhiteQueen,
	'R': nchess.WhiteRook,
	'B': nchess.WhiteBishop,
	'N': nchess.WhiteKnight,
	'P': nchess.WhitePawn,
	'k': nchess.BlackKing,
	'q': nchess.BlackQueen,
	'r': nchess.BlackRook,
	'b': nchess.BlackBishop,
	'n': nchess.BlackKnight,
	'p': nchess.BlackPawn,
}

// Piece resolves a FEN letter. ok is false for anything outside the 12 piece letters.
func Piece(sym Symbol) (piece nchess.Piece, ok bool) {
	piece, ok = symbolPieces[sym]
	return piece, ok
}

// Glyph returns the display glyph of sym. Unknown symbols render as "".
func Glyph(sym Symbol) string {
	piece, ok := symbolPieces[sym]
	if !ok {
		return ""
	}
	return piece.String()
}

// PieceForGlyph is the inverse of Glyph, for consumers that only see rendered text.
func PieceForGlyph(g string) (nchess.Piece, bool) {
	for _, piece := range symbolPieces {
		if piece.String() == g {
			return piece, true
		}
	}
	return nchess.NoPiece, false
}
