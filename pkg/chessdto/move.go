package chessdto

// Move statuses reported by the Authority.
const (
	MoveStatusOK       = "ok"
	MoveStatusFinished = "finished"
	MoveStatusIllegal  = "illegal"
	MoveStatusError    = "error"
)

// MoveResponse is the reply to a move submission.
type MoveResponse struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	FEN    string `json:"fen,omitempty"`
}

// Finished reports whether the game reached a terminal outcome.
func (r MoveResponse) Finished() bool { return r.Status == MoveStatusFinished }

// MovesResponse lists legal moves from one origin square as 4+ char coordinate pairs.
type MovesResponse struct {
	Moves []string `json:"moves"`
}
