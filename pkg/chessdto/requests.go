package chessdto

// StartRequest is the body of POST /start.
type StartRequest struct {
	Player string `json:"player"`
}

// StartResponse echoes the player to confirm the session.
type StartResponse struct {
	Status string `json:"status,omitempty"`
	Player string `json:"player"`
	FEN    string `json:"fen,omitempty"`
}

// MoveRequest is the body of POST /player_move.
type MoveRequest struct {
	Move       string `json:"move"`
	Difficulty string `json:"difficulty"`
	Player     string `json:"player"`
}
