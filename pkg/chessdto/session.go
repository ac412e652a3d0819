package chessdto

import "strings"

// StateResponse is the reply of GET /get_state.
type StateResponse struct {
	FEN      string `json:"fen"`
	Turn     string `json:"turn,omitempty"`
	GameOver bool   `json:"game_over,omitempty"`
	Player   string `json:"player,omitempty"`
}

// Placement returns the board-placement field, the first space-delimited token of the FEN.
func (s StateResponse) Placement() string {
	fields := strings.Fields(s.FEN)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
