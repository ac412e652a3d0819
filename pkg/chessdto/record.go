package chessdto

import "time"

// GameRecord is one finished game as seen by this client.
type GameRecord struct {
	GameID     string    `json:"game_id"`
	ClientID   string    `json:"client_id,omitempty"`
	Player     string    `json:"player"`
	Difficulty string    `json:"difficulty"`
	Result     string    `json:"result"`
	Moves      []string  `json:"moves"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Prefs are the per-client settings restored at startup.
type Prefs struct {
	Player     string `json:"player"`
	Difficulty string `json:"difficulty"`
}
