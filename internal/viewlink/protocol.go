package viewlink

// Outbound frame ops.
const (
	OpClearBoard = "clear_board"
	OpGlyph      = "glyph"
	OpDot        = "dot"
	OpClearDots  = "clear_dots"
	OpOutcome    = "outcome"
	OpLog        = "log"
	OpAlert      = "alert"
)

// Inbound event types.
const (
	EventClick      = "click"
	EventStart      = "start"
	EventDifficulty = "difficulty"
	EventRefresh    = "refresh"
)

// Frame is one presentation instruction sent to the renderer.
type Frame struct {
	Op     string `json:"op"`
	Square string `json:"square,omitempty"`
	Glyph  string `json:"glyph,omitempty"`
	Text   string `json:"text,omitempty"`
	// ScrollEnd asks the renderer to scroll the log panel to the bottom.
	ScrollEnd bool `json:"scroll_end,omitempty"`
}

// Event is one user interaction reported by the renderer.
type Event struct {
	Type   string `json:"type"`
	Square string `json:"square,omitempty"`
	Player string `json:"player,omitempty"`
	Value  string `json:"value,omitempty"`
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type EventCallback func(ev Event)
type StateCallback func(s State)
type HeaderProvider func() map[string]string
