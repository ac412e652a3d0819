package session

import (
	"slices"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/pkg/chessdto"
)

// Kind is the interaction state of a session.
type Kind int

const (
	Idle Kind = iota
	AwaitingStart
	Selecting
	PieceSelected
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case AwaitingStart:
		return "awaiting_start"
	case Selecting:
		return "selecting"
	case PieceSelected:
		return "piece_selected"
	default:
		return "unknown"
	}
}

// State is a copy of the controller's interaction state.
// From and Dests are only meaningful in PieceSelected.
type State struct {
	Kind  Kind
	From  board.Square
	Dests []board.Square
}

// HasDest reports whether sq is a highlighted destination.
func (s State) HasDest(sq board.Square) bool { return slices.Contains(s.Dests, sq) }

func (s State) clone() State {
	s.Dests = slices.Clone(s.Dests)
	return s
}

type eventKind int

const (
	evStart eventKind = iota
	evStarted
	evStartFailed
	evClick
	evMoves
	evMovesFailed
	evMoved
)

func (k eventKind) String() string {
	return [...]string{"start", "started", "start_failed", "click", "moves", "moves_failed", "moved"}[k]
}

type event struct {
	kind   eventKind
	player string
	square board.Square
	token  uint64
	moves  []string
	move   string
	gameID string
	result *chessdto.MoveResponse
	err    error
}

type transitionKey struct {
	state Kind
	event eventKind
}

// handler runs under the controller lock. The returned effect runs after unlock.
type handler func(c *Controller, ev event) (effect, error)

var transitions map[transitionKey]handler

func init() {
	transitions = map[transitionKey]handler{
		{Idle, evStart}:          (*Controller).onStart,
		{Selecting, evStart}:     (*Controller).onStart,
		{PieceSelected, evStart}: (*Controller).onStart,

		{AwaitingStart, evStarted}:     (*Controller).onStarted,
		{AwaitingStart, evStartFailed}: (*Controller).onStartFailed,

		{Selecting, evClick}:     (*Controller).onSelect,
		{PieceSelected, evClick}: (*Controller).onTarget,

		{Selecting, evMoves}:       (*Controller).onMoves,
		{Selecting, evMovesFailed}: (*Controller).onMovesFailed,

		// 제출 결과는 어느 상태에서든 single-flight 플래그를 풀어야 함
		{Idle, evMoved}:          (*Controller).onMoved,
		{AwaitingStart, evMoved}: (*Controller).onMoved,
		{Selecting, evMoved}:     (*Controller).onMoved,
		{PieceSelected, evMoved}: (*Controller).onMoved,
	}
}
