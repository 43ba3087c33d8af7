package game

// Move is an opaque game action. Concrete games define their own move types;
// the episode runner only passes moves between the agent and the state.
type Move any

// Result is the terminal outcome of one episode, relative to the
// first-to-move and second-to-move roles, never to agent identity.
type Result int

const (
	FirstPlayerWin Result = iota
	SecondPlayerWin
	Draw
)

func (r Result) String() string {
	switch r {
	case FirstPlayerWin:
		return "first player win"
	case SecondPlayerWin:
		return "second player win"
	case Draw:
		return "draw"
	default:
		return "unknown result"
	}
}

// State is one position of a two-player game. State is immutable -
// operations on State always return a new copy, so the episode runner can
// own the chain of states for one episode and discard it at the end.
type State interface {
	// Player returns 1 while the first mover is to act, 2 for the second.
	Player() int
	LegalMoves() []Move
	// Legal reports whether a single move is playable in this position.
	Legal(Move) bool
	Play(Move) State
	Over() bool
	// Result is only meaningful once Over reports true.
	Result() Result
}
