package agent

import (
	"arena-go/game"
	"arena-go/model"
)

// Agent is an opaque move-ranking policy. Identity (incumbent vs candidate)
// is tracked by the caller, never by the agent itself.
type Agent interface {
	// RankMoves returns candidate moves for the current position, ordered
	// from most to least preferred. The episode runner plays the first move
	// the game accepts as legal.
	RankMoves(state game.State) []game.Move
}

// Loader materializes an Agent from a model version. This is the seam where
// a real policy/value network plugs into the coordinator.
type Loader func(v *model.Version) Agent
