package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"arena-go/agent"
	"arena-go/game"
)

// Engine drives one full episode between two agents to a terminal result.
type Engine struct {
	start func() game.State
}

// New returns an episode runner that begins every episode from a fresh
// state produced by start.
func New(start func() game.State) *Engine {
	return &Engine{start: start}
}

// PlayEpisode plays first against second until the game ends and returns
// the terminal result. The result is relative to the first/second roles,
// not to which agent filled them - the caller tracks role assignment.
//
// Each turn the active agent ranks its candidate moves and the runner plays
// the highest-ranked move the game accepts. A turn with no legal move among
// the ranked candidates is a contract violation by the agent or the game
// encoding and aborts the episode.
func (e *Engine) PlayEpisode(first, second agent.Agent) (game.Result, error) {
	state := e.start()
	active, waiting := first, second

	for !state.Over() {
		ranked := active.RankMoves(state)
		move, ok := firstLegal(state, ranked)
		if !ok {
			return 0, fmt.Errorf("no legal move among %d ranked candidates for player %d", len(ranked), state.Player())
		}
		state = state.Play(move)
		active, waiting = waiting, active
	}

	result := state.Result()
	log.Debug().Msgf("episode over: %s", result)
	return result, nil
}

func firstLegal(state game.State, ranked []game.Move) (game.Move, bool) {
	for _, m := range ranked {
		if state.Legal(m) {
			return m, true
		}
	}
	return nil, false
}
