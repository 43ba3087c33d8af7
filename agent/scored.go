package agent

import (
	"fmt"
	"hash/fnv"
	"sort"

	"arena-go/game"
	"arena-go/model"
)

// Scored is a deterministic stand-in for a policy network: it scores each
// legal move by hashing the model parameters together with the position and
// the move, then ranks descending. Versions with different parameters rank
// moves differently, so tournaments between them are meaningful without a
// real network.
type Scored struct {
	params []byte
}

func NewScored(params []byte) *Scored {
	return &Scored{params: params}
}

// FromVersion is the Loader used when no real network is wired in.
func FromVersion(v *model.Version) Agent {
	return NewScored(v.Params)
}

func (s *Scored) RankMoves(state game.State) []game.Move {
	moves := state.LegalMoves()

	// Moves are opaque values and need not be comparable, so scores are
	// held positionally rather than keyed by move.
	scores := make([]uint64, len(moves))
	order := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = s.score(state, m)
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	ranked := make([]game.Move, len(moves))
	for i, j := range order {
		ranked[i] = moves[j]
	}
	return ranked
}

func (s *Scored) score(state game.State, m game.Move) uint64 {
	h := fnv.New64a()
	h.Write(s.params)
	fmt.Fprintf(h, "%v|%v", state, m)
	return h.Sum64()
}
