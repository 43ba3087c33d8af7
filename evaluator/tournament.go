package evaluator

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"arena-go/agent"
	"arena-go/game"
)

// EpisodeRunner plays one game between the first and second mover and
// reports the result relative to those roles.
type EpisodeRunner interface {
	PlayEpisode(first, second agent.Agent) (game.Result, error)
}

// Outcome tallies one tournament from the candidate's perspective.
type Outcome struct {
	Wins   int
	Draws  int
	Losses int
	Games  int
}

// Fraction is the candidate's share of wins over all games played. Draws
// and losses count for nothing.
func (o Outcome) Fraction() float64 {
	return float64(o.Wins) / float64(o.Games)
}

// Tournament pits an incumbent model against a candidate over a fixed
// number of games and reduces the results to an accept/reject decision.
type Tournament struct {
	runner    EpisodeRunner
	games     int
	threshold float64
}

func NewTournament(runner EpisodeRunner, games int, threshold float64) *Tournament {
	if games <= 0 {
		panic("Must evaluate over at least one game")
	}
	return &Tournament{
		runner:    runner,
		games:     games,
		threshold: threshold,
	}
}

// Evaluate plays games sequentially, alternating which model moves first so
// both experience both sides: the incumbent starts the first half and the
// candidate starts the second half (any odd game joins the second half).
// The candidate is accepted iff wins/games reaches the threshold; exactly
// hitting the threshold accepts.
//
// Scoring maps each result back through the game's role assignment, because
// after the midpoint swap the candidate wins as the first mover, not the
// second. Only the role matters, never which agent value filled it.
func (t *Tournament) Evaluate(incumbent, candidate agent.Agent) (bool, Outcome, error) {
	half := t.games / 2
	outcome := Outcome{Games: t.games}

	for i := 0; i < t.games; i++ {
		first, second := incumbent, candidate
		if i >= half {
			first, second = candidate, incumbent
		}

		result, err := t.runner.PlayEpisode(first, second)
		if err != nil {
			return false, outcome, fmt.Errorf("evaluation game %d: %w", i, err)
		}

		switch {
		case result == game.Draw:
			outcome.Draws++
		case candidateWon(i, half, result):
			outcome.Wins++
		default:
			outcome.Losses++
		}

		log.Info().Msgf("evaluation game %d of %d: %s", i+1, t.games, result)
	}

	accepted := outcome.Fraction() >= t.threshold
	log.Info().Msgf("candidate won %d of %d games (%.0f%%, threshold %.0f%%): %s",
		outcome.Wins, outcome.Games, outcome.Fraction()*100, t.threshold*100, verdict(accepted))
	return accepted, outcome, nil
}

func candidateWon(i, half int, result game.Result) bool {
	if i < half {
		return result == game.SecondPlayerWin
	}
	return result == game.FirstPlayerWin
}

func verdict(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
