package worker

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"arena-go/coordination"
	"arena-go/model"
)

// Training periodically proposes a new candidate by perturbing the current
// model's parameters and submitting it to the evaluator's intake channel.
// A real training worker would fit parameters to self-play records; the
// perturbation stands in for that while exercising the same contract.
type Training struct {
	id       int
	service  *coordination.Service
	intake   chan<- *model.Version
	interval time.Duration
	rng      *rand.Rand
}

func NewTraining(id int, service *coordination.Service, intake chan<- *model.Version,
	interval time.Duration, seed uint64) *Training {
	return &Training{
		id:       id,
		service:  service,
		intake:   intake,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Run proposes one candidate per interval until ctx is canceled, honoring
// the promotion acknowledgment contract between proposals.
func (w *Training) Run(ctx context.Context) error {
	handle := w.service.Register(coordination.Training)
	defer handle.Deregister()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if v, ok := handle.CheckPromotion(); ok {
				log.Info().Msgf("training worker %d switched to model version %d", w.id, v.Number)
				if err := handle.AwaitResume(ctx); err != nil {
					return err
				}
			}

			candidate := model.NewCandidate(w.perturb(w.service.Current().Params))
			// Non-blocking send: the evaluator may be mid-tournament or
			// mid-barrier, and blocking here would deadlock the barrier
			// against its own training worker.
			select {
			case w.intake <- candidate:
				log.Info().Msgf("training worker %d proposed candidate %s", w.id, candidate.ID)
			default:
				log.Warn().Msgf("training worker %d dropped candidate %s: intake full", w.id, candidate.ID)
			}
		}
	}
}

func (w *Training) perturb(params []byte) []byte {
	next := make([]byte, len(params))
	copy(next, params)
	if len(next) == 0 {
		return next
	}
	// Flip a handful of random bytes so successive candidates rank moves
	// differently from the incumbent.
	for i := 0; i < 4; i++ {
		next[w.rng.Intn(len(next))] = byte(w.rng.Intn(256))
	}
	if bytes.Equal(next, params) {
		next[0] ^= 1
	}
	return next
}
