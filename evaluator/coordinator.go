package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"arena-go/agent"
	"arena-go/archive"
	"arena-go/coordination"
	"arena-go/model"
)

// PromotionHook observes a completed promotion cycle: the accepted version,
// the tournament outcome that accepted it, and the archived path.
type PromotionHook func(v *model.Version, outcome Outcome, path string)

// Coordinator is the top-level evaluation loop. It polls the candidate
// intake channel, runs a tournament against the active model and, on
// acceptance, drives the promotion barrier and the archive. At most one
// tournament or promotion is in flight at a time by construction - the loop
// is a single goroutine.
type Coordinator struct {
	intake      <-chan *model.Version
	service     *coordination.Service
	tournament  *Tournament
	archive     *archive.Archive
	load        agent.Loader
	pollTimeout time.Duration
	onPromotion PromotionHook
}

type CoordinatorOption func(c *Coordinator)

// WithPromotionHook registers a callback invoked after each completed
// promotion cycle, once the version is archived.
func WithPromotionHook(hook PromotionHook) CoordinatorOption {
	return func(c *Coordinator) {
		c.onPromotion = hook
	}
}

func NewCoordinator(intake <-chan *model.Version, service *coordination.Service,
	tournament *Tournament, arc *archive.Archive, load agent.Loader,
	pollTimeout time.Duration, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		intake:      intake,
		service:     service,
		tournament:  tournament,
		archive:     arc,
		load:        load,
		pollTimeout: pollTimeout,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Run polls the intake channel until ctx is canceled. An empty intake is a
// no-op, not an error. Fatal conditions - a broken agent contract during
// evaluation, an aborted barrier, a persistence failure - are returned and
// terminate the loop; everything else is logged and the loop continues.
func (c *Coordinator) Run(ctx context.Context) error {
	log.Info().Msgf("evaluator listening for model candidates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candidate := <-c.intake:
			log.Info().Msgf("found new model candidate %s", candidate.ID)
			if err := c.consider(ctx, candidate); err != nil {
				return err
			}
		case <-time.After(c.pollTimeout):
			log.Debug().Msg("no candidate on the intake channel")
		}
	}
}

func (c *Coordinator) consider(ctx context.Context, candidate *model.Version) error {
	incumbent := c.service.Current()

	accepted, outcome, err := c.tournament.Evaluate(c.load(incumbent), c.load(candidate))
	if err != nil {
		return fmt.Errorf("evaluating candidate %s: %w", candidate.ID, err)
	}
	if !accepted {
		log.Info().Msgf("discarding rejected candidate %s", candidate.ID)
		return nil
	}

	// Acceptance creates the immutable version: number and timestamp are
	// stamped here and never change again.
	version := candidate.Accepted(incumbent.Number+1, time.Now())

	if err := c.service.Promote(ctx, version); err != nil {
		return fmt.Errorf("promoting version %d: %w", version.Number, err)
	}

	// An accepted model that fails to archive would leave the live fleet on
	// a version the archive does not know, so this is fatal for the cycle.
	path, err := c.archive.SaveAccepted(version)
	if err != nil {
		return fmt.Errorf("archiving version %d: %w", version.Number, err)
	}

	if c.onPromotion != nil {
		c.onPromotion(version, outcome, path)
	}
	return nil
}
