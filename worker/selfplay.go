// Package worker provides the self-play and training controllers that run
// alongside the evaluator. Their game and learning content is deliberately
// thin; what matters is their contract with the coordinator: observe the
// promotion signal, reload the current version, acknowledge exactly once
// and pause until the whole fleet has switched.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"arena-go/agent"
	"arena-go/coordination"
	"arena-go/engine"
)

// SelfPlay generates games by playing the current model against itself.
type SelfPlay struct {
	id      int
	service *coordination.Service
	engine  *engine.Engine
	load    agent.Loader
}

func NewSelfPlay(id int, service *coordination.Service, eng *engine.Engine, load agent.Loader) *SelfPlay {
	return &SelfPlay{
		id:      id,
		service: service,
		engine:  eng,
		load:    load,
	}
}

// Run loops until ctx is canceled: switch models when a promotion is
// signaled, otherwise play one self-play episode with the active version.
func (w *SelfPlay) Run(ctx context.Context) error {
	handle := w.service.Register(coordination.SelfPlay)
	defer handle.Deregister()

	version := w.service.Current()
	episodes := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if v, ok := handle.CheckPromotion(); ok {
			version = v
			log.Info().Msgf("self-play worker %d switched to model version %d", w.id, v.Number)
			if err := handle.AwaitResume(ctx); err != nil {
				return err
			}
		}

		ag := w.load(version)
		if _, err := w.engine.PlayEpisode(ag, ag); err != nil {
			return fmt.Errorf("self-play worker %d: %w", w.id, err)
		}
		episodes++
		if episodes%100 == 0 {
			log.Info().Msgf("self-play worker %d played %d episodes on version %d", w.id, episodes, version.Number)
		}
	}
}
