// Package coordination owns the shared state through which the evaluator
// publishes accepted model versions to the worker fleet. The coordinator is
// the sole writer of the current version and the signal flags; each worker
// only ever decrements its own class's pending counter. That single-writer
// discipline keeps the barrier safe on atomics alone; a small mutex guards
// only registration and promotion setup.
package coordination

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"arena-go/model"
)

// Class identifies which worker fleet a worker belongs to. Promotion tracks
// acknowledgments per class.
type Class int

const (
	SelfPlay Class = iota
	Training

	numClasses = 2
)

func (c Class) String() string {
	switch c {
	case SelfPlay:
		return "self-play"
	case Training:
		return "training"
	default:
		return "unknown"
	}
}

// ErrPromotionInFlight is returned when Promote is called while another
// promotion has not completed. The coordinator never starts a new tournament
// while a barrier is outstanding, so hitting this indicates a caller bug.
var ErrPromotionInFlight = fmt.Errorf("a promotion barrier is already in flight")

// cycle is the per-promotion barrier state. Every promotion gets a fresh
// generation and a fresh completion channel, so a worker that is slow to
// acknowledge across cycle boundaries can never corrupt a later cycle.
type cycle struct {
	gen      uint64
	snapshot [numClasses]int64
	done     chan struct{}
	once     sync.Once
}

// Service is the process-wide coordination point shared by the evaluator
// and all workers.
type Service struct {
	mu sync.Mutex // guards registration and promotion setup

	current   atomic.Pointer[model.Version]
	signals   [numClasses]atomic.Bool
	pending   [numClasses]atomic.Int64
	live      [numClasses]atomic.Int64
	gen       atomic.Uint64
	cycle     atomic.Pointer[cycle]
	promoting atomic.Bool

	pollInterval time.Duration
	warnAfter    time.Duration
}

type Option func(s *Service)

// WithPollInterval sets how often the barrier wait wakes to report progress.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithWarnAfter sets how long the barrier waits before it starts logging
// liveness warnings about unacknowledged workers.
func WithWarnAfter(warnAfter time.Duration) Option {
	return func(s *Service) {
		if warnAfter > 0 {
			s.warnAfter = warnAfter
		}
	}
}

func NewService(initial *model.Version, options ...Option) *Service {
	s := &Service{ // Default values
		pollInterval: 500 * time.Millisecond,
		warnAfter:    30 * time.Second,
	}
	s.current.Store(initial)
	for _, option := range options {
		option(s)
	}
	return s
}

// Current returns the active model version. Lock-free; safe from any worker.
func (s *Service) Current() *model.Version {
	return s.current.Load()
}

// Signal reports whether a promotion signal is raised for the class.
func (s *Service) Signal(c Class) bool {
	return s.signals[c].Load()
}

// PendingAcks returns the class's count of workers that have not yet
// acknowledged the in-flight promotion. Between promotions it holds the
// snapshot taken at the last promotion, restored after completion.
func (s *Service) PendingAcks(c Class) int64 {
	return s.pending[c].Load()
}

// LiveWorkers returns the number of registered workers in the class.
func (s *Service) LiveWorkers(c Class) int64 {
	return s.live[c].Load()
}

// Generation returns the number of promotions performed so far.
func (s *Service) Generation() uint64 {
	return s.gen.Load()
}

// Promote publishes v as the new current version and blocks until every
// registered worker in both classes has acknowledged the switch. Protocol:
// write the version, snapshot live worker counts into the pending counters,
// raise both signal flags, wait for both counters to reach zero, clear the
// flags, restore the counters to the snapshot.
//
// The wait never gives up on its own - a worker that never acknowledges
// stalls the promotion - but after warnAfter it logs a liveness warning at
// every poll interval naming the pending counts. Canceling ctx aborts the
// wait and returns the cancellation error.
func (s *Service) Promote(ctx context.Context, v *model.Version) error {
	if !s.promoting.CompareAndSwap(false, true) {
		return ErrPromotionInFlight
	}
	defer s.promoting.Store(false)

	s.mu.Lock()
	s.current.Store(v)
	c := &cycle{
		gen:  s.gen.Add(1),
		done: make(chan struct{}),
	}
	for class := range c.snapshot {
		n := s.live[class].Load()
		c.snapshot[class] = n
		s.pending[class].Store(n)
	}
	s.cycle.Store(c)
	for class := range s.signals {
		s.signals[class].Store(true)
	}
	s.mu.Unlock()

	log.Info().Msgf("promoting model version %d: waiting for %d self-play and %d training workers",
		v.Number, c.snapshot[SelfPlay], c.snapshot[Training])

	// Nobody to wait for
	s.maybeComplete(c)

	if err := s.wait(ctx, c, v); err != nil {
		return err
	}

	// Clear the signals, then restore the counters to the snapshot so they
	// again describe the fleet capacity for observers between cycles.
	for class := range s.signals {
		s.signals[class].Store(false)
	}
	for class, n := range c.snapshot {
		s.pending[class].Store(n)
	}
	s.cycle.Store(nil)

	log.Info().Msgf("promotion of model version %d complete", v.Number)
	return nil
}

func (s *Service) wait(ctx context.Context, c *cycle, v *model.Version) error {
	start := time.Now()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("promotion barrier for version %d aborted: %w", v.Number, ctx.Err())
		case <-ticker.C:
			if time.Since(start) >= s.warnAfter {
				log.Warn().Msgf("promotion of version %d still waiting after %s: %d self-play and %d training workers have not acknowledged",
					v.Number, time.Since(start).Round(time.Second),
					s.pending[SelfPlay].Load(), s.pending[Training].Load())
			}
		}
	}
}

// maybeComplete closes the cycle once both classes have fully acknowledged.
// Counters only decrease during a cycle, so whichever decrement happens last
// observes both at zero; the once guards against the near-simultaneous case.
func (s *Service) maybeComplete(c *cycle) {
	if s.pending[SelfPlay].Load() <= 0 && s.pending[Training].Load() <= 0 {
		c.once.Do(func() { close(c.done) })
	}
}

// Register adds a live worker to the class and returns its handle. Workers
// registered while a barrier is being set up are not counted against it.
func (s *Service) Register(c Class) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[c].Add(1)
	return &Handle{
		service: s,
		class:   c,
		lastGen: s.gen.Load(),
	}
}
