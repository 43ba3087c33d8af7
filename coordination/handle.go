package coordination

import (
	"context"

	"arena-go/model"
)

// Handle is one worker's view of the coordination service. It remembers the
// last promotion generation the worker acknowledged, which is what enforces
// "decrement exactly once per promotion": a handle cannot acknowledge the
// same cycle twice, and cannot acknowledge a cycle it was not counted in.
//
// A Handle belongs to a single worker goroutine and must not be shared.
type Handle struct {
	service *Service
	class   Class
	lastGen uint64
}

// CheckPromotion observes the class's promotion signal. If a promotion this
// worker has not yet acknowledged is in flight, it reloads the current
// version, acknowledges exactly once and returns the new version with true.
// Otherwise it returns nil, false and the worker continues as before.
func (h *Handle) CheckPromotion() (*model.Version, bool) {
	if !h.service.signals[h.class].Load() {
		return nil, false
	}
	c := h.service.cycle.Load()
	if c == nil || c.gen == h.lastGen {
		return nil, false
	}
	h.lastGen = c.gen

	// Reload before decrementing: once the pending counter hits zero the
	// promoter may proceed, so the switch must already be visible.
	v := h.service.current.Load()
	if h.service.pending[h.class].Add(-1) <= 0 {
		h.service.maybeComplete(c)
	}
	return v, true
}

// AwaitResume blocks until the promotion cycle this worker acknowledged
// completes. Workers pause here after acknowledging, so none resumes work
// while part of the fleet is still on the old version.
func (h *Handle) AwaitResume(ctx context.Context) error {
	c := h.service.cycle.Load()
	if c == nil || c.gen != h.lastGen {
		// The acknowledged cycle already completed. If c is a newer cycle,
		// it is waiting for this worker's own acknowledgment; blocking on
		// it would wedge both sides. Fall through to CheckPromotion.
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deregister removes the worker from the live count. A worker that exits
// while a barrier it was counted in is outstanding acknowledges on the way
// out so the promotion cannot stall on a departed worker.
func (h *Handle) Deregister() {
	h.service.mu.Lock()
	defer h.service.mu.Unlock()
	h.service.live[h.class].Add(-1)

	c := h.service.cycle.Load()
	if c != nil && c.gen != h.lastGen {
		h.lastGen = c.gen
		if h.service.pending[h.class].Add(-1) <= 0 {
			h.service.maybeComplete(c)
		}
	}
}
