package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arena-go/model"
)

func testService(t *testing.T) (*Service, *model.Version) {
	t.Helper()
	initial := model.Initial([]byte("v0"))
	svc := NewService(initial, WithPollInterval(5*time.Millisecond), WithWarnAfter(time.Hour))
	return svc, initial
}

// promoteAsync runs Promote in the background and returns a channel carrying
// its result.
func promoteAsync(ctx context.Context, svc *Service, v *model.Version) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Promote(ctx, v) }()
	return errCh
}

// awaitSignal spins until the class's promotion signal rises.
func awaitSignal(t *testing.T, svc *Service, c Class) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !svc.Signal(c) {
		if time.Now().After(deadline) {
			t.Fatal("promotion signal never rose")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPromoteWithoutWorkersCompletesImmediately(t *testing.T) {
	svc, _ := testService(t)
	next := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())

	err := svc.Promote(context.Background(), next)

	require.NoError(t, err)
	require.Same(t, next, svc.Current())
	require.False(t, svc.Signal(SelfPlay))
	require.False(t, svc.Signal(Training))
	require.EqualValues(t, 1, svc.Generation())
}

func TestPromoteBarrierCycle(t *testing.T) {
	svc, _ := testService(t)
	h1 := svc.Register(SelfPlay)
	h2 := svc.Register(SelfPlay)
	h3 := svc.Register(Training)
	next := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())

	errCh := promoteAsync(context.Background(), svc, next)
	awaitSignal(t, svc, SelfPlay)

	// Any worker checking after the signal rose must see the new version.
	v1, ok := h1.CheckPromotion()
	require.True(t, ok)
	require.Same(t, next, v1, "Worker should never observe a stale version after the signal")

	_, again := h1.CheckPromotion()
	require.False(t, again, "A worker must acknowledge at most once per promotion")
	require.EqualValues(t, 1, svc.PendingAcks(SelfPlay))

	select {
	case <-errCh:
		t.Fatal("barrier completed before all workers acknowledged")
	case <-time.After(20 * time.Millisecond):
	}

	v2, ok := h2.CheckPromotion()
	require.True(t, ok)
	require.Same(t, next, v2)

	// Both classes must reach zero: a fully updated self-play fleet still
	// blocks on the training worker.
	select {
	case <-errCh:
		t.Fatal("barrier completed with a training acknowledgment outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	v3, ok := h3.CheckPromotion()
	require.True(t, ok)
	require.Same(t, next, v3)

	require.NoError(t, <-errCh)

	// Post-cycle: flags cleared, counters restored to the snapshot.
	require.False(t, svc.Signal(SelfPlay))
	require.False(t, svc.Signal(Training))
	require.EqualValues(t, 2, svc.PendingAcks(SelfPlay),
		"Pending counters should be restored to the snapshot, not left at zero")
	require.EqualValues(t, 1, svc.PendingAcks(Training))
}

func TestPromoteSecondCycleReusesCounters(t *testing.T) {
	svc, _ := testService(t)
	h := svc.Register(SelfPlay)

	for cycle := 1; cycle <= 2; cycle++ {
		next := model.NewCandidate([]byte("v")).Accepted(cycle, time.Now())
		errCh := promoteAsync(context.Background(), svc, next)
		awaitSignal(t, svc, SelfPlay)

		v, ok := h.CheckPromotion()
		require.True(t, ok, "cycle %d", cycle)
		require.Equal(t, cycle, v.Number)
		require.NoError(t, <-errCh)
		require.EqualValues(t, 1, svc.PendingAcks(SelfPlay))
	}
	require.EqualValues(t, 2, svc.Generation())
}

func TestPromoteRejectsConcurrentPromotion(t *testing.T) {
	svc, _ := testService(t)
	h := svc.Register(SelfPlay)
	next := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())

	errCh := promoteAsync(context.Background(), svc, next)
	awaitSignal(t, svc, SelfPlay)

	err := svc.Promote(context.Background(), model.NewCandidate([]byte("v2")).Accepted(2, time.Now()))
	require.ErrorIs(t, err, ErrPromotionInFlight)

	_, ok := h.CheckPromotion()
	require.True(t, ok)
	require.NoError(t, <-errCh)
}

func TestPromoteAbortsOnContextCancel(t *testing.T) {
	svc, _ := testService(t)
	svc.Register(SelfPlay) // never acknowledges

	ctx, cancel := context.WithCancel(context.Background())
	errCh := promoteAsync(ctx, svc, model.NewCandidate([]byte("v1")).Accepted(1, time.Now()))
	awaitSignal(t, svc, SelfPlay)
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestDeregisterAcknowledgesOutstandingCycle(t *testing.T) {
	svc, _ := testService(t)
	h := svc.Register(SelfPlay)
	next := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())

	errCh := promoteAsync(context.Background(), svc, next)
	awaitSignal(t, svc, SelfPlay)

	// The worker exits instead of acknowledging; the barrier must not hang
	// on a departed worker.
	h.Deregister()

	require.NoError(t, <-errCh)
	require.EqualValues(t, 0, svc.LiveWorkers(SelfPlay))
}

func TestAwaitResumeBlocksUntilCycleCompletes(t *testing.T) {
	svc, _ := testService(t)
	h1 := svc.Register(SelfPlay)
	h2 := svc.Register(SelfPlay)
	next := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())

	errCh := promoteAsync(context.Background(), svc, next)
	awaitSignal(t, svc, SelfPlay)

	_, ok := h1.CheckPromotion()
	require.True(t, ok)

	resumed := make(chan error, 1)
	go func() { resumed <- h1.AwaitResume(context.Background()) }()

	select {
	case <-resumed:
		t.Fatal("worker resumed while part of the fleet was still switching")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok = h2.CheckPromotion()
	require.True(t, ok)

	require.NoError(t, <-errCh)
	require.NoError(t, <-resumed)
}

func TestAwaitResumeIgnoresUnacknowledgedCycle(t *testing.T) {
	svc, _ := testService(t)
	h := svc.Register(SelfPlay)

	first := model.NewCandidate([]byte("v1")).Accepted(1, time.Now())
	errCh := promoteAsync(context.Background(), svc, first)
	awaitSignal(t, svc, SelfPlay)

	_, ok := h.CheckPromotion()
	require.True(t, ok)
	require.NoError(t, <-errCh)

	// The next promotion starts before the worker returns to its loop. Its
	// cycle is waiting on this very worker, so blocking on it would wedge
	// both sides.
	second := model.NewCandidate([]byte("v2")).Accepted(2, time.Now())
	errCh = promoteAsync(context.Background(), svc, second)
	awaitSignal(t, svc, SelfPlay)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.AwaitResume(ctx),
		"AwaitResume must return immediately for a cycle the worker never acknowledged")

	v, ok := h.CheckPromotion()
	require.True(t, ok)
	require.Same(t, second, v)
	require.NoError(t, <-errCh)
}

func TestRegisterDuringIdleDoesNotDisturbCounters(t *testing.T) {
	svc, _ := testService(t)
	svc.Register(SelfPlay)
	svc.Register(Training)

	require.EqualValues(t, 1, svc.LiveWorkers(SelfPlay))
	require.EqualValues(t, 1, svc.LiveWorkers(Training))
	require.EqualValues(t, 0, svc.PendingAcks(SelfPlay),
		"No promotion has happened yet, so nothing is pending")
	require.False(t, svc.Signal(SelfPlay))
}
