package practice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const fireTimeout = time.Second

type recordingConsumer struct {
	mu      sync.Mutex
	results []Result
}

func (r *recordingConsumer) ConsumeResult(_ context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recordingConsumer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *recordingConsumer) last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

// verifyNoLeaks must be called before any runner is started so its cleanup
// runs after the runners' cleanups.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
}

func startRunner(t *testing.T, opts ...Option) (*Runner, *ManualClock, *recordingConsumer) {
	t.Helper()
	ctrl := newTestController(t, opts...)
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	consumer := &recordingConsumer{}
	r := NewRunner("s-1", ctrl, clock, consumer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r, clock, consumer
}

func do(t *testing.T, r *Runner, fn func(*Controller) error) Snapshot {
	t.Helper()
	snap, err := r.Do(context.Background(), func(_ context.Context, c *Controller) error { return fn(c) })
	require.NoError(t, err)
	return snap
}

func TestRunner_TickerHeldOnlyWhileRunning(t *testing.T) {
	verifyNoLeaks(t)

	r, clock, _ := startRunner(t)
	assert.Equal(t, 0, clock.Active())

	do(t, r, (*Controller).Start)
	assert.Equal(t, 1, clock.Active())

	do(t, r, (*Controller).Pause)
	assert.Equal(t, 0, clock.Active())
	assert.False(t, clock.Fire(50*time.Millisecond), "no ticker while paused")

	do(t, r, (*Controller).Resume)
	assert.Equal(t, 1, clock.Active())
	assert.Equal(t, 2, clock.Created())

	do(t, r, func(c *Controller) error { c.Reset(); return nil })
	assert.Equal(t, 0, clock.Active())
}

func TestRunner_TicksDecrementRemaining(t *testing.T) {
	verifyNoLeaks(t)

	r, clock, _ := startRunner(t)
	do(t, r, (*Controller).Start)

	for i := 0; i < 3; i++ {
		require.True(t, clock.Fire(fireTimeout))
	}
	snap := do(t, r, func(*Controller) error { return nil })
	assert.Equal(t, 297, snap.RemainingSeconds)
	assert.Equal(t, 3, snap.ElapsedSeconds)
}

func TestRunner_ExpiryDeliversResultOnce(t *testing.T) {
	verifyNoLeaks(t)

	r, clock, consumer := startRunner(t, WithDuration(3))
	events, cancel := r.Subscribe(16)
	defer cancel()

	do(t, r, (*Controller).Start)
	do(t, r, func(c *Controller) error { return c.RecordAnswer(0, 0) })

	for i := 0; i < 3; i++ {
		require.True(t, clock.Fire(fireTimeout))
	}

	snap := do(t, r, (*Controller).Submit)
	assert.Equal(t, PhaseSubmitted, snap.Phase)
	assert.Equal(t, 0, clock.Active(), "ticker released on expiry")

	require.Equal(t, 1, consumer.count())
	res := consumer.last()
	assert.Equal(t, "s-1", res.SessionID)
	assert.True(t, res.Summary.ExpiredByTimeout)
	assert.Equal(t, 33, res.Summary.ScorePercent)
	assert.Equal(t, 3, res.ElapsedSeconds)

	graded := 0
drain:
	for {
		select {
		case ev := <-events:
			if ev.Type == EventGraded {
				graded++
				require.NotNil(t, ev.Result)
			}
		default:
			break drain
		}
	}
	assert.Equal(t, 1, graded)
}

func TestRunner_ManualSubmitDeliversOnce(t *testing.T) {
	verifyNoLeaks(t)

	r, clock, consumer := startRunner(t)
	do(t, r, (*Controller).Start)
	require.True(t, clock.Fire(fireTimeout))

	do(t, r, (*Controller).Submit)
	do(t, r, (*Controller).Submit)
	do(t, r, (*Controller).MarkReviewed)

	assert.Equal(t, 1, consumer.count())
	assert.False(t, consumer.last().Summary.ExpiredByTimeout)
	assert.Equal(t, 1, consumer.last().ElapsedSeconds)
}

func TestRunner_CommandErrorStillSyncsTicker(t *testing.T) {
	verifyNoLeaks(t)

	r, clock, _ := startRunner(t)
	do(t, r, (*Controller).Start)

	_, err := r.Do(context.Background(), func(_ context.Context, c *Controller) error {
		_ = c.Pause()
		return c.RecordAnswer(99, 0)
	})
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Equal(t, 0, clock.Active())
}

func TestRunner_StopReleasesEverything(t *testing.T) {
	verifyNoLeaks(t)

	ctrl := newTestController(t)
	clock := NewManualClock(time.Now())
	r := NewRunner("s-2", ctrl, clock, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(cancel)

	events, unsubscribe := r.Subscribe(1)
	defer unsubscribe()

	_, err := r.Do(context.Background(), func(_ context.Context, c *Controller) error { return c.Start() })
	require.NoError(t, err)
	<-events

	cancel()
	<-r.Done()

	assert.Equal(t, 0, clock.Active())
	_, ok := <-events
	assert.False(t, ok, "subscriber channel closed on stop")

	_, err = r.Do(context.Background(), func(context.Context, *Controller) error { return nil })
	assert.ErrorIs(t, err, ErrRunnerStopped)

	late, _ := r.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestMultiConsumer_JoinsErrors(t *testing.T) {
	a := &recordingConsumer{}
	failing := ConsumerFunc(func(context.Context, Result) error { return assert.AnError })

	err := MultiConsumer{a, nil, failing}.ConsumeResult(context.Background(), Result{SessionID: "x"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, a.count())
}
