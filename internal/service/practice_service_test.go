package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingConsumer struct {
	mu      sync.Mutex
	results []practice.Result
}

func (r *recordingConsumer) ConsumeResult(_ context.Context, res practice.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recordingConsumer) all() []practice.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]practice.Result(nil), r.results...)
}

func newTestService(t *testing.T, opts ...PracticeOption) (*PracticeService, *practice.ManualClock, *recordingConsumer) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })

	clock := practice.NewManualClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	consumer := &recordingConsumer{}
	opts = append([]PracticeOption{WithClock(clock)}, opts...)

	svc := NewPracticeService(practice.NewBuiltinProvider(), consumer, zerolog.Nop(), opts...)
	t.Cleanup(svc.Shutdown)
	return svc, clock, consumer
}

func TestPracticeService_CreateSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, snap, err := svc.CreateSession(ctx, "vocabulary")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, practice.PhaseIdle, snap.Phase)
	assert.Equal(t, "vocabulary", snap.Category)
	assert.Equal(t, 2, snap.QuestionCount)
	assert.Equal(t, 300, snap.RemainingSeconds)
	assert.Equal(t, 1, svc.Count())

	_, _, err = svc.CreateSession(ctx, "astronomy")
	assert.ErrorIs(t, err, practice.ErrNotFound)
	assert.Equal(t, 1, svc.Count())
}

func TestPracticeService_SubmitFlow(t *testing.T) {
	svc, clock, consumer := newTestService(t)
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)

	_, err = svc.Result(ctx, id)
	assert.ErrorIs(t, err, practice.ErrIllegalState)

	_, err = svc.Start(ctx, id)
	require.NoError(t, err)
	require.True(t, clock.Fire(time.Second))
	require.True(t, clock.Fire(time.Second))

	_, err = svc.RecordAnswer(ctx, id, 0, 0)
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, id, 1, 1)
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, id, 7, 0)
	assert.ErrorIs(t, err, practice.ErrInvalidIndex)

	snap, err := svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhaseSubmitted, snap.Phase)

	summary, err := svc.Result(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 67, summary.ScorePercent)
	assert.Equal(t, 2, summary.CorrectCount)
	assert.False(t, summary.ExpiredByTimeout)

	results := consumer.all()
	require.Len(t, results, 1)
	assert.Equal(t, id.String(), results[0].SessionID)
	assert.Equal(t, 2, results[0].ElapsedSeconds)

	snap, err = svc.Review(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhaseReviewed, snap.Phase)
	assert.Len(t, consumer.all(), 1)
}

func TestPracticeService_ExpiresOnTimeout(t *testing.T) {
	svc, clock, consumer := newTestService(t, WithSessionOptions(practice.WithDuration(2)))
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "style")
	require.NoError(t, err)
	_, err = svc.Start(ctx, id)
	require.NoError(t, err)

	require.True(t, clock.Fire(time.Second))
	require.True(t, clock.Fire(time.Second))
	assert.False(t, clock.Fire(20*time.Millisecond), "ticker released after expiry")

	snap, err := svc.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhaseSubmitted, snap.Phase)
	assert.Equal(t, 0, snap.RemainingSeconds)

	results := consumer.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Summary.ExpiredByTimeout)
	assert.Equal(t, 0, results[0].Summary.ScorePercent)
}

func TestPracticeService_PauseResumeAndReset(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)

	_, err = svc.Pause(ctx, id)
	assert.ErrorIs(t, err, practice.ErrIllegalState)

	_, err = svc.Start(ctx, id)
	require.NoError(t, err)
	require.True(t, clock.Fire(time.Second))

	snap, err := svc.Pause(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhasePaused, snap.Phase)
	assert.Equal(t, 299, snap.RemainingSeconds)

	_, err = svc.SelectCategory(ctx, id, "style")
	assert.ErrorIs(t, err, practice.ErrIllegalState)

	snap, err = svc.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhaseRunning, snap.Phase)

	snap, err = svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, practice.PhaseIdle, snap.Phase)
	assert.Equal(t, "grammar", snap.Category)
	assert.Equal(t, 300, snap.RemainingSeconds)
}

func TestPracticeService_CategoryNavigation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "punctuation")
	require.NoError(t, err)

	snap, err := svc.NextCategory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "style", snap.Category)

	snap, err = svc.NextCategory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "grammar", snap.Category)

	snap, err = svc.SelectCategory(ctx, id, "vocabulary")
	require.NoError(t, err)
	assert.Equal(t, "vocabulary", snap.Category)

	set, err := svc.ExerciseSet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "vocabulary", set.Category)
	assert.Len(t, set.Questions, 2)
}

func TestPracticeService_UnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.State(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = svc.Subscribe(id, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.CloseSession(id), ErrSessionNotFound)
}

func TestPracticeService_CloseSession(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)
	events, unsubscribe, err := svc.Subscribe(id, 4)
	require.NoError(t, err)
	defer unsubscribe()

	_, err = svc.Start(ctx, id)
	require.NoError(t, err)
	ev := <-events
	assert.Equal(t, practice.EventState, ev.Type)

	require.NoError(t, svc.CloseSession(id))
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, 0, svc.Count())

	_, err = svc.State(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPracticeService_ReapIdle(t *testing.T) {
	svc, clock, _ := newTestService(t, WithIdleTTL(10*time.Minute))
	ctx := context.Background()

	stale, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	fresh, _, err := svc.CreateSession(ctx, "style")
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1, svc.ReapIdle())

	_, err = svc.State(ctx, stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.State(ctx, fresh)
	assert.NoError(t, err)
}

func TestPracticeService_TickingSessionIsNotIdle(t *testing.T) {
	svc, clock, _ := newTestService(t, WithIdleTTL(10*time.Minute))
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)
	_, err = svc.Start(ctx, id)
	require.NoError(t, err)
	events, unsubscribe, err := svc.Subscribe(id, 4)
	require.NoError(t, err)
	defer unsubscribe()

	clock.Advance(11 * time.Minute)
	require.True(t, clock.Fire(time.Second))
	for ev := range events {
		if ev.Type == practice.EventTick {
			break
		}
	}

	assert.Equal(t, 0, svc.ReapIdle())
}

func TestPracticeService_Shutdown(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id, _, err := svc.CreateSession(ctx, "grammar")
	require.NoError(t, err)
	_, err = svc.Start(ctx, id)
	require.NoError(t, err)

	svc.Shutdown()

	_, err = svc.State(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = svc.CreateSession(ctx, "grammar")
	assert.ErrorIs(t, err, ErrServiceClosed)
}
