package practice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestionSet(category string) *ExerciseSet {
	opts := []string{"a", "b", "c", "d"}
	return &ExerciseSet{
		Category: category,
		Title:    category,
		Questions: []Question{
			{Prompt: "q0", Options: opts, CorrectOptionIndex: 0},
			{Prompt: "q1", Options: opts, CorrectOptionIndex: 1},
			{Prompt: "q2", Options: opts, CorrectOptionIndex: 2},
		},
	}
}

func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	p := NewStaticProvider(
		threeQuestionSet("grammar"),
		threeQuestionSet("vocabulary"),
		threeQuestionSet("punctuation"),
		threeQuestionSet("style"),
	)
	c := NewController(p, opts...)
	require.NoError(t, c.SelectCategory(context.Background(), "grammar"))
	return c
}

func TestController_StartResetsState(t *testing.T) {
	c := newTestController(t)
	assert.Equal(t, PhaseIdle, c.Phase())

	require.NoError(t, c.Start())
	snap := c.Snapshot()
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 300, snap.RemainingSeconds)
	assert.Empty(t, snap.Answers)
	assert.Equal(t, "5:00", snap.Clock)

	// Start while running is a no-op.
	require.NoError(t, c.RecordAnswer(0, 1))
	require.NoError(t, c.Start())
	assert.Len(t, c.Snapshot().Answers, 1)
}

func TestController_StartWhilePausedIsIllegal(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())
	require.NoError(t, c.Pause())

	err := c.Start()
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Equal(t, PhasePaused, c.Phase())
}

func TestController_StartWithoutCategory(t *testing.T) {
	c := NewController(NewBuiltinProvider())
	assert.ErrorIs(t, c.Start(), ErrIllegalState)
}

func TestController_RecordAnswerValidation(t *testing.T) {
	c := newTestController(t)

	assert.ErrorIs(t, c.RecordAnswer(0, 0), ErrIllegalState, "idle session")

	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.RecordAnswer(-1, 0), ErrInvalidIndex)
	assert.ErrorIs(t, c.RecordAnswer(3, 0), ErrInvalidIndex)
	assert.ErrorIs(t, c.RecordAnswer(0, 4), ErrInvalidIndex)
	assert.ErrorIs(t, c.RecordAnswer(0, -1), ErrInvalidIndex)
	assert.Empty(t, c.Snapshot().Answers)

	require.NoError(t, c.Pause())
	require.NoError(t, c.RecordAnswer(1, 1), "answers allowed while paused")

	require.NoError(t, c.Submit())
	assert.ErrorIs(t, c.RecordAnswer(0, 0), ErrIllegalState)
}

func TestController_AnswerOverwrite(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())

	require.NoError(t, c.RecordAnswer(2, 0))
	require.NoError(t, c.RecordAnswer(2, 3))
	assert.Equal(t, 3, c.Snapshot().Answers[2])

	require.NoError(t, c.Submit())
	res, err := c.ResultSummary()
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnsweredCount)
}

func TestController_PauseResume(t *testing.T) {
	c := newTestController(t)

	assert.ErrorIs(t, c.Pause(), ErrIllegalState)
	assert.ErrorIs(t, c.Resume(), ErrIllegalState)

	require.NoError(t, c.Start())
	require.NoError(t, c.Resume(), "resume while running is a no-op")
	require.NoError(t, c.Pause())
	require.NoError(t, c.Pause(), "pause while paused is a no-op")
	assert.Equal(t, PhasePaused, c.Phase())
	require.NoError(t, c.Resume())
	assert.Equal(t, PhaseRunning, c.Phase())
}

func TestController_TicksIgnoredWhilePaused(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())
	for i := 0; i < 180; i++ {
		c.Tick()
	}
	require.Equal(t, 120, c.Snapshot().RemainingSeconds)

	require.NoError(t, c.Pause())
	for i := 0; i < 10; i++ {
		assert.False(t, c.Tick())
	}
	require.NoError(t, c.Resume())
	assert.Equal(t, 120, c.Snapshot().RemainingSeconds)

	c.Tick()
	assert.Equal(t, 119, c.Snapshot().RemainingSeconds)
}

func TestController_TimeoutBoundary(t *testing.T) {
	c := newTestController(t, WithDuration(2))
	require.NoError(t, c.Start())

	assert.False(t, c.Tick())
	assert.Equal(t, PhaseRunning, c.Phase())
	assert.Equal(t, 1, c.Snapshot().RemainingSeconds)

	assert.True(t, c.Tick())
	assert.Equal(t, PhaseSubmitted, c.Phase())

	res, err := c.ResultSummary()
	require.NoError(t, err)
	assert.True(t, res.ExpiredByTimeout)
	assert.Equal(t, 2, res.ElapsedSeconds)
}

func TestController_FullCountdownSubmitsOnce(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())

	fired := 0
	for i := 1; i <= 300; i++ {
		if c.Tick() {
			fired++
			assert.Equal(t, 300, i, "expiry must happen on the last tick")
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, PhaseSubmitted, c.Phase())

	for i := 0; i < 5; i++ {
		assert.False(t, c.Tick())
	}

	res, err := c.ResultSummary()
	require.NoError(t, err)
	assert.True(t, res.ExpiredByTimeout)
	assert.Equal(t, 300, res.ElapsedSeconds)
}

func TestController_SubmitIsIdempotent(t *testing.T) {
	for _, pause := range []bool{false, true} {
		c := newTestController(t)
		require.NoError(t, c.Start())
		require.NoError(t, c.RecordAnswer(0, 0))
		if pause {
			require.NoError(t, c.Pause())
		}

		require.NoError(t, c.Submit())
		first := c.summary
		require.NoError(t, c.Submit())

		assert.Equal(t, PhaseSubmitted, c.Phase())
		assert.Same(t, first, c.summary, "second submit must not recompute")
		assert.False(t, first.ExpiredByTimeout)
	}
}

func TestController_TimeoutThenManualSubmit(t *testing.T) {
	c := newTestController(t, WithDuration(1))
	require.NoError(t, c.Start())
	require.True(t, c.Tick())
	first := c.summary

	require.NoError(t, c.Submit())
	assert.Same(t, first, c.summary)
	assert.True(t, c.summary.ExpiredByTimeout)
}

func TestController_SubmitFromIdleIsIllegal(t *testing.T) {
	c := newTestController(t)
	assert.ErrorIs(t, c.Submit(), ErrIllegalState)
}

func TestController_ResultSummaryBeforeFinish(t *testing.T) {
	c := newTestController(t)
	_, err := c.ResultSummary()
	assert.ErrorIs(t, err, ErrIllegalState)

	require.NoError(t, c.Start())
	_, err = c.ResultSummary()
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestController_ScoresPartiallyCorrectAnswers(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())
	require.NoError(t, c.RecordAnswer(0, 0))
	require.NoError(t, c.RecordAnswer(1, 1))
	require.NoError(t, c.RecordAnswer(2, 3))
	for i := 0; i < 65; i++ {
		c.Tick()
	}
	require.NoError(t, c.Submit())

	res, err := c.ResultSummary()
	require.NoError(t, err)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 67, res.ScorePercent)
	assert.Equal(t, 3, res.AnsweredCount)
	assert.Equal(t, PerformanceKeepPracticing, res.Performance)
	assert.False(t, res.Trophy)
	assert.Equal(t, 65, res.ElapsedSeconds)
	assert.Equal(t, "1:05", res.TimeTaken)
}

func TestController_SubmitWithNoAnswers(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Start())
	require.NoError(t, c.Submit())

	res, err := c.ResultSummary()
	require.NoError(t, err)
	assert.Equal(t, 0, res.ScorePercent)
	assert.Equal(t, 0, res.AnsweredCount)
	assert.Equal(t, PhaseSubmitted, c.Phase())
	for _, o := range res.Outcomes {
		assert.Nil(t, o.UserOptionIndex)
		assert.False(t, o.IsCorrect)
	}
}

func TestController_Review(t *testing.T) {
	c := newTestController(t)
	assert.ErrorIs(t, c.MarkReviewed(), ErrIllegalState)

	require.NoError(t, c.Start())
	require.NoError(t, c.Submit())
	require.NoError(t, c.MarkReviewed())
	require.NoError(t, c.MarkReviewed())
	assert.Equal(t, PhaseReviewed, c.Phase())

	_, err := c.ResultSummary()
	require.NoError(t, err)
	require.NoError(t, c.Submit(), "submit after review is a no-op")
	assert.Equal(t, PhaseReviewed, c.Phase())
	assert.ErrorIs(t, c.RecordAnswer(0, 0), ErrIllegalState)
}

func TestController_ResetClearsState(t *testing.T) {
	sequences := map[string]func(c *Controller){
		"fresh": func(c *Controller) {},
		"submitted": func(c *Controller) {
			_ = c.Start()
			_ = c.RecordAnswer(0, 2)
			_ = c.Submit()
		},
		"reviewed after timeout": func(c *Controller) {
			_ = c.Start()
			for i := 0; i < 300; i++ {
				c.Tick()
			}
			_ = c.MarkReviewed()
		},
		"abandoned while paused": func(c *Controller) {
			_ = c.Start()
			_ = c.RecordAnswer(1, 1)
			c.Tick()
			_ = c.Pause()
		},
	}

	for name, seq := range sequences {
		t.Run(name, func(t *testing.T) {
			c := newTestController(t)
			seq(c)

			c.Reset()
			assert.Equal(t, PhaseIdle, c.Phase())
			_, err := c.ResultSummary()
			assert.ErrorIs(t, err, ErrIllegalState)

			require.NoError(t, c.Start())
			snap := c.Snapshot()
			assert.Empty(t, snap.Answers)
			assert.Equal(t, 300, snap.RemainingSeconds)
			assert.Equal(t, "grammar", snap.Category)
		})
	}
}

func TestController_SelectCategory(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	err := c.SelectCategory(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "grammar", c.Category(), "failed select keeps the old set")

	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.SelectCategory(ctx, "style"), ErrIllegalState)

	require.NoError(t, c.Submit())
	require.NoError(t, c.SelectCategory(ctx, "style"))
	assert.Equal(t, "style", c.Category())
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestController_SelectCategoryRejectsBadContent(t *testing.T) {
	bad := &ExerciseSet{
		Category:  "broken",
		Questions: []Question{{Prompt: "x", Options: []string{"only"}, CorrectOptionIndex: 0}},
	}
	c := NewController(NewStaticProvider(bad))
	err := c.SelectCategory(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Equal(t, "", c.Category())
}

func TestController_NextCategoryCycles(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()

	var seen []string
	for i := 0; i < 5; i++ {
		id, err := c.NextCategory(ctx)
		require.NoError(t, err)
		seen = append(seen, id)
	}
	assert.Equal(t, []string{"vocabulary", "punctuation", "style", "grammar", "vocabulary"}, seen)
}

func TestController_NextCategoryWithoutSelection(t *testing.T) {
	c := NewController(NewBuiltinProvider(), WithCategoryCycle([]string{"style", "grammar"}))
	id, err := c.NextCategory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "style", id)
}

func TestController_ProviderErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	p := providerFunc(func(context.Context, string) (*ExerciseSet, error) { return nil, boom })
	c := NewController(p)
	err := c.SelectCategory(context.Background(), "grammar")
	assert.ErrorIs(t, err, boom)
}

func TestController_ExerciseSetIsIsolated(t *testing.T) {
	set := threeQuestionSet("grammar")
	c := NewController(NewStaticProvider(set))
	require.NoError(t, c.SelectCategory(context.Background(), "grammar"))

	set.Questions[0].Options[0] = "mutated"
	got := c.ExerciseSet()
	assert.Equal(t, "a", got.Questions[0].Options[0])

	got.Questions[0].Options[0] = "mutated again"
	assert.Equal(t, "a", c.ExerciseSet().Questions[0].Options[0])
}

type providerFunc func(context.Context, string) (*ExerciseSet, error)

func (f providerFunc) ExerciseSet(ctx context.Context, id string) (*ExerciseSet, error) {
	return f(ctx, id)
}
