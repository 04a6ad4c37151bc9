package practice

import (
	"context"
	"fmt"
)

// DefaultDuration is the session length in seconds.
const DefaultDuration = 300

// DefaultCategoryCycle is the order NextCategory walks through.
var DefaultCategoryCycle = []string{"grammar", "vocabulary", "punctuation", "style"}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Phase            Phase     `json:"phase"`
	Category         string    `json:"category"`
	Title            string    `json:"title"`
	QuestionCount    int       `json:"question_count"`
	Answers          AnswerMap `json:"answers"`
	DurationSeconds  int       `json:"duration_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ElapsedSeconds   int       `json:"elapsed_seconds"`
	Clock            string    `json:"clock"`
}

// Controller owns the state machine of one timed practice session.
// It is not safe for concurrent use; a Runner serializes access to it.
type Controller struct {
	provider ContentProvider
	duration int
	cycle    []string

	phase     Phase
	set       *ExerciseSet
	answers   AnswerMap
	remaining int
	summary   *ResultSummary
}

// Option configures a Controller.
type Option func(*Controller)

// WithDuration sets the session length in seconds. Non-positive values are ignored.
func WithDuration(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.duration = seconds
		}
	}
}

// WithCategoryCycle sets the category order used by NextCategory.
func WithCategoryCycle(ids []string) Option {
	return func(c *Controller) {
		if len(ids) > 0 {
			c.cycle = append([]string(nil), ids...)
		}
	}
}

// NewController creates a controller in the Idle phase with no exercise set.
func NewController(provider ContentProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		duration: DefaultDuration,
		cycle:    DefaultCategoryCycle,
		phase:    PhaseIdle,
		answers:  AnswerMap{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining = c.duration
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Duration returns the configured session length in seconds.
func (c *Controller) Duration() int { return c.duration }

// Category returns the active category id, or "" before one is selected.
func (c *Controller) Category() string {
	if c.set == nil {
		return ""
	}
	return c.set.Category
}

// Start begins the countdown. It is a no-op while Running; from Paused the
// caller must use Resume.
func (c *Controller) Start() error {
	switch c.phase {
	case PhaseRunning:
		return nil
	case PhaseIdle:
	default:
		return illegalState("start", c.phase)
	}
	if c.set == nil {
		return fmt.Errorf("start without exercise set: %w", ErrIllegalState)
	}

	c.phase = PhaseRunning
	c.remaining = c.duration
	c.answers = AnswerMap{}
	c.summary = nil
	return nil
}

// RecordAnswer stores optionIndex for questionIndex, replacing any earlier answer.
func (c *Controller) RecordAnswer(questionIndex, optionIndex int) error {
	if !c.phase.Active() {
		return illegalState("record answer", c.phase)
	}
	if questionIndex < 0 || questionIndex >= len(c.set.Questions) {
		return fmt.Errorf("question %d out of range [0,%d): %w", questionIndex, len(c.set.Questions), ErrInvalidIndex)
	}
	opts := c.set.Questions[questionIndex].Options
	if optionIndex < 0 || optionIndex >= len(opts) {
		return fmt.Errorf("option %d out of range [0,%d) for question %d: %w", optionIndex, len(opts), questionIndex, ErrInvalidIndex)
	}

	c.answers[questionIndex] = optionIndex
	return nil
}

// Pause freezes the countdown. Pausing while Paused is a no-op.
func (c *Controller) Pause() error {
	switch c.phase {
	case PhasePaused:
		return nil
	case PhaseRunning:
		c.phase = PhasePaused
		return nil
	default:
		return illegalState("pause", c.phase)
	}
}

// Resume restarts a paused countdown. Resuming while Running is a no-op.
func (c *Controller) Resume() error {
	switch c.phase {
	case PhaseRunning:
		return nil
	case PhasePaused:
		c.phase = PhaseRunning
		return nil
	default:
		return illegalState("resume", c.phase)
	}
}

// Tick consumes one second of the countdown. Ticks outside Running are
// ignored. It reports true exactly once: on the tick that expires the
// session and submits it.
func (c *Controller) Tick() bool {
	if c.phase != PhaseRunning {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		return false
	}

	c.phase = PhaseExpired
	c.finish(true)
	return true
}

// Submit ends the session and computes the result. Submitting an already
// finished session is a no-op so a manual submit racing the timeout is
// graded only once.
func (c *Controller) Submit() error {
	switch {
	case c.phase.Finished():
		return nil
	case c.phase.Active():
		c.finish(false)
		return nil
	default:
		return illegalState("submit", c.phase)
	}
}

func (c *Controller) finish(expired bool) {
	s := Score(c.answers, c.set)
	s.ExpiredByTimeout = expired
	s.ElapsedSeconds = c.duration - c.remaining
	s.grade()
	c.summary = &s
	c.phase = PhaseSubmitted
}

// MarkReviewed records that the result has been shown.
func (c *Controller) MarkReviewed() error {
	switch c.phase {
	case PhaseReviewed:
		return nil
	case PhaseSubmitted:
		c.phase = PhaseReviewed
		return nil
	default:
		return illegalState("review", c.phase)
	}
}

// Reset returns to Idle, discarding answers, countdown and result. The
// selected exercise set is kept. An unfinished session is abandoned.
func (c *Controller) Reset() {
	c.phase = PhaseIdle
	c.answers = AnswerMap{}
	c.remaining = c.duration
	c.summary = nil
}

// SelectCategory loads the exercise set for categoryID and resets the
// session. It is refused while a session is in progress. On failure the
// previous state is left untouched.
func (c *Controller) SelectCategory(ctx context.Context, categoryID string) error {
	if c.phase.Active() {
		return illegalState("select category", c.phase)
	}

	set, err := c.provider.ExerciseSet(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("load category %q: %w", categoryID, err)
	}
	if err := set.Validate(); err != nil {
		return fmt.Errorf("category %q: %w", categoryID, err)
	}

	c.set = set.Clone()
	c.Reset()
	return nil
}

// NextCategory selects the successor of the active category in the cycle,
// wrapping around. With no active category, or one outside the cycle, it
// selects the first entry.
func (c *Controller) NextCategory(ctx context.Context) (string, error) {
	next := c.cycle[0]
	current := c.Category()
	for i, id := range c.cycle {
		if id == current {
			next = c.cycle[(i+1)%len(c.cycle)]
			break
		}
	}
	if err := c.SelectCategory(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// ResultSummary returns the graded result of a finished session.
func (c *Controller) ResultSummary() (ResultSummary, error) {
	if !c.phase.Finished() || c.summary == nil {
		return ResultSummary{}, illegalState("result summary", c.phase)
	}
	return c.summary.clone(), nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Phase:            c.phase,
		Answers:          c.answers.clone(),
		DurationSeconds:  c.duration,
		RemainingSeconds: c.remaining,
		ElapsedSeconds:   c.duration - c.remaining,
		Clock:            FormatClock(c.remaining),
	}
	if c.set != nil {
		s.Category = c.set.Category
		s.Title = c.set.Title
		s.QuestionCount = len(c.set.Questions)
	}
	return s
}

// ExerciseSet returns a copy of the active set, or nil.
func (c *Controller) ExerciseSet() *ExerciseSet {
	if c.set == nil {
		return nil
	}
	return c.set.Clone()
}
