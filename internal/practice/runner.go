package practice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const consumeTimeout = 5 * time.Second

// ErrRunnerStopped is returned by Do once the runner's loop has exited.
var ErrRunnerStopped = errors.New("session runner stopped")

// EventType identifies what a runner Event carries.
type EventType string

const (
	EventState  EventType = "state"
	EventTick   EventType = "tick"
	EventGraded EventType = "graded"
)

// Event is pushed to subscribers after every state change.
type Event struct {
	Type     EventType      `json:"type"`
	Snapshot Snapshot       `json:"snapshot"`
	Result   *ResultSummary `json:"result,omitempty"`
}

type command struct {
	ctx   context.Context
	fn    func(context.Context, *Controller) error
	reply chan commandResult
}

type commandResult struct {
	snap Snapshot
	err  error
}

// Runner owns a Controller and applies commands and clock ticks to it from a
// single goroutine. It holds a ticker only while the session is Running.
type Runner struct {
	id       string
	ctrl     *Controller
	clock    Clock
	consumer ResultsConsumer
	log      zerolog.Logger

	cmds   chan command
	done   chan struct{}
	ticker Ticker

	lastActive atomic.Int64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// NewRunner creates a runner for ctrl. consumer may be nil.
func NewRunner(id string, ctrl *Controller, clock Clock, consumer ResultsConsumer, log zerolog.Logger) *Runner {
	if clock == nil {
		clock = SystemClock{}
	}
	r := &Runner{
		id:       id,
		ctrl:     ctrl,
		clock:    clock,
		consumer: consumer,
		log:      log.With().Str("component", "session_runner").Str("session_id", id).Logger(),
		cmds:     make(chan command),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Event),
	}
	r.touch()
	return r
}

// ID returns the session id.
func (r *Runner) ID() string { return r.id }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// LastActive is the time of the most recent command or tick.
func (r *Runner) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Runner) touch() {
	r.lastActive.Store(r.clock.Now().UnixNano())
}

// Run processes commands and ticks until ctx is cancelled. Call in a goroutine.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer r.closeSubscribers()
	defer r.releaseTicker()

	r.log.Debug().Msg("Runner started")

	for {
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C()
		}

		select {
		case <-ctx.Done():
			r.log.Debug().Msg("Runner stopped")
			return

		case cmd := <-r.cmds:
			before := r.ctrl.Phase()
			err := cmd.fn(cmd.ctx, r.ctrl)
			r.afterTransition(ctx, before, EventState)
			cmd.reply <- commandResult{snap: r.ctrl.Snapshot(), err: err}

		case <-tickC:
			before := r.ctrl.Phase()
			r.ctrl.Tick()
			r.touch()
			r.afterTransition(ctx, before, EventTick)
		}
	}
}

// Do runs fn against the controller on the runner goroutine and returns the
// resulting snapshot. fn must not retain the controller.
func (r *Runner) Do(ctx context.Context, fn func(context.Context, *Controller) error) (Snapshot, error) {
	cmd := command{ctx: ctx, fn: fn, reply: make(chan commandResult, 1)}

	select {
	case r.cmds <- cmd:
	case <-r.done:
		return Snapshot{}, ErrRunnerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	r.touch()

	select {
	case res := <-cmd.reply:
		return res.snap, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Subscribe registers for events. The returned channel is closed when the
// runner stops or cancel is called. Slow subscribers miss events.
func (r *Runner) Subscribe(buffer int) (<-chan Event, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	ch := make(chan Event, buffer)
	if r.closed {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

func (r *Runner) afterTransition(ctx context.Context, before Phase, kind EventType) {
	r.syncTicker()

	snap := r.ctrl.Snapshot()
	r.publish(Event{Type: kind, Snapshot: snap})

	if !before.Active() || snap.Phase != PhaseSubmitted {
		return
	}

	summary, err := r.ctrl.ResultSummary()
	if err != nil {
		r.log.Error().Err(err).Msg("Submitted session has no result")
		return
	}

	r.log.Info().
		Str("category", summary.Category).
		Int("score", summary.ScorePercent).
		Int("correct", summary.CorrectCount).
		Int("total", summary.TotalQuestions).
		Bool("expired", summary.ExpiredByTimeout).
		Msg("Practice session graded")

	r.publish(Event{Type: EventGraded, Snapshot: snap, Result: &summary})
	r.deliver(ctx, summary)
}

func (r *Runner) deliver(ctx context.Context, summary ResultSummary) {
	if r.consumer == nil {
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), consumeTimeout)
	defer cancel()

	res := Result{
		SessionID:      r.id,
		Summary:        summary,
		ElapsedSeconds: summary.ElapsedSeconds,
		FinishedAt:     r.clock.Now(),
	}
	if err := r.consumer.ConsumeResult(cctx, res); err != nil {
		r.log.Error().Err(err).Msg("Result consumer failed")
	}
}

// syncTicker holds a ticker exactly while the controller is Running.
func (r *Runner) syncTicker() {
	running := r.ctrl.Phase() == PhaseRunning
	switch {
	case running && r.ticker == nil:
		r.ticker = r.clock.NewTicker(time.Second)
	case !running && r.ticker != nil:
		r.releaseTicker()
	}
}

func (r *Runner) releaseTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

func (r *Runner) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *Runner) closeSubscribers() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.closed = true
}
