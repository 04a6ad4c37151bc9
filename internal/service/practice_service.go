package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// Domain Errors
var (
	ErrSessionNotFound = errors.New("practice session not found")
	ErrServiceClosed   = errors.New("practice service is shut down")
)

type session struct {
	runner *practice.Runner
	cancel context.CancelFunc
}

// PracticeService owns every live practice session. Each session runs on its
// own Runner goroutine; the service only routes commands to it.
type PracticeService struct {
	provider practice.ContentProvider
	consumer practice.ResultsConsumer
	clock    practice.Clock
	ctrlOpts []practice.Option
	idleTTL  time.Duration
	log      zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	closed   bool

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// PracticeOption configures a PracticeService.
type PracticeOption func(*PracticeService)

// WithClock replaces the system clock, mainly for tests.
func WithClock(clock practice.Clock) PracticeOption {
	return func(s *PracticeService) { s.clock = clock }
}

// WithSessionOptions applies controller options to every new session.
func WithSessionOptions(opts ...practice.Option) PracticeOption {
	return func(s *PracticeService) { s.ctrlOpts = append(s.ctrlOpts, opts...) }
}

// WithIdleTTL sets how long an untouched session survives before being reaped.
func WithIdleTTL(ttl time.Duration) PracticeOption {
	return func(s *PracticeService) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// NewPracticeService creates a new PracticeService. consumer may be nil.
func NewPracticeService(provider practice.ContentProvider, consumer practice.ResultsConsumer, log zerolog.Logger, opts ...PracticeOption) *PracticeService {
	ctx, stop := context.WithCancel(context.Background())
	s := &PracticeService{
		provider: provider,
		consumer: consumer,
		clock:    practice.SystemClock{},
		idleTTL:  30 * time.Minute,
		log:      log.With().Str("component", "practice_service").Logger(),
		sessions: make(map[uuid.UUID]*session),
		baseCtx:  ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens an Idle session on categoryID.
func (s *PracticeService) CreateSession(ctx context.Context, categoryID string) (uuid.UUID, practice.Snapshot, error) {
	ctrl := practice.NewController(s.provider, s.ctrlOpts...)
	if err := ctrl.SelectCategory(ctx, categoryID); err != nil {
		return uuid.Nil, practice.Snapshot{}, err
	}
	snap := ctrl.Snapshot()

	id := uuid.New()
	runner := practice.NewRunner(id.String(), ctrl, s.clock, s.consumer, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return uuid.Nil, practice.Snapshot{}, ErrServiceClosed
	}

	rctx, cancel := context.WithCancel(s.baseCtx)
	s.sessions[id] = &session{runner: runner, cancel: cancel}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runner.Run(rctx)
	}()

	s.log.Info().Str("session_id", id.String()).Str("category", categoryID).Msg("Session created")
	return id, snap, nil
}

// Start begins the countdown.
func (s *PracticeService) Start(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error { return c.Start() })
}

// Pause freezes the countdown.
func (s *PracticeService) Pause(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error { return c.Pause() })
}

// Resume continues a paused countdown.
func (s *PracticeService) Resume(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error { return c.Resume() })
}

// Submit grades the session.
func (s *PracticeService) Submit(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error { return c.Submit() })
}

// Reset returns the session to Idle on the same category.
func (s *PracticeService) Reset(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error {
		c.Reset()
		return nil
	})
}

// Review marks a submitted session as reviewed.
func (s *PracticeService) Review(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error { return c.MarkReviewed() })
}

// RecordAnswer selects optionIndex for questionIndex.
func (s *PracticeService) RecordAnswer(ctx context.Context, id uuid.UUID, questionIndex, optionIndex int) (practice.Snapshot, error) {
	return s.do(ctx, id, func(_ context.Context, c *practice.Controller) error {
		return c.RecordAnswer(questionIndex, optionIndex)
	})
}

// SelectCategory switches the session to categoryID.
func (s *PracticeService) SelectCategory(ctx context.Context, id uuid.UUID, categoryID string) (practice.Snapshot, error) {
	return s.do(ctx, id, func(ctx context.Context, c *practice.Controller) error {
		return c.SelectCategory(ctx, categoryID)
	})
}

// NextCategory advances the session to the next category in the cycle.
func (s *PracticeService) NextCategory(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(ctx context.Context, c *practice.Controller) error {
		_, err := c.NextCategory(ctx)
		return err
	})
}

// State returns the current snapshot.
func (s *PracticeService) State(ctx context.Context, id uuid.UUID) (practice.Snapshot, error) {
	return s.do(ctx, id, func(context.Context, *practice.Controller) error { return nil })
}

// Result returns the graded result of a finished session.
func (s *PracticeService) Result(ctx context.Context, id uuid.UUID) (practice.ResultSummary, error) {
	var summary practice.ResultSummary
	_, err := s.do(ctx, id, func(_ context.Context, c *practice.Controller) error {
		var err error
		summary, err = c.ResultSummary()
		return err
	})
	return summary, err
}

// ExerciseSet returns a copy of the session's exercise set.
func (s *PracticeService) ExerciseSet(ctx context.Context, id uuid.UUID) (*practice.ExerciseSet, error) {
	var set *practice.ExerciseSet
	_, err := s.do(ctx, id, func(_ context.Context, c *practice.Controller) error {
		set = c.ExerciseSet()
		if set == nil {
			return fmt.Errorf("no exercise set: %w", practice.ErrIllegalState)
		}
		return nil
	})
	return set, err
}

// Subscribe streams the session's events until cancel is called or the session closes.
func (s *PracticeService) Subscribe(id uuid.UUID, buffer int) (<-chan practice.Event, func(), error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.runner.Subscribe(buffer)
	return ch, cancel, nil
}

// CloseSession stops and forgets a session.
func (s *PracticeService) CloseSession(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.cancel()
	<-sess.runner.Done()
	s.log.Info().Str("session_id", id.String()).Msg("Session closed")
	return nil
}

// Count returns the number of live sessions.
func (s *PracticeService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle closes sessions untouched for longer than the idle TTL and
// returns how many were closed.
func (s *PracticeService) ReapIdle() int {
	now := s.clock.Now()

	s.mu.RLock()
	var stale []uuid.UUID
	for id, sess := range s.sessions {
		if now.Sub(sess.runner.LastActive()) > s.idleTTL {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if err := s.CloseSession(id); err == nil {
			reaped++
		}
	}
	return reaped
}

// RunJanitor reaps idle sessions every interval until ctx is cancelled. Call in a goroutine.
func (s *PracticeService) RunJanitor(ctx context.Context, interval time.Duration) {
	s.log.Info().Dur("idle_ttl", s.idleTTL).Msg("Session janitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Session janitor stopped")
			return
		case <-ticker.C:
			if n := s.ReapIdle(); n > 0 {
				s.log.Info().Int("count", n).Msg("Reaped idle sessions")
			}
		}
	}
}

// Shutdown stops every session and waits for their runners to exit.
func (s *PracticeService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	count := len(s.sessions)
	s.sessions = make(map[uuid.UUID]*session)
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	s.log.Info().Int("sessions", count).Msg("Practice sessions stopped")
}

func (s *PracticeService) get(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *PracticeService) do(ctx context.Context, id uuid.UUID, fn func(context.Context, *practice.Controller) error) (practice.Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return practice.Snapshot{}, err
	}

	snap, err := sess.runner.Do(ctx, fn)
	if errors.Is(err, practice.ErrRunnerStopped) {
		return practice.Snapshot{}, ErrSessionNotFound
	}
	return snap, err
}
