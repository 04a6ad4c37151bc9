package practice

import (
	"context"
	"errors"
	"time"
)

// Result is what a finished session hands to its consumers.
type Result struct {
	SessionID      string        `json:"session_id"`
	Summary        ResultSummary `json:"summary"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// ResultsConsumer receives each finished session exactly once.
// Consumers must not call back into the session.
type ResultsConsumer interface {
	ConsumeResult(ctx context.Context, r Result) error
}

// ConsumerFunc adapts a function to ResultsConsumer.
type ConsumerFunc func(ctx context.Context, r Result) error

func (f ConsumerFunc) ConsumeResult(ctx context.Context, r Result) error { return f(ctx, r) }

// MultiConsumer delivers a result to every consumer and joins their errors.
type MultiConsumer []ResultsConsumer

func (m MultiConsumer) ConsumeResult(ctx context.Context, r Result) error {
	var errs []error
	for _, c := range m {
		if c == nil {
			continue
		}
		if err := c.ConsumeResult(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
