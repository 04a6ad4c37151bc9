package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/model"
	"github.com/stemsi/englishgpt-practice/internal/practice"
)

// ResultPublisher queues finished sessions for persistence and announces them
// on the results channel.
type ResultPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewResultPublisher creates a new ResultPublisher.
func NewResultPublisher(rdb *redis.Client, log zerolog.Logger) *ResultPublisher {
	return &ResultPublisher{
		rdb: rdb,
		log: log.With().Str("component", "result_publisher").Logger(),
	}
}

// ConsumeResult implements practice.ResultsConsumer.
func (p *ResultPublisher) ConsumeResult(ctx context.Context, res practice.Result) error {
	raw, err := encodeResult(res)
	if err != nil {
		return err
	}

	pipe := p.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	pipe.Publish(ctx, config.CacheKey.ResultsChannel(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}

	p.log.Debug().Str("session_id", res.SessionID).Msg("Result queued")
	return nil
}

func encodeResult(res practice.Result) ([]byte, error) {
	rec, err := model.NewPracticeResult(res)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return raw, nil
}
