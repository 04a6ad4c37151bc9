package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second

	// After a flush that had to requeue, the worker waits before popping
	// again. The wait doubles up to ResultRetryMax while the store keeps failing.
	ResultRetryMin = 1 * time.Second
	ResultRetryMax = 30 * time.Second
)

// retryBackoff is the worker's wait after failed flushes.
type retryBackoff struct {
	floor, ceil time.Duration
	next        time.Duration
}

func newRetryBackoff(floor, ceil time.Duration) *retryBackoff {
	return &retryBackoff{floor: floor, ceil: ceil, next: floor}
}

// Next returns the wait for this failure and doubles the following one.
func (b *retryBackoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.ceil {
		b.next = b.ceil
	}
	return d
}

func (b *retryBackoff) Reset() { b.next = b.floor }

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ResultStore persists finished practice results.
type ResultStore interface {
	InsertBatch(ctx context.Context, batch []*model.PracticeResult) error
	Insert(ctx context.Context, p *model.PracticeResult) error
}

// ResultWorker drains persist_results_queue into PostgreSQL in batches.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
	retry *retryBackoff
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
		retry: newRetryBackoff(ResultRetryMin, ResultRetryMax),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start begins the worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.PracticeResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			failed := w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
			w.backoff(ctx, len(failed))
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("ResultWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			p, err := decodeResult([]byte(item[1]))
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

// flushSafe writes batch and returns the items that could not be stored.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.PracticeResult) []*model.PracticeResult {
	if len(batch) == 0 {
		return nil
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Results persisted")
		return nil
	}
	w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

	var failed []*model.PracticeResult
	for _, p := range batch {
		if err := w.store.Insert(ctx, p); err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID.String()).Msg("Insert failed, requeueing")
			failed = append(failed, p)
		}
	}
	w.requeue(ctx, failed)
	return failed
}

// backoff pauses the loop after a flush that left failed items requeued, so
// an unavailable database is not hammered with the same rows.
func (w *ResultWorker) backoff(ctx context.Context, failed int) {
	if failed == 0 {
		w.retry.Reset()
		return
	}
	wait := w.retry.Next()
	w.log.Warn().Int("requeued", failed).Dur("retry_in", wait).Msg("Store unhealthy, pausing result worker")
	sleep(ctx, wait)
}

func (w *ResultWorker) requeue(ctx context.Context, failed []*model.PracticeResult) {
	if len(failed) == 0 {
		return
	}
	pipe := w.rdb.Pipeline()
	for _, p := range failed {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(failed)).Msg("Requeue failed, results dropped")
	}
}

// drain persists whatever is left in the queue before shutdown.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raws, err := w.rdb.LPopCount(ctx, config.WorkerKey.PersistResultsQueue, ResultBatchSize).Result()
		if err != nil || len(raws) == 0 {
			break
		}

		batch := make([]*model.PracticeResult, 0, len(raws))
		for _, raw := range raws {
			p, err := decodeResult([]byte(raw))
			if err != nil {
				w.log.Error().Err(err).Msg("Drain unmarshal error")
				continue
			}
			batch = append(batch, p)
		}

		if failed := w.flushSafe(ctx, batch); len(failed) > 0 {
			// Store is unhealthy; what was requeued waits for the next start.
			break
		}
		drained += len(batch)
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func decodeResult(raw []byte) (*model.PracticeResult, error) {
	var p model.PracticeResult
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
