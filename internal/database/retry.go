package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ConnectAttempts bounds how often a backing store is pinged at startup.
// Containers started by compose routinely come up before Postgres and Redis
// accept connections.
const ConnectAttempts = 5

const initialBackoff = 500 * time.Millisecond

// pingWithRetry calls ping until it succeeds, attempts run out or ctx ends.
// The wait doubles after every failure.
func pingWithRetry(ctx context.Context, log zerolog.Logger, name string, attempts int, ping func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	wait := initialBackoff

	var err error
	for i := 1; i <= attempts; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).
			Str("store", name).
			Int("attempt", i).
			Dur("retry_in", wait).
			Msg("Store not reachable, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("ping %s: %w", name, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("ping %s after %d attempts: %w", name, attempts, err)
}
