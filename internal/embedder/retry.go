package embedder

import (
	"context"
	"math/rand"
	"time"
)

const (
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// backoffDelay returns the delay before the given retry attempt
// (0-based) with jitter so concurrent workers do not stampede the
// provider in lockstep.
func backoffDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}
	jitterMax := delay / 5
	if jitterMax < 100*time.Millisecond {
		jitterMax = 100 * time.Millisecond
	}
	return delay + time.Duration(rand.Int63n(int64(jitterMax)))
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// embedWithRetry calls the embedder, retrying transient failures up to
// maxRetries times with exponential backoff. It returns the vectors and
// the number of retries actually performed.
func embedWithRetry(ctx context.Context, client Embedder, texts []string, maxRetries int) ([][]float32, int, error) {
	retries := 0
	for attempt := 0; ; attempt++ {
		vecs, err := client.EmbedBatch(ctx, texts)
		if err == nil {
			return vecs, retries, nil
		}
		if !IsTransient(err) || attempt >= maxRetries {
			return nil, retries, err
		}
		if serr := sleepCtx(ctx, backoffDelay(attempt)); serr != nil {
			return nil, retries, serr
		}
		retries++
	}
}
