package rpcprovider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// PollConfig bounds WaitForTransaction.
type PollConfig struct {
	Attempts int
	MinWait  time.Duration
	MaxWait  time.Duration
}

// DefaultPollConfig waits up to roughly half a minute.
var DefaultPollConfig = PollConfig{
	Attempts: 10,
	MinWait:  250 * time.Millisecond,
	MaxWait:  5 * time.Second,
}

// backoff returns the wait before the given attempt: exponential between
// MinWait and MaxWait, plus up to 50% jitter.
func (c PollConfig) backoff(attempt int) time.Duration {
	wait := retryablehttp.DefaultBackoff(c.MinWait, c.MaxWait, attempt, nil)
	if half := wait / 2; half > 0 {
		wait += rand.N(half)
	}
	return wait
}

// WaitForTransaction polls until the node knows the transaction or the
// attempts run out. Lookup errors are treated as "not yet known".
func (p *Provider) WaitForTransaction(ctx context.Context, digest string, cfg PollConfig) (*TransactionResponse, error) {
	if cfg.Attempts <= 0 {
		cfg = DefaultPollConfig
	}

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(cfg.backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		tx, err := p.GetTransaction(ctx, digest)
		if err == nil {
			return tx, nil
		}
		lastErr = err
		p.logger.Debug("Transaction not yet available", "digest", digest, "attempt", attempt+1, "err", err)
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrNotConfirmed, digest, cfg.Attempts, lastErr)
}
