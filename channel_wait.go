package sealpost

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Polling backoff for WaitForMessages.
const (
	waitInitialInterval   = 2 * time.Second
	waitMinInterval       = 10 * time.Millisecond
	waitMaxBackoff        = 30 * time.Second
	waitBackoffMultiplier = 1.5
	waitJitterFactor      = 0.3
)

// WaitForMessages polls the inbox until at least one message arrives, then
// returns that batch. Empty polls back off exponentially with jitter.
// Returns ErrWaitTimeout when the configured timeout elapses first, or the
// context's error if it is cancelled.
func (c *Channel) WaitForMessages(ctx context.Context, opts ...WaitOption) (*ReceiveResult, error) {
	cfg := &waitConfig{
		initialInterval: waitInitialInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	// A zero or negative interval would busy-poll the relay.
	interval := cfg.initialInterval
	if interval < waitMinInterval {
		interval = waitMinInterval
	}
	for {
		result, err := c.Receive(ctx)
		if err != nil {
			if cfg.timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrWaitTimeout
			}
			return nil, err
		}
		if len(result.Messages) > 0 {
			return result, nil
		}

		timer := time.NewTimer(jittered(interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			if cfg.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrWaitTimeout
			}
			return nil, ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * waitBackoffMultiplier)
		if interval > waitMaxBackoff {
			interval = waitMaxBackoff
		}
	}
}

// jittered spreads d by ±waitJitterFactor to avoid synchronized polling.
func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) * waitJitterFactor
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}
