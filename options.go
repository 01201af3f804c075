package sealpost

import "time"

// channelConfig holds configuration for a Channel.
type channelConfig struct {
	shortener       URLShortener
	now             func() time.Time
	maxReceiveBatch int
}

// Option configures a Channel.
type Option func(*channelConfig)

// WithURLShortener enables best-effort shortening of envelope locations
// before notifications go out. A shortener failure never fails a post.
func WithURLShortener(s URLShortener) Option {
	return func(c *channelConfig) {
		c.shortener = s
	}
}

// WithClock overrides the time source used to stamp outgoing messages.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *channelConfig) {
		c.now = now
	}
}

// WithMaxReceiveBatch caps how many messages a single Receive call decrypts.
// Remaining inbox items stay pending for the next call. Zero means no cap.
func WithMaxReceiveBatch(n int) Option {
	return func(c *channelConfig) {
		c.maxReceiveBatch = n
	}
}

// waitConfig holds configuration for WaitForMessages.
type waitConfig struct {
	timeout         time.Duration
	initialInterval time.Duration
}

// WaitOption configures WaitForMessages.
type WaitOption func(*waitConfig)

// WithWaitTimeout bounds how long WaitForMessages blocks before returning
// ErrWaitTimeout.
func WithWaitTimeout(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = d
	}
}

// WithWaitInterval sets the initial delay between polls. Subsequent delays
// back off exponentially with jitter up to a fixed maximum. Values below a
// small floor are raised to it.
func WithWaitInterval(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.initialInterval = d
	}
}
