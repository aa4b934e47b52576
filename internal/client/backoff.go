package client

import "time"

// Backoff implements the reconnect delay schedule: a fixed initial delay
// doubling up to a ceiling, with a hard cap on attempts. After the cap the
// backoff is exhausted and the caller must give up.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int

	attempt int
}

// NewBackoff returns the default schedule: 1s, 2s, 4s, 5s, 5s.
func NewBackoff() *Backoff {
	return &Backoff{
		Initial:     time.Second,
		Max:         5 * time.Second,
		MaxAttempts: 5,
	}
}

// Next returns the delay before the next reconnect attempt, or false when
// the attempt budget is exhausted.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.attempt >= b.MaxAttempts {
		return 0, false
	}
	d := b.Initial << b.attempt
	if d > b.Max {
		d = b.Max
	}
	b.attempt++
	return d, true
}

// Reset restarts the schedule after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt reports how many delays have been handed out since the last reset.
func (b *Backoff) Attempt() int {
	return b.attempt
}
