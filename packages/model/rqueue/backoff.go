package rqueue

import "time"

// BackoffPolicy computes the retry delay for the n-th re-request attempt
// (n starting at 0 for the first retry) and the point at which an entry
// should be evicted entirely.
//
// spec.md §9 leaves the exact backoff formula to the implementer with the
// constraint that steady-state request rate stays bounded; this is an
// exponential backoff capped at maxBackoff, evicting once the entry has
// been outstanding longer than retryCap. See DESIGN.md Open Question 3.
type BackoffPolicy struct {
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	RetryCap    time.Duration
}

// DefaultBackoffPolicy is used when no policy is supplied.
var DefaultBackoffPolicy = BackoffPolicy{
	BaseBackoff: 2 * time.Second,
	MaxBackoff:  2 * time.Minute,
	RetryCap:    30 * time.Minute,
}

// NextDelay returns the delay to wait before the attempt-th retry.
func (p BackoffPolicy) NextDelay(attempt int) time.Duration {
	delay := p.BaseBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return delay
}

// ShouldEvict reports whether an entry first requested at firstRequestedAt
// has exceeded the retry cap and should be dropped from the requested map.
func (p BackoffPolicy) ShouldEvict(firstRequestedAt time.Time, now time.Time) bool {
	return now.Sub(firstRequestedAt) > p.RetryCap
}
