package chat

import (
	"sync"
	"time"
)

// EventLimiter implements sliding window rate limiting for inbound chat
// events on one session. Over-limit events are dropped silently on the wire,
// consistent with the socket contract never surfacing errors.
type EventLimiter struct {
	mu              sync.Mutex
	eventsPerMinute int
	events          []time.Time
}

// NewEventLimiter creates a limiter with the given per-minute cap. A cap of
// zero or less disables limiting.
func NewEventLimiter(eventsPerMinute int) *EventLimiter {
	return &EventLimiter{
		eventsPerMinute: eventsPerMinute,
		events:          make([]time.Time, 0),
	}
}

// Allow records an event and reports whether it is within the limit.
func (l *EventLimiter) Allow() bool {
	if l == nil || l.eventsPerMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)
	valid := l.events[:0]
	for _, at := range l.events {
		if at.After(cutoff) {
			valid = append(valid, at)
		}
	}
	l.events = valid

	if len(l.events) >= l.eventsPerMinute {
		return false
	}

	l.events = append(l.events, now)
	return true
}
