package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLimiterAllow(t *testing.T) {
	t.Run("allows under the cap", func(t *testing.T) {
		l := NewEventLimiter(5)
		for i := 0; i < 5; i++ {
			assert.True(t, l.Allow())
		}
	})

	t.Run("denies over the cap", func(t *testing.T) {
		l := NewEventLimiter(3)
		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow())
		}
		assert.False(t, l.Allow())
		assert.False(t, l.Allow())
	})

	t.Run("zero cap disables limiting", func(t *testing.T) {
		l := NewEventLimiter(0)
		for i := 0; i < 1000; i++ {
			assert.True(t, l.Allow())
		}
	})

	t.Run("nil limiter allows", func(t *testing.T) {
		var l *EventLimiter
		assert.True(t, l.Allow())
	})
}
