package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BlocksAfterBurst(t *testing.T) {
	l := NewKeyedLimiter(1, 3)
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("alice"), "attempt %d should pass", i+1)
	}
	assert.False(t, l.Allow("alice"), "attempt past burst should be blocked")
}

func TestKeyedLimiter_ClampsNonPositiveConfig(t *testing.T) {
	l := NewKeyedLimiter(0, 0)
	defer l.Close()

	assert.True(t, l.Allow("alice"), "clamped limiter must still admit one attempt")
	assert.False(t, l.Allow("alice"))
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	l := NewKeyedLimiter(1, 1)
	defer l.Close()

	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
	assert.True(t, l.Allow("bob"))
}
