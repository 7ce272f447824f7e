package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUpToPoints(t *testing.T) {
	l := New(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Consume("10.0.0.1"))
	}

	err := l.Consume("10.0.0.1")
	require.Error(t, err)

	var rlErr *Error
	require.True(t, errors.As(err, &rlErr))
	assert.Greater(t, rlErr.RetryAfterSeconds(), 0)
	assert.LessOrEqual(t, rlErr.RetryAfter, 15*time.Minute)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	require.NoError(t, l.Consume("10.0.0.1"))
	require.Error(t, l.Consume("10.0.0.1"))
	require.NoError(t, l.Consume("10.0.0.2"))
}

func TestLimiter_WindowResets(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Consume("10.0.0.1"))
	require.Error(t, l.Consume("10.0.0.1"))

	now = now.Add(time.Minute + time.Second)
	require.NoError(t, l.Consume("10.0.0.1"))
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	require.NoError(t, l.Consume("10.0.0.1"))
	require.Error(t, l.Consume("10.0.0.1"))

	l.Reset("10.0.0.1")
	require.NoError(t, l.Consume("10.0.0.1"))
}

func TestError_RetryAfterSeconds_AtLeastOne(t *testing.T) {
	e := &Error{RetryAfter: 10 * time.Millisecond}
	assert.Equal(t, 1, e.RetryAfterSeconds())
}
