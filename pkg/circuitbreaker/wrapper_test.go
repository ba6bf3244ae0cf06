package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/config"
)

func TestWrapper_TripsOpen(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-trip"))
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := w.ExecuteWithContext(ctx, func() (interface{}, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.True(t, w.IsOpen())
	_, err := w.ExecuteWithContext(ctx, func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestWrapper_CanceledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-ctx"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := w.ExecuteWithContext(ctx, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestFromConfig(t *testing.T) {
	c := FromConfig("boundary", config.CircuitBreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Second,
		FailureRatio: 1,
		MinRequests:  1,
	})
	assert.Equal(t, "boundary", c.Name)
	assert.Equal(t, uint32(1), c.MaxRequests)
	assert.Equal(t, time.Second, c.Timeout)
	assert.Equal(t, 60*time.Second, c.Interval)

	assert.True(t, c.ReadyToTrip(gobreaker.Counts{Requests: 1, TotalFailures: 1}))
	assert.False(t, c.ReadyToTrip(gobreaker.Counts{Requests: 2, TotalFailures: 1}))

	d := FromConfig("defaults", config.CircuitBreakerConfig{})
	assert.False(t, d.ReadyToTrip(gobreaker.Counts{Requests: 2, TotalFailures: 2}))
	assert.True(t, d.ReadyToTrip(gobreaker.Counts{Requests: 4, TotalFailures: 2}))
}
