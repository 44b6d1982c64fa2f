package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	var g Guard
	assert.False(t, g.InFlight())
	require.True(t, g.TryAcquire())
	assert.True(t, g.InFlight())
	assert.False(t, g.TryAcquire())
	g.Release()
	assert.True(t, g.TryAcquire())
}

func TestGuarded_RejectsReentry(t *testing.T) {
	var g Guard
	inner := errors.New("not reached")

	err := Guarded(context.Background(), &g, func(ctx context.Context) error {
		err := Guarded(ctx, &g, func(context.Context) error { return inner })
		assert.ErrorIs(t, err, ErrBusy)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, g.InFlight())
}

func TestOptimistic(t *testing.T) {
	t.Run("success keeps change", func(t *testing.T) {
		var g Guard
		state := false
		err := Optimistic(context.Background(), &g,
			func() { state = true },
			func(context.Context) error {
				assert.True(t, state, "applied before request")
				return nil
			},
			func() { state = false },
		)
		require.NoError(t, err)
		assert.True(t, state)
	})

	t.Run("failure reverts", func(t *testing.T) {
		var g Guard
		state := false
		boom := errors.New("boom")
		err := Optimistic(context.Background(), &g,
			func() { state = true },
			func(context.Context) error { return boom },
			func() { state = false },
		)
		assert.ErrorIs(t, err, boom)
		assert.False(t, state)
		assert.False(t, g.InFlight())
	})

	t.Run("busy drops without applying", func(t *testing.T) {
		var g Guard
		require.True(t, g.TryAcquire())
		applied := false
		err := Optimistic(context.Background(), &g,
			func() { applied = true },
			func(context.Context) error { return nil },
			func() {},
		)
		assert.ErrorIs(t, err, ErrBusy)
		assert.False(t, applied)
	})
}
