// Package reconcile keeps fetched collections in step with single-item
// mutations made by the user.
//
// Every mutation runs under a Guard: at most one call per guarded resource is
// in flight, and a call arriving meanwhile is dropped with ErrBusy rather
// than queued.
package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusy is returned when a guarded operation is already in flight.
var ErrBusy = errors.New("operation already in progress")

// Guard is an Idle/InFlight flag. The zero value is Idle.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire moves Idle to InFlight and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *Guard) Release() {
	g.busy.Store(false)
}

func (g *Guard) InFlight() bool {
	return g.busy.Load()
}

// Guarded runs fn under g.
func Guarded(ctx context.Context, g *Guard, fn func(ctx context.Context) error) error {
	if !g.TryAcquire() {
		return ErrBusy
	}
	defer g.Release()
	return fn(ctx)
}

// Optimistic applies a local change, sends the request and reverts the
// change if the request fails. The whole sequence runs under g; revert runs
// before Optimistic returns.
func Optimistic(ctx context.Context, g *Guard, apply func(), request func(ctx context.Context) error, revert func()) error {
	if !g.TryAcquire() {
		return ErrBusy
	}
	defer g.Release()

	apply()
	if err := request(ctx); err != nil {
		revert()
		return err
	}
	return nil
}
