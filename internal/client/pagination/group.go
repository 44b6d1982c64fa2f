package pagination

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Resettable is the part of a Cursor that Refresh needs.
type Resettable interface {
	Name() string
	Reset()
	FetchNext(ctx context.Context) (bool, error)
}

// FetchError names the resource whose fetch failed.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Refresh resets every cursor, then fetches the first page of each
// concurrently and returns once all fetches have finished. Failures are
// joined as *FetchError values; one cursor failing does not cancel the
// others.
func Refresh(ctx context.Context, cursors ...Resettable) error {
	for _, c := range cursors {
		c.Reset()
	}

	errs := make([]error, len(cursors))
	var g errgroup.Group
	for i, c := range cursors {
		g.Go(func() error {
			if _, err := c.FetchNext(ctx); err != nil {
				errs[i] = &FetchError{Resource: c.Name(), Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
