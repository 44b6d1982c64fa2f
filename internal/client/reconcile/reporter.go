package reconcile

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/notify"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/session"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

// Reporter turns failures into exactly one notification each. Unauthorized
// failures are handed to the sign-out hook instead, which owns the single
// notification for that case.
type Reporter struct {
	notifier       notify.Notifier
	log            logging.Logger
	onUnauthorized func(ctx context.Context, err error)
}

func NewReporter(n notify.Notifier, log logging.Logger, onUnauthorized func(ctx context.Context, err error)) *Reporter {
	return &Reporter{notifier: n, log: log, onUnauthorized: onUnauthorized}
}

// Fail reports err. ErrBusy and context cancellation are silent.
func (r *Reporter) Fail(ctx context.Context, err error, fallback string) {
	switch {
	case err == nil, errors.Is(err, ErrBusy), errors.Is(err, context.Canceled):
		return
	case session.IsUnauthorized(err) && r.onUnauthorized != nil:
		r.onUnauthorized(ctx, err)
		return
	}
	r.log.Warn(ctx, "action failed", "error", err)
	r.notifier.Notify(notify.Error, client.Message(err, fallback))
}

func (r *Reporter) Success(msg string) {
	r.notifier.Notify(notify.Success, msg)
}

func (r *Reporter) Info(msg string) {
	r.notifier.Notify(notify.Info, msg)
}

// failAll reports the failures joined in err. Several unauthorized failures
// collapse into one.
func (r *Reporter) failAll(ctx context.Context, err error, fallback func(error) string) {
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}
	unauthorized := false
	for _, e := range errs {
		if session.IsUnauthorized(e) {
			if unauthorized {
				continue
			}
			unauthorized = true
		}
		r.Fail(ctx, e, fallback(e))
	}
}
