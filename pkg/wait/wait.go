// Package wait implements bounded polling waits.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// DefaultInterval is used when a zero poll interval is given.
const DefaultInterval = 250 * time.Millisecond

// Condition is polled until it reports true. Recoverable errors (see
// core.IsRecoverable) count as "not yet"; any other error stops the wait.
type Condition func() (bool, error)

var errNotYet = errors.New("condition not met")

// For polls cond every interval until it holds or timeout elapses.
// A timeout <= 0 checks the condition exactly once.
func For(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	parent := ctx
	var b backoff.BackOff = &backoff.StopBackOff{}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		b = backoff.NewConstantBackOff(interval)
	}

	polls := 0
	op := func() error {
		polls++
		ok, err := cond()
		if err != nil {
			if !core.IsRecoverable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	// Cancellation by the caller is not a timeout.
	if err := parent.Err(); err != nil {
		return err
	}
	if !errors.Is(err, errNotYet) && !core.IsRecoverable(err) {
		return err
	}

	timeoutErr := core.ErrWaitTimeout.WithMessage(fmt.Sprintf("condition not met after %s (%d checks)", timeout, polls))
	if !errors.Is(err, errNotYet) {
		timeoutErr = timeoutErr.WithCause(err)
	}
	return timeoutErr
}

// ForScreen captures snapshots until pred holds and returns the matching
// snapshot.
func ForScreen(ctx context.Context, sess core.Session, pred screen.Predicate, timeout, interval time.Duration) (*screen.Snapshot, error) {
	var (
		last *screen.Snapshot
		desc string
	)
	err := For(ctx, timeout, interval, func() (bool, error) {
		snap, err := screen.Capture(sess)
		if err != nil {
			return false, core.ErrElementNotFound.WithCause(err)
		}
		last = snap
		var ok bool
		ok, desc = pred(snap)
		return ok, nil
	})
	if err != nil {
		if desc != "" {
			return last, fmt.Errorf("waiting for %s: %w", desc, err)
		}
		return last, err
	}
	return last, nil
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
