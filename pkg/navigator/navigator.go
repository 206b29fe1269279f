// Package navigator drives the app towards a target screen.
//
// Run is a bounded loop: capture a snapshot, stop if the target predicate
// holds, otherwise let the first applicable strategy perform one action and
// wait for the UI to settle. Strategies are tried in strict order every
// iteration and the first one that acts ends the iteration, whether or not
// the action advanced the app.
package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
	"github.com/magnolia-collective/wellness-e2e/pkg/wait"
)

// Defaults used when Options leave a field zero.
const (
	DefaultMaxAttempts = 20
	DefaultSettleDelay = 1500 * time.Millisecond
)

// Strategy is one way of acting on the current screen.
type Strategy interface {
	Name() string

	// Apply performs at most one interaction for the given attempt and
	// reports whether it acted. snap may be nil when the page source could
	// not be read. An error means the strategy did not apply.
	Apply(ctx context.Context, sess core.Session, snap *screen.Snapshot, attempt int) (Action, bool, error)
}

// Action records one interaction performed by a strategy.
type Action struct {
	Attempt  int    `json:"attempt"`
	Strategy string `json:"strategy"`
	Screen   string `json:"screen,omitempty"`
	Label    string `json:"label,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

func (a Action) String() string {
	if a.Label != "" {
		return fmt.Sprintf("#%d %s tap %q at (%d,%d)", a.Attempt, a.Strategy, a.Label, a.X, a.Y)
	}
	return fmt.Sprintf("#%d %s tap at (%d,%d)", a.Attempt, a.Strategy, a.X, a.Y)
}

// Options bound a run.
type Options struct {
	MaxAttempts int
	SettleDelay time.Duration

	// Detectors name the screen seen at each iteration in logs and actions.
	Detectors screen.Detectors

	// Sleep waits between iterations. Defaults to wait.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.Sleep == nil {
		o.Sleep = wait.Sleep
	}
	return o
}

// Result describes how a run ended. Exhaustion is reported here rather
// than returned as an error so callers decide whether it fails anything.
type Result struct {
	Reached    bool          `json:"reached"`
	Iterations int           `json:"iterations"`
	Target     string        `json:"target"`
	Actions    []Action      `json:"actions,omitempty"`
	Duration   time.Duration `json:"duration"`
	Canceled   bool          `json:"canceled,omitempty"`
}

// Err returns nil when the target was reached and an ErrAttemptsExhausted
// otherwise.
func (r Result) Err() error {
	if r.Reached {
		return nil
	}
	return core.ErrAttemptsExhausted.
		WithMessage(fmt.Sprintf("%s not reached after %d attempts", r.Target, r.Iterations)).
		WithDetails(map[string]interface{}{
			"iterations": r.Iterations,
			"actions":    len(r.Actions),
			"canceled":   r.Canceled,
		})
}

// Run navigates until target holds or opts.MaxAttempts iterations have
// run. Iterations counts the iterations that ended without reaching the
// target, so a target already shown yields zero iterations and no action.
func Run(ctx context.Context, sess core.Session, target screen.Predicate, strategies []Strategy, opts Options) Result {
	opts = opts.withDefaults()
	start := time.Now()
	res := Result{}

	check := func() (*screen.Snapshot, bool) {
		snap, err := screen.Capture(sess)
		if err != nil {
			logger.Debug("navigator: capture failed: %v", err)
			return nil, false
		}
		ok, desc := target(snap)
		res.Target = desc
		return snap, ok
	}

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}

		snap, ok := check()
		if ok {
			res.Reached = true
			break
		}

		name := screen.Unknown
		if snap != nil && len(opts.Detectors) > 0 {
			name = opts.Detectors.Detect(snap)
		}
		logger.Debug("navigator: attempt %d/%d on %s screen", attempt+1, opts.MaxAttempts, name)

		if act, taken := apply(ctx, sess, snap, attempt, strategies); taken {
			act.Screen = name
			res.Actions = append(res.Actions, act)
			logger.Info("navigator: %s", act)
		} else {
			logger.Debug("navigator: no strategy applied on attempt %d", attempt+1)
		}
		res.Iterations = attempt + 1

		if err := opts.Sleep(ctx, opts.SettleDelay); err != nil {
			res.Canceled = true
			break
		}
	}

	// Read-only check after the budget is spent.
	if !res.Reached && !res.Canceled {
		if _, ok := check(); ok {
			res.Reached = true
		}
	}

	res.Duration = time.Since(start)
	if res.Reached {
		logger.Info("navigator: reached %s after %d iterations", res.Target, res.Iterations)
	} else {
		logger.Warn("navigator: %s not reached after %d iterations", res.Target, res.Iterations)
	}
	return res
}

// apply tries the strategies in order and returns the first action taken.
func apply(ctx context.Context, sess core.Session, snap *screen.Snapshot, attempt int, strategies []Strategy) (Action, bool) {
	for _, s := range strategies {
		act, ok, err := s.Apply(ctx, sess, snap, attempt)
		if err != nil {
			logger.Debug("navigator: %s did not apply: %v", s.Name(), err)
			continue
		}
		if ok {
			act.Attempt = attempt
			if act.Strategy == "" {
				act.Strategy = s.Name()
			}
			return act, true
		}
	}
	return Action{}, false
}
