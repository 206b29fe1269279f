// Package flows holds the scripted user journeys: fixed step sequences over
// the page objects.
//
// A flow never stops at a failed step. Each step is recorded as passed or
// warned and the next one runs; deciding whether the journey worked is
// left to the assertions that follow.
package flows

import (
	"context"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
)

// Options configure a flow run.
type Options struct {
	// Skip returns a skipped result without touching the session.
	Skip bool

	Timing    config.Timing
	Navigator navigator.Options

	// OnStep is called after every step.
	OnStep func(StepResult)
}

// OptionsFrom builds flow options from the suite configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Skip:   cfg.Skip,
		Timing: cfg.Timing,
		Navigator: navigator.Options{
			MaxAttempts: cfg.Navigator.MaxAttempts,
			SettleDelay: cfg.Navigator.SettleDelay,
		},
	}
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string          `json:"name"`
	Status   core.StepStatus `json:"status"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Result is the outcome of a flow.
type Result struct {
	Name     string          `json:"name"`
	Status   core.StepStatus `json:"status"`
	Steps    []StepResult    `json:"steps"`
	Duration time.Duration   `json:"duration"`

	// Navigation is set by flows that run the navigator.
	Navigation *navigator.Result `json:"navigation,omitempty"`
}

// Warnings returns the steps that did not complete cleanly.
func (r *Result) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == core.StatusWarned {
			out = append(out, s)
		}
	}
	return out
}

// step is one named action of a flow.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// run executes steps in order. A failing step is logged and marked warned.
// Cancellation marks the remaining steps skipped.
func run(ctx context.Context, name string, opts Options, steps []step) *Result {
	start := time.Now()
	res := &Result{Name: name, Status: core.StatusPassed}

	if opts.Skip {
		logger.Info("%s: skipped", name)
		res.Status = core.StatusSkipped
		for _, s := range steps {
			res.Steps = append(res.Steps, StepResult{Name: s.name, Status: core.StatusSkipped})
		}
		return res
	}

	logger.Info("%s: starting (%d steps)", name, len(steps))
	for i, s := range steps {
		if ctx.Err() != nil {
			for _, rest := range steps[i:] {
				res.Steps = append(res.Steps, StepResult{Name: rest.name, Status: core.StatusSkipped, Error: ctx.Err().Error()})
			}
			res.Status = core.StatusWarned
			logger.Warn("%s: canceled before %q", name, s.name)
			break
		}

		stepStart := time.Now()
		sr := StepResult{Name: s.name, Status: core.StatusPassed}
		if err := s.run(ctx); err != nil {
			sr.Status = core.StatusWarned
			sr.Error = err.Error()
			res.Status = core.StatusWarned
			logger.Warn("%s: step %d %q: %v (continuing)", name, i+1, s.name, err)
		} else {
			logger.Info("%s: step %d %q passed", name, i+1, s.name)
		}
		sr.Duration = time.Since(stepStart)
		res.Steps = append(res.Steps, sr)
		if opts.OnStep != nil {
			opts.OnStep(sr)
		}
	}

	res.Duration = time.Since(start)
	logger.Info("%s: finished %s in %s", name, res.Status, res.Duration.Round(time.Millisecond))
	return res
}
