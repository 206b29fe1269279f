// Package suite runs the end-to-end test cases.
//
// Every case owns its session: setup opens it and waits for the app, the
// case runs its flow and assertions, teardown quits. Teardown errors are
// logged and never change the case outcome. With the skip flag set no
// session is opened at all.
package suite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/assert"
	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/driver/appium"
	"github.com/magnolia-collective/wellness-e2e/pkg/flows"
	"github.com/magnolia-collective/wellness-e2e/pkg/jsengine"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
	"github.com/magnolia-collective/wellness-e2e/pkg/report"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
	"github.com/magnolia-collective/wellness-e2e/pkg/wait"
)

// Opener creates a device session.
type Opener func(ctx context.Context, cfg *config.Config) (core.Session, error)

// OpenAppium opens an Appium session.
func OpenAppium(ctx context.Context, cfg *config.Config) (core.Session, error) {
	c, err := appium.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Runner executes cases and records them in a report.
type Runner struct {
	Config *config.Config
	Open   Opener

	// OutputDir receives report.json. Empty keeps the report in memory.
	OutputDir string

	detectors screen.Detectors
}

// New creates a runner. Screen detectors from the configuration are
// compiled here so a broken script fails before any session opens.
func New(cfg *config.Config, open Opener) (*Runner, error) {
	if open == nil {
		open = OpenAppium
	}
	dets, err := Detectors(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{Config: cfg, Open: open, detectors: dets}, nil
}

// Detectors returns the configured screen detectors followed by the
// built-in login and signup screens.
func Detectors(cfg *config.Config) (screen.Detectors, error) {
	custom, err := jsengine.New().Detectors(cfg.Detectors)
	if err != nil {
		return nil, core.ErrInvalidConfig.WithCause(err)
	}
	return append(custom,
		screen.Detector{Name: "login", Predicate: pages.LoginScreen},
		screen.Detector{Name: "signup", Predicate: pages.SignupStep},
	), nil
}

// Select resolves case names. No names selects every case.
func Select(names []string) ([]Case, error) {
	if len(names) == 0 {
		return Cases(), nil
	}
	var out []Case
	var unknown []string
	for _, name := range names {
		c, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, c)
	}
	if len(unknown) > 0 {
		return nil, core.ErrInvalidConfig.WithMessage(
			fmt.Sprintf("unknown case %s (available: %s)", strings.Join(unknown, ", "), strings.Join(Names(), ", ")))
	}
	return out, nil
}

// Run executes the named cases in order and returns the final report.
func (r *Runner) Run(ctx context.Context, names []string) (*report.Index, error) {
	cases, err := Select(names)
	if err != nil {
		return nil, err
	}

	caseNames := make([]string, len(cases))
	for i, c := range cases {
		caseNames[i] = c.Name
	}
	dev := r.Config.ActiveDevice()
	idx := report.NewIndex(report.Device{
		ID:          dev.UDID,
		Name:        dev.Name,
		Platform:    r.Config.Platform,
		OSVersion:   dev.PlatformVersion,
		IsSimulator: !r.Config.IsDevice(),
	}, report.App{ID: r.Config.AppID()}, r.Config.ServerURL(), caseNames)

	w := report.NewIndexWriter(r.OutputDir, idx)
	w.Start()
	for _, c := range cases {
		r.runCase(ctx, c, w)
	}
	w.End()

	out := w.Index()
	logger.Info("Run %s finished: %s (%d passed, %d warned, %d failed, %d errored, %d skipped)",
		out.RunID, out.Status, out.Summary.Passed, out.Summary.Warned, out.Summary.Failed, out.Summary.Errored, out.Summary.Skipped)
	return &out, nil
}

func (r *Runner) runCase(ctx context.Context, c Case, w *report.IndexWriter) {
	start := time.Now()
	log := logger.With(map[string]interface{}{"case": c.Name})
	finish := func(u *report.CaseUpdate) {
		end := time.Now()
		u.EndTime = &end
		w.UpdateCase(c.Name, u)
		log.Infof("finished: %s", u.Status)
	}

	if r.Config.Skip {
		log.Info("skipped (skip flag set)")
		w.UpdateCase(c.Name, &report.CaseUpdate{Status: report.StatusSkipped})
		return
	}

	w.UpdateCase(c.Name, &report.CaseUpdate{Status: report.StatusRunning, StartTime: &start})
	log.Info(c.Description)

	if c.Requires != nil {
		if err := c.Requires(r.Config); err != nil {
			finish(&report.CaseUpdate{Status: report.StatusErrored, Error: report.ErrorFrom(err)})
			return
		}
	}

	sess, err := r.Open(ctx, r.Config)
	if err != nil {
		finish(&report.CaseUpdate{Status: report.StatusErrored, Error: report.ErrorFrom(err)})
		return
	}
	defer func() {
		if err := sess.Quit(); err != nil {
			log.Errorf("teardown: %v", err)
		}
	}()

	env := r.newEnv(sess)
	if err := wait.Sleep(ctx, r.Config.Timing.AppReady); err != nil {
		finish(&report.CaseUpdate{Status: report.StatusErrored, Error: report.ErrorFrom(err)})
		return
	}

	c.Run(ctx, env)
	finish(env.update())
}

func (r *Runner) newEnv(sess core.Session) *Env {
	opts := flows.OptionsFrom(r.Config)
	opts.Skip = false
	opts.Navigator.Detectors = r.detectors
	return &Env{Session: sess, Config: r.Config, Options: opts}
}

// Env is what a case sees while it runs.
type Env struct {
	Session core.Session
	Config  *config.Config
	Options flows.Options

	flows    []*flows.Result
	outcomes []assert.Outcome
	err      error
}

// Flow records a flow result.
func (e *Env) Flow(r *flows.Result) *flows.Result {
	e.flows = append(e.flows, r)
	return r
}

// Check records an assertion outcome.
func (e *Env) Check(o assert.Outcome) {
	e.outcomes = append(e.outcomes, o)
}

// Pause waits d unless ctx ends first. An interrupted pause errors the case.
func (e *Env) Pause(ctx context.Context, d time.Duration) bool {
	if err := wait.Sleep(ctx, d); err != nil {
		e.err = err
		return false
	}
	return true
}

// update folds flows and outcomes into the case status. A failed
// assertion fails the case; warned flow steps only warn it.
func (e *Env) update() *report.CaseUpdate {
	u := &report.CaseUpdate{Status: report.StatusPassed, Steps: []report.Step{}, Assertions: []report.Assertion{}}

	var nav *navigator.Result
	for _, f := range e.flows {
		u.Steps = append(u.Steps, report.StepsFrom(f)...)
		if f.Status == core.StatusWarned {
			u.Status = report.StatusWarned
		}
		if f.Navigation != nil {
			nav = f.Navigation
		}
	}
	u.Navigation = nav

	for _, o := range e.outcomes {
		u.Assertions = append(u.Assertions, report.Assertion{Name: o.Name, Passed: o.Passed, Detail: o.Detail})
	}
	if err := assert.First(e.outcomes...); err != nil {
		u.Status = report.StatusFailed
		u.Error = report.ErrorFrom(err)
	}
	if e.err != nil {
		u.Status = report.StatusErrored
		u.Error = report.ErrorFrom(e.err)
	}
	return u
}
