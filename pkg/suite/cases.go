package suite

import (
	"context"
	"fmt"

	"github.com/magnolia-collective/wellness-e2e/pkg/assert"
	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/flows"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
)

// Case is one end-to-end test case.
type Case struct {
	Name        string
	Description string

	// Requires rejects a configuration the case cannot run with, before a
	// session is opened.
	Requires func(cfg *config.Config) error

	Run func(ctx context.Context, env *Env)
}

var cases = []Case{
	{
		Name:        "app-launch",
		Description: "app launches in the foreground",
		Run: func(ctx context.Context, env *Env) {
			if !env.Pause(ctx, env.Config.Timing.TransitionDelay) {
				return
			}
			env.Check(assert.AppLaunched(env.Session, env.Config.AppID()))
		},
	},
	{
		Name:        "device-capabilities",
		Description: "session reports platform, device and version",
		Run: func(ctx context.Context, env *Env) {
			env.Check(assert.CapabilitiesPresent(env.Session, assert.DeviceCapabilities...))
		},
	},
	{
		Name:        "login-valid",
		Description: "login with valid credentials reaches home",
		Requires:    requireCredentials("login", func(c *config.Config) config.Credentials { return c.Login }),
		Run: func(ctx context.Context, env *Env) {
			env.Flow(flows.Login(ctx, env.Session, env.Config.Login, env.Options))
			if !env.Pause(ctx, env.Config.Timing.PostSubmit) {
				return
			}
			env.Check(assert.HomeDisplayed(pages.NewHomePage(env.Session, env.Options.Timing)))
		},
	},
	{
		Name:        "login-invalid",
		Description: "login with invalid credentials is rejected",
		Requires:    requireCredentials("invalidLogin", func(c *config.Config) config.Credentials { return c.InvalidLogin }),
		Run: func(ctx context.Context, env *Env) {
			env.Flow(flows.Login(ctx, env.Session, env.Config.InvalidLogin, env.Options))
			if !env.Pause(ctx, env.Config.Timing.PostSubmit) {
				return
			}
			env.Check(assert.LoginRejected(
				pages.NewLoginPage(env.Session, env.Options.Timing),
				pages.NewHomePage(env.Session, env.Options.Timing),
			))
		},
	},
	{
		Name:        "signup",
		Description: "onboarding, signup and OTP end on the home screen",
		Run: func(ctx context.Context, env *Env) {
			env.Flow(flows.Signup(ctx, env.Session, env.Config.Signup, env.Options))
			if !env.Pause(ctx, env.Config.Timing.PostSubmit) {
				return
			}
			env.Check(assert.HomeDisplayed(pages.NewHomePage(env.Session, env.Options.Timing)))
		},
	},
}

func requireCredentials(field string, get func(*config.Config) config.Credentials) func(*config.Config) error {
	return func(cfg *config.Config) error {
		c := get(cfg)
		if c.Email == "" || c.Password == "" {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s.email and %s.password are required", field, field))
		}
		return nil
	}
}

// Cases returns every case in run order.
func Cases() []Case {
	return append([]Case(nil), cases...)
}

// Names returns the case names in run order.
func Names() []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.Name
	}
	return out
}

// Lookup finds a case by name.
func Lookup(name string) (Case, bool) {
	for _, c := range cases {
		if c.Name == name {
			return c, true
		}
	}
	return Case{}, false
}
