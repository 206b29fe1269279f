package pages

import (
	"context"
	"fmt"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// Tab is a bottom navigation destination.
type Tab string

const (
	TabAppointments Tab = "Appointments"
	TabProgress     Tab = "Progress"
	TabMore         Tab = "More"
	TabProfile      Tab = "Profile"
)

// LoginScreen matches the login form.
var LoginScreen = screen.Any(
	screen.HasExactText("Login"),
	screen.HasText("email"),
	screen.HasText("phone"),
)

// HomeScreen matches the home screen. Any one signal is enough: the
// welcome greeting, the Home tab, appointment cards, or simply not being
// on the login form.
var HomeScreen = screen.Any(
	screen.HasText("Welcome"),
	screen.HasExactText("Home"),
	screen.HasText("Appointment"),
	screen.NotScreen(LoginScreen),
)

// HomePage is the landing screen after login or signup.
type HomePage struct {
	Page
}

// NewHomePage creates a home page on the session.
func NewHomePage(sess core.Session, timing config.Timing) *HomePage {
	return &HomePage{Page: newPage("home", sess, timing)}
}

// IsDisplayed checks the current screen once. The description names the
// signal that matched.
func (p *HomePage) IsDisplayed() (bool, string) {
	snap, err := p.snapshot()
	if err != nil {
		logger.Warn("home: %v", err)
		return false, err.Error()
	}
	ok, desc := HomeScreen(snap)
	if ok {
		logger.Info("home: detected (%s)", desc)
	}
	return ok, desc
}

// WaitFor waits until the home screen is shown.
func (p *HomePage) WaitFor(ctx context.Context) error {
	_, err := p.waitFor(ctx, HomeScreen)
	return err
}

// NavigateTo taps a bottom navigation tab.
func (p *HomePage) NavigateTo(ctx context.Context, tab Tab) error {
	desc := fmt.Sprintf("%s tab", tab)
	switch tab {
	case TabAppointments:
		return p.tapElement(ctx, desc, p.timing.TransitionDelay,
			screen.TextEquals("Appointment"),
			screen.TextContains("appointment"),
		)
	case TabProgress, TabMore:
		return p.tapElement(ctx, desc, p.timing.TransitionDelay, screen.TextEquals(string(tab)))
	case TabProfile:
		return p.tapElement(ctx, desc, p.timing.TransitionDelay,
			screen.TextEquals("Profile"),
			screen.And(screen.Class("android.widget.ImageView", "XCUIElementTypeImage"), screen.Enabled()),
		)
	}
	return core.ErrElementNotFound.WithMessage(fmt.Sprintf("unknown tab %q", tab))
}
