package pages

import (
	"context"
	"errors"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// Substrings that mark a login error message.
var errorMarkers = []string{"error", "invalid", "incorrect", "failed", "⚠"}

// LoginPage is the welcome screen and the two-step login form
// (email or phone, then password).
type LoginPage struct {
	Page
}

// NewLoginPage creates a login page on the session.
func NewLoginPage(sess core.Session, timing config.Timing) *LoginPage {
	return &LoginPage{Page: newPage("login", sess, timing)}
}

// HandleWelcome taps ALREADY A MEMBER when the welcome screen is shown.
// A missing button means the app already shows the login form.
func (p *LoginPage) HandleWelcome(ctx context.Context) error {
	if err := p.pause(ctx, p.timing.AppReady); err != nil {
		return err
	}
	e, err := p.waitForElement(ctx, "ALREADY A MEMBER button",
		screen.TextEquals("ALREADY A MEMBER"),
		screen.TextContains("already"),
	)
	if err != nil {
		logger.Info("login: welcome screen not shown, assuming login form")
		return err
	}
	if err := p.tap(e); err != nil {
		return p.miss("ALREADY A MEMBER button", err)
	}
	logger.Info("login: navigated to login screen")
	return p.pause(ctx, p.timing.TransitionDelay)
}

func (p *LoginPage) emailInput(ctx context.Context) (*screen.Snapshot, *screen.Element, error) {
	snap, err := p.waitFor(ctx, screen.HasElement("input field", screen.And(screen.Visible(), screen.Input())))
	if err != nil {
		return nil, nil, core.ErrElementNotFound.WithMessage("email or phone input not found").WithCause(err)
	}
	e := firstOf(snap,
		screen.And(screen.Input(), screen.Or(screen.TextContains("email"), screen.TextContains("phone"), screen.TextContains("@"))),
		screen.Input(),
	)
	return snap, e, nil
}

// EnterEmailOrPhone types into the email or phone field.
func (p *LoginPage) EnterEmailOrPhone(ctx context.Context, value string) error {
	snap, e, err := p.emailInput(ctx)
	if err != nil {
		return p.miss("email or phone input", err)
	}
	if err := p.typeInto(ctx, snap, e, value); err != nil {
		return p.miss("email or phone input", err)
	}
	logger.Info("login: entered email/phone %s", value)
	return nil
}

// ClickEnterPassword moves from the email step to the password step.
func (p *LoginPage) ClickEnterPassword(ctx context.Context) error {
	return p.tapElement(ctx, "Enter Password button", p.timing.TransitionDelay,
		screen.And(notInput, screen.TextEquals("Enter Password")),
		screen.And(notInput, screen.TextContains("password")),
	)
}

func (p *LoginPage) passwordInput(ctx context.Context) (*screen.Snapshot, *screen.Element, error) {
	snap, err := p.waitFor(ctx, screen.HasElement("input field", screen.And(screen.Visible(), screen.Input())))
	if err != nil {
		return nil, nil, core.ErrElementNotFound.WithMessage("password input not found").WithCause(err)
	}
	e := firstOf(snap,
		screen.And(screen.Input(), screen.TextContains("password")),
		screen.SecureInput(),
	)
	if e == nil {
		inputs := snap.FindAll(screen.And(screen.Visible(), screen.Input()))
		e = inputs[len(inputs)-1]
	}
	return snap, e, nil
}

// EnterPassword types into the password field: the field hinted as a
// password, else the secure field, else the last field on screen.
func (p *LoginPage) EnterPassword(ctx context.Context, password string) error {
	snap, e, err := p.passwordInput(ctx)
	if err != nil {
		return p.miss("password input", err)
	}
	if err := p.typeInto(ctx, snap, e, password); err != nil {
		return p.miss("password input", err)
	}
	logger.Info("login: entered password")
	return nil
}

// HideKeyboard dismisses the keyboard. It tries the driver call, then on
// iOS the keyboard Done button, then a tap on the app title, then a tap on
// a non-interactive background view.
func (p *LoginPage) HideKeyboard(ctx context.Context) error {
	err := p.sess.HideKeyboard()
	if err == nil {
		logger.Debug("login: keyboard hidden by driver")
		return p.pause(ctx, p.timing.ActionDelay)
	}
	logger.Debug("login: driver hide keyboard failed: %v", err)

	if p.isIOS() {
		if ids, ferr := p.sess.FindElements(core.AccessibilityID("Done")); ferr == nil && len(ids) > 0 {
			if cerr := p.sess.Click(ids[0]); cerr == nil {
				logger.Debug("login: keyboard hidden with Done")
				return p.pause(ctx, p.timing.ActionDelay)
			}
		}
	}

	snap, serr := p.snapshot()
	if serr != nil {
		return p.miss("keyboard", serr)
	}

	title := firstOf(snap,
		screen.And(isText, screen.Or(screen.TextContains("MAGNOLIA"), screen.TextContains("Welcome"))),
	)
	if title != nil {
		x, y := title.Center()
		if terr := p.sess.Tap(x, y); terr == nil {
			logger.Debug("login: keyboard hidden by tapping the title")
			return p.pause(ctx, p.timing.ActionDelay)
		}
	}

	background := screen.And(screen.Class("android.view.View"), screen.Not(screen.Clickable()))
	if p.isIOS() {
		background = screen.And(screen.Class("XCUIElementTypeOther"), screen.Enabled())
	}
	if bg := firstOf(snap, background); bg != nil {
		x, y := bg.Center()
		if terr := p.sess.Tap(x, y); terr == nil {
			logger.Debug("login: keyboard hidden by tapping the background")
			return p.pause(ctx, p.timing.ActionDelay)
		}
	}

	return p.miss("keyboard", core.ErrElementNotFound.WithMessage("no way to dismiss the keyboard").WithCause(err))
}

// TapLogin hides the keyboard and submits the form.
func (p *LoginPage) TapLogin(ctx context.Context) error {
	if err := p.HideKeyboard(ctx); err != nil {
		logger.Info("login: continuing with keyboard shown")
	}
	if err := p.pause(ctx, p.timing.ActionDelay); err != nil {
		return err
	}
	return p.tapElement(ctx, "Login button", 0,
		screen.And(notInput, screen.TextEquals("Login")),
		screen.And(notInput, screen.TextContains("login")),
	)
}

// ForgotPassword taps the Forgot Password link.
func (p *LoginPage) ForgotPassword(ctx context.Context) error {
	return p.tapElement(ctx, "Forgot Password link", p.timing.TransitionDelay,
		screen.And(notInput, screen.TextContains("forgot")),
	)
}

// Login runs the whole login sequence. Every step runs even when an
// earlier one missed; the misses are joined into the returned error.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	var errs []error
	for _, step := range []func(context.Context) error{
		p.HandleWelcome,
		func(ctx context.Context) error { return p.EnterEmailOrPhone(ctx, email) },
		p.ClickEnterPassword,
		func(ctx context.Context) error { return p.EnterPassword(ctx, password) },
		p.TapLogin,
	} {
		if err := step(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// errorMessage returns the displayed error element, or nil.
func errorMessage(snap *screen.Snapshot) *screen.Element {
	markers := make([]screen.Match, 0, len(errorMarkers))
	for _, m := range errorMarkers {
		markers = append(markers, screen.TextContains(m))
	}
	return firstOf(snap, screen.And(notInput, screen.Or(markers...)))
}

// IsErrorDisplayed reports whether a login error message is visible.
func (p *LoginPage) IsErrorDisplayed() bool {
	snap, err := p.snapshot()
	if err != nil {
		return false
	}
	return errorMessage(snap) != nil
}

// ErrorText returns the visible error message, or "".
func (p *LoginPage) ErrorText() string {
	snap, err := p.snapshot()
	if err != nil {
		return ""
	}
	e := errorMessage(snap)
	if e == nil {
		return ""
	}
	if e.Text == "" && e.Label == "" {
		// error container described by content-desc; read its text child
		for _, c := range e.Children {
			if t := containerText(c); t != "" {
				return t
			}
		}
	}
	return e.DisplayText()
}
