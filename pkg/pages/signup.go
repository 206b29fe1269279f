package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// SignupPage covers signup steps 1 to 3: name, pronoun and country, then
// two single-choice screens.
type SignupPage struct {
	Page
}

// NewSignupPage creates a signup page on the session.
func NewSignupPage(sess core.Session, timing config.Timing) *SignupPage {
	return &SignupPage{Page: newPage("signup", sess, timing)}
}

var visibleInput = screen.And(screen.Visible(), screen.Input())

// FillStep1 types the first and last name into the first two fields and
// continues. Continue is tapped even when the fields are missing.
func (p *SignupPage) FillStep1(ctx context.Context, first, last string) error {
	var errs []error

	snap, err := p.waitFor(ctx, func(s *screen.Snapshot) (bool, string) {
		return len(s.FindAll(visibleInput)) >= 2, "two name fields"
	})
	if err != nil {
		errs = append(errs, p.miss("name fields", core.ErrElementNotFound.WithMessage("name fields not found").WithCause(err)))
	} else {
		inputs := snap.FindAll(visibleInput)
		for i, value := range []string{first, last} {
			if err := p.typeInto(ctx, snap, inputs[i], value); err != nil {
				errs = append(errs, p.miss(fmt.Sprintf("name field %d", i+1), err))
			}
		}
		logger.Info("signup: entered name %s %s", first, last)
	}

	if err := p.Continue(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SelectPronoun taps the pronoun button with the given label.
func (p *SignupPage) SelectPronoun(ctx context.Context, pronoun string) error {
	return p.tapElement(ctx, fmt.Sprintf("pronoun %q", pronoun), p.timing.ActionDelay,
		screen.And(notInput, screen.TextEquals(pronoun)),
	)
}

// SelectCountry opens the country dropdown and taps the option closest to
// country. Options are matched by substring first, then by similarity so
// "United States" still finds "United States of America" or "USA " typos.
func (p *SignupPage) SelectCountry(ctx context.Context, country string) error {
	field, err := p.waitForElement(ctx, "country field",
		screen.And(screen.Input(), screen.TextContains("select country")),
		screen.TextContains("select country"),
	)
	if err != nil {
		return p.miss("country field", err)
	}
	if err := p.tap(field); err != nil {
		return p.miss("country field", err)
	}
	if err := p.pause(ctx, p.timing.TransitionDelay); err != nil {
		return err
	}

	var option *screen.Element
	_, err = p.waitFor(ctx, func(snap *screen.Snapshot) (bool, string) {
		option = countryOption(snap, country)
		return option != nil, fmt.Sprintf("country option %q", country)
	})
	if err != nil {
		return p.miss(fmt.Sprintf("country %q", country), core.ErrElementNotFound.WithMessage("country option not found").WithCause(err))
	}
	if err := p.tap(option); err != nil {
		return p.miss(fmt.Sprintf("country %q", country), err)
	}
	logger.Info("signup: selected country %s", option.DisplayText())
	return p.pause(ctx, p.timing.ActionDelay)
}

func countryOption(snap *screen.Snapshot, country string) *screen.Element {
	options := snap.FindAll(screen.And(screen.Visible(), isText, screen.Not(screen.TextContains("select country"))))
	for _, e := range options {
		if screen.TextContains(country)(e) {
			return e
		}
	}
	e, _ := screen.Closest(options, country, screen.DefaultFuzzyThreshold)
	return e
}

// CompleteStep2 picks the first option and continues.
func (p *SignupPage) CompleteStep2(ctx context.Context) error {
	return p.completeChoiceStep(ctx, "step 2")
}

// CompleteStep3 picks the first option and continues.
func (p *SignupPage) CompleteStep3(ctx context.Context) error {
	return p.completeChoiceStep(ctx, "step 3")
}

func (p *SignupPage) completeChoiceStep(ctx context.Context, step string) error {
	var errs []error
	if err := p.selectFirstOption(ctx, step); err != nil {
		errs = append(errs, err)
	}
	if err := p.Continue(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var optionContainer = screen.And(
	screen.Class("android.view.ViewGroup", "XCUIElementTypeCell"),
	screen.Clickable(),
	screen.Enabled(),
)

func (p *SignupPage) selectFirstOption(ctx context.Context, step string) error {
	var option *screen.Element
	_, err := p.waitFor(ctx, func(snap *screen.Snapshot) (bool, string) {
		option = nil
		for _, e := range snap.FindAll(screen.And(screen.Visible(), optionContainer)) {
			if !containsFold(containerText(e), "continue") {
				option = e
				break
			}
		}
		return option != nil, "selectable option"
	})
	if err != nil {
		return p.miss(step+" option", core.ErrElementNotFound.WithMessage("no selectable option").WithCause(err))
	}
	if err := p.tap(option); err != nil {
		return p.miss(step+" option", err)
	}
	logger.Info("signup: %s selected %q", step, containerText(option))
	return p.pause(ctx, p.timing.ActionDelay)
}

// Continue taps the enabled Continue button.
func (p *SignupPage) Continue(ctx context.Context) error {
	return continueButton(ctx, &p.Page)
}

func continueButton(ctx context.Context, p *Page) error {
	return p.tapElement(ctx, "Continue button", p.timing.TransitionDelay,
		screen.And(notInput, screen.TextEquals("Continue")),
		screen.And(notInput, screen.TextContains("continue")),
	)
}
