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

// OtpPage is the one-time code screen: one field per digit.
type OtpPage struct {
	Page
}

// NewOtpPage creates an OTP page on the session.
func NewOtpPage(sess core.Session, timing config.Timing) *OtpPage {
	return &OtpPage{Page: newPage("otp", sess, timing)}
}

// EnterOTP types one digit into each field. Extra digits are dropped when
// the screen has fewer fields.
func (p *OtpPage) EnterOTP(ctx context.Context, code string) error {
	snap, err := p.waitFor(ctx, screen.HasElement("code fields", visibleInput))
	if err != nil {
		return p.miss("code fields", core.ErrElementNotFound.WithMessage("code fields not found").WithCause(err))
	}
	fields := snap.FindAll(visibleInput)

	var errs []error
	entered := 0
	for i, digit := range []rune(code) {
		if i >= len(fields) {
			logger.Warn("otp: %d fields for a %d digit code", len(fields), len([]rune(code)))
			break
		}
		if err := p.typeInto(ctx, snap, fields[i], string(digit)); err != nil {
			errs = append(errs, p.miss(fmt.Sprintf("code field %d", i+1), err))
			continue
		}
		entered++
	}
	logger.Info("otp: entered %d digits", entered)
	return errors.Join(errs...)
}

// Submit taps Verify.
func (p *OtpPage) Submit(ctx context.Context) error {
	return p.tapElement(ctx, "Verify button", p.timing.TransitionDelay,
		screen.And(notInput, screen.TextEquals("Verify")),
		screen.And(notInput, screen.TextContains("verify")),
	)
}
