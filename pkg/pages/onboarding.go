package pages

import (
	"context"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// SignupStep is shown once the questionnaire is done.
var SignupStep = screen.Any(
	screen.HasText("Let's tailor this for you"),
	screen.HasText("This is your space"),
)

// OnboardingPage is the welcome screen and the questionnaire that follows
// GET STARTED. Questions vary between builds, so the questionnaire is
// answered by the navigator rather than a fixed script.
type OnboardingPage struct {
	Page
	nav navigator.Options
}

// NewOnboardingPage creates an onboarding page. nav bounds the
// questionnaire run.
func NewOnboardingPage(sess core.Session, timing config.Timing, nav navigator.Options) *OnboardingPage {
	return &OnboardingPage{Page: newPage("onboarding", sess, timing), nav: nav}
}

// Start taps GET STARTED.
func (p *OnboardingPage) Start(ctx context.Context) error {
	return p.tapElement(ctx, "GET STARTED button", p.timing.TransitionDelay,
		screen.TextEquals("GET STARTED"),
		screen.TextContains("get started"),
	)
}

// CompleteQuestionnaire answers questions until the first signup step is
// shown or the attempt budget is spent. Exhaustion is reported in the
// result, not returned as an error.
func (p *OnboardingPage) CompleteQuestionnaire(ctx context.Context) navigator.Result {
	res := navigator.Run(ctx, p.sess, SignupStep, navigator.Questionnaire(), p.nav)
	if res.Reached {
		logger.Info("onboarding: questionnaire done after %d iterations", res.Iterations)
	} else {
		logger.Warn("onboarding: questionnaire not finished after %d iterations", res.Iterations)
	}
	return res
}
