package flows

import (
	"context"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
)

// Signup runs onboarding through OTP verification:
// GET STARTED → questionnaire → name, pronoun, country → steps 2 and 3 →
// OTP → Verify.
func Signup(ctx context.Context, sess core.Session, data config.Signup, opts Options) *Result {
	onboarding := pages.NewOnboardingPage(sess, opts.Timing, opts.Navigator)
	signup := pages.NewSignupPage(sess, opts.Timing)
	otp := pages.NewOtpPage(sess, opts.Timing)

	var nav *navigator.Result
	steps := []step{
		{"start onboarding", func(ctx context.Context) error { return onboarding.Start(ctx) }},
		{"complete questionnaire", func(ctx context.Context) error {
			r := onboarding.CompleteQuestionnaire(ctx)
			nav = &r
			return r.Err()
		}},
		{"fill name", func(ctx context.Context) error { return signup.FillStep1(ctx, data.FirstName, data.LastName) }},
		{"select pronoun", func(ctx context.Context) error { return signup.SelectPronoun(ctx, data.Pronoun) }},
		{"select country", func(ctx context.Context) error { return signup.SelectCountry(ctx, data.Country) }},
		{"complete step 2", func(ctx context.Context) error { return signup.CompleteStep2(ctx) }},
		{"complete step 3", func(ctx context.Context) error { return signup.CompleteStep3(ctx) }},
		{"enter OTP", func(ctx context.Context) error { return otp.EnterOTP(ctx, data.OTP) }},
		{"verify OTP", func(ctx context.Context) error { return otp.Submit(ctx) }},
	}

	out := run(ctx, "signup", opts, steps)
	out.Navigation = nav
	return out
}
