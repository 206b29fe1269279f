package flows

import (
	"context"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
)

// Login signs in with email or phone and password:
// welcome → email → Enter Password → password → Login.
func Login(ctx context.Context, sess core.Session, creds config.Credentials, opts Options) *Result {
	return run(ctx, "login", opts, loginSteps(pages.NewLoginPage(sess, opts.Timing), creds))
}

func loginSteps(page *pages.LoginPage, creds config.Credentials) []step {
	return []step{
		{"handle welcome screen", func(ctx context.Context) error { return page.HandleWelcome(ctx) }},
		{"enter email or phone", func(ctx context.Context) error { return page.EnterEmailOrPhone(ctx, creds.Email) }},
		{"tap Enter Password", func(ctx context.Context) error { return page.ClickEnterPassword(ctx) }},
		{"enter password", func(ctx context.Context) error { return page.EnterPassword(ctx, creds.Password) }},
		{"tap Login", func(ctx context.Context) error { return page.TapLogin(ctx) }},
	}
}
