package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/driver/mock"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

var (
	fieldA  = core.Bounds{X: 90, Y: 800, Width: 900, Height: 140}
	fieldB  = core.Bounds{X: 90, Y: 1000, Width: 900, Height: 140}
	primary = core.Bounds{X: 90, Y: 1300, Width: 900, Height: 140}
	footer  = core.Bounds{X: 90, Y: 1900, Width: 900, Height: 140}
)

func at(n mock.Node, b core.Bounds) mock.Node {
	n.Bounds = b
	return n
}

func input(hint string, b core.Bounds) mock.Node { return at(mock.Input(hint, 0, 0, 0, 0), b) }

func button(text string, b core.Bounds) mock.Node { return at(mock.Button(text, 0, 0, 0, 0), b) }

func testOptions() Options {
	return Options{
		Navigator: navigator.Options{
			MaxAttempts: 10,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
	}
}

var screens = map[string]string{
	"welcome": mock.AndroidSource(
		mock.Text("Welcome to MAGNOLIA", 90, 300, 900, 100),
		button("GET STARTED", primary),
		button("ALREADY A MEMBER", footer),
	),
	"email": mock.AndroidSource(
		input("Email or phone", fieldA),
		button("Enter Password", primary),
	),
	"password": mock.AndroidSource(
		mock.Node{Class: "android.widget.EditText", Hint: "Password", Password: true, Clickable: true, Bounds: fieldA},
		button("Login", primary),
	),
	"question": mock.AndroidSource(
		mock.Text("What brings you here?", 90, 300, 900, 100),
		mock.Card("Sleep", 90, 500, 900, 160),
		button("Continue", footer),
	),
	"name": mock.AndroidSource(
		mock.Text("Let's tailor this for you", 90, 300, 900, 100),
		input("First name", fieldA),
		input("Last name", fieldB),
		button("Continue", footer),
	),
	"profile": mock.AndroidSource(
		button("She/Her", fieldA),
		input("Select Country", fieldB),
	),
	"countries": mock.AndroidSource(
		mock.Text("Canada", 90, 900, 900, 100),
		mock.Text("United States", 90, 1100, 900, 100),
	),
	"step2": mock.AndroidSource(
		mock.Card("Yes", 90, 700, 900, 160),
		button("Continue", footer),
	),
	"step3": mock.AndroidSource(
		mock.Card("Daily", 90, 700, 900, 160),
		button("Continue", footer),
	),
	"otp": mock.AndroidSource(
		input("", core.Bounds{X: 90, Y: 800, Width: 180, Height: 180}),
		input("", core.Bounds{X: 330, Y: 800, Width: 180, Height: 180}),
		input("", core.Bounds{X: 570, Y: 800, Width: 180, Height: 180}),
		input("", core.Bounds{X: 810, Y: 800, Width: 180, Height: 180}),
		button("Verify", footer),
	),
	"home": mock.AndroidSource(
		mock.Text("Welcome, Test", 90, 300, 900, 100),
		button("Home", core.Bounds{X: 0, Y: 2250, Width: 540, Height: 150}),
	),
}

// app is a scripted Magnolia app: each state moves on when its control is tapped.
type app struct {
	*mock.Session
	state     string
	questions int
}

func newApp(state string) *app {
	a := &app{Session: mock.New(mock.Config{Source: screens[state]}), state: state}
	a.Register(core.ClassName("android.widget.EditText"),
		&mock.Element{ID: "f1"}, &mock.Element{ID: "f2"}, &mock.Element{ID: "f3"}, &mock.Element{ID: "f4"})
	a.OnTap = a.tap
	return a
}

func (a *app) goTo(state string) {
	a.state = state
	a.SetSource(screens[state])
}

func (a *app) tap(_ *mock.Session, x, y int) {
	in := func(b core.Bounds) bool { return b.Contains(x, y) }
	switch {
	case a.state == "welcome" && in(footer):
		a.goTo("email")
	case a.state == "welcome" && in(primary):
		a.goTo("question")
	case a.state == "email" && in(primary):
		a.goTo("password")
	case a.state == "password" && in(primary):
		a.goTo("home")
	case a.state == "question" && in(footer):
		a.questions++
		if a.questions == 2 {
			a.goTo("name")
		}
	case a.state == "name" && in(footer):
		a.goTo("profile")
	case a.state == "profile" && in(fieldB):
		a.goTo("countries")
	case a.state == "countries" && y >= 1100 && y < 1200:
		a.goTo("step2")
	case a.state == "step2" && in(footer):
		a.goTo("step3")
	case a.state == "step3" && in(footer):
		a.goTo("otp")
	case a.state == "otp" && in(footer):
		a.goTo("home")
	}
}

func TestLogin(t *testing.T) {
	a := newApp("welcome")
	var seen []string
	opts := testOptions()
	opts.OnStep = func(s StepResult) { seen = append(seen, s.Name) }

	res := Login(context.Background(), a, config.Credentials{Email: "test@magnolia.com", Password: "secret"}, opts)

	if res.Status != core.StatusPassed {
		t.Errorf("status = %s, steps = %+v", res.Status, res.Steps)
	}
	if len(res.Steps) != 5 || len(seen) != 5 {
		t.Fatalf("steps = %d, callbacks = %d, want 5", len(res.Steps), len(seen))
	}
	if a.state != "home" {
		t.Errorf("app ended on %s, want home", a.state)
	}
	if a.Value("f1") != "secret" {
		t.Errorf("last typed value = %q", a.Value("f1"))
	}
}

func TestLogin_ContinuesOnMisses(t *testing.T) {
	sess := mock.New(mock.Config{Source: mock.AndroidSource(mock.Text("Something else", 90, 300, 900, 100))})

	res := Login(context.Background(), sess, config.Credentials{Email: "a", Password: "b"}, testOptions())

	if res.Status != core.StatusWarned {
		t.Errorf("status = %s, want warned", res.Status)
	}
	if len(res.Steps) != 5 {
		t.Fatalf("steps = %d, want every step attempted", len(res.Steps))
	}
	for _, s := range res.Steps {
		if s.Status != core.StatusWarned || s.Error == "" {
			t.Errorf("step %q = %s (%q), want warned with error", s.Name, s.Status, s.Error)
		}
	}
	if len(res.Warnings()) != 5 {
		t.Errorf("warnings = %d", len(res.Warnings()))
	}
}

func TestSkip(t *testing.T) {
	opts := testOptions()
	opts.Skip = true

	for name, fn := range map[string]func(core.Session) *Result{
		"login":  func(s core.Session) *Result { return Login(context.Background(), s, config.Credentials{}, opts) },
		"signup": func(s core.Session) *Result { return Signup(context.Background(), s, config.Signup{}, opts) },
	} {
		t.Run(name, func(t *testing.T) {
			sess := mock.New(mock.Config{})
			res := fn(sess)
			if res.Status != core.StatusSkipped {
				t.Errorf("status = %s", res.Status)
			}
			if n := sess.CallCount(""); n != 0 {
				t.Errorf("session calls = %d, want 0: %v", n, sess.Calls())
			}
			for _, s := range res.Steps {
				if s.Status != core.StatusSkipped {
					t.Errorf("step %q = %s", s.Name, s.Status)
				}
			}
		})
	}
}

func TestSkipWithoutSession(t *testing.T) {
	opts := testOptions()
	opts.Skip = true
	if res := Signup(context.Background(), nil, config.Signup{}, opts); res.Status != core.StatusSkipped {
		t.Errorf("status = %s", res.Status)
	}
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := testOptions()
	opts.OnStep = func(StepResult) { cancel() }

	res := Login(ctx, newApp("welcome"), config.Credentials{Email: "a", Password: "b"}, opts)

	if len(res.Steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(res.Steps))
	}
	for _, s := range res.Steps[1:] {
		if s.Status != core.StatusSkipped {
			t.Errorf("step %q = %s, want skipped", s.Name, s.Status)
		}
	}
}

func TestSignup(t *testing.T) {
	a := newApp("welcome")
	data := config.Default().Signup

	res := Signup(context.Background(), a, data, testOptions())

	if res.Status != core.StatusPassed {
		for _, s := range res.Steps {
			t.Logf("%s: %s %s", s.Name, s.Status, s.Error)
		}
		t.Fatalf("status = %s", res.Status)
	}
	if len(res.Steps) != 9 {
		t.Errorf("steps = %d, want 9", len(res.Steps))
	}
	if res.Navigation == nil || !res.Navigation.Reached || res.Navigation.Iterations != 2 {
		t.Errorf("navigation = %+v", res.Navigation)
	}
	if a.state != "home" {
		t.Errorf("app ended on %s, want home", a.state)
	}
	for i, want := range []string{"1", "2", "3", "4"} {
		id := []string{"f1", "f2", "f3", "f4"}[i]
		if got := a.Value(id); got != want {
			t.Errorf("otp field %s = %q, want %q", id, got, want)
		}
	}

	snap, err := screen.Capture(a)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := pages.HomeScreen(snap); !ok {
		t.Error("home screen not shown at the end")
	}
}

func TestSignup_QuestionnaireExhaustedIsAWarning(t *testing.T) {
	a := newApp("question")
	a.OnTap = nil // nothing ever advances
	opts := testOptions()
	opts.Navigator.MaxAttempts = 4

	res := Signup(context.Background(), a, config.Default().Signup, opts)

	if res.Status != core.StatusWarned {
		t.Errorf("status = %s", res.Status)
	}
	q := res.Steps[1]
	if q.Name != "complete questionnaire" || q.Status != core.StatusWarned {
		t.Errorf("questionnaire step = %+v", q)
	}
	if res.Navigation == nil || res.Navigation.Iterations != 4 {
		t.Errorf("navigation = %+v", res.Navigation)
	}
	if !errors.Is(res.Navigation.Err(), core.ErrAttemptsExhausted) {
		t.Errorf("navigation err = %v", res.Navigation.Err())
	}
	if len(res.Steps) != 9 {
		t.Errorf("steps = %d, flow should run to the end", len(res.Steps))
	}
}

func TestOptionsFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Skip = true
	opts := OptionsFrom(cfg)
	if !opts.Skip || opts.Navigator.MaxAttempts != 20 || opts.Navigator.SettleDelay != 1500*time.Millisecond {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Timing != cfg.Timing {
		t.Errorf("timing = %+v", opts.Timing)
	}
}
