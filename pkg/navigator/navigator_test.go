package navigator

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/driver/mock"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

var (
	blankSource  = mock.AndroidSource()
	targetSource = mock.AndroidSource(mock.Text("Let's tailor this for you", 0, 100, 1080, 100))
	target       = screen.HasText("Let's tailor this for you")
)

// noSleep records settle delays without waiting.
type noSleep struct {
	calls  int
	delays []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.calls++
	n.delays = append(n.delays, d)
	return nil
}

func opts(max int, s *noSleep) Options {
	return Options{MaxAttempts: max, SettleDelay: 1500 * time.Millisecond, Sleep: s.sleep}
}

func TestRunTargetAlreadyShown(t *testing.T) {
	sess := mock.New(mock.Config{Source: targetSource})
	s := &noSleep{}

	res := Run(context.Background(), sess, target, Questionnaire(), opts(20, s))

	if !res.Reached {
		t.Fatal("expected target reached")
	}
	if res.Iterations != 0 || len(res.Actions) != 0 {
		t.Errorf("iterations=%d actions=%d, want 0/0", res.Iterations, len(res.Actions))
	}
	if sess.Interactions() != 0 {
		t.Errorf("expected no interactions, got %v", sess.Calls())
	}
	if s.calls != 0 {
		t.Errorf("expected no settle delay, got %d", s.calls)
	}
	if res.Err() != nil {
		t.Errorf("Err() = %v", res.Err())
	}
}

func TestRunExhaustion(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	s := &noSleep{}

	res := Run(context.Background(), sess, target, Questionnaire(), opts(20, s))

	if res.Reached {
		t.Fatal("target should not be reached")
	}
	if res.Iterations != 20 {
		t.Errorf("iterations = %d, want 20", res.Iterations)
	}
	if taps := len(sess.Taps()); taps > 20 {
		t.Errorf("taps = %d, want <= 20", taps)
	}
	if s.calls != 20 {
		t.Errorf("settle delays = %d, want 20", s.calls)
	}
	for _, d := range s.delays {
		if d != 1500*time.Millisecond {
			t.Errorf("settle delay = %s", d)
		}
	}
	err := res.Err()
	if !errors.Is(err, core.ErrAttemptsExhausted) {
		t.Errorf("Err() = %v, want ErrAttemptsExhausted", err)
	}
	if !core.IsRecoverable(err) {
		t.Error("exhaustion should be recoverable")
	}
}

func TestRunAtMostNIterations(t *testing.T) {
	for _, n := range []int{1, 2, 5, 7, 25} {
		sess := mock.New(mock.Config{Source: blankSource})
		res := Run(context.Background(), sess, target, Questionnaire(), opts(n, &noSleep{}))
		if res.Iterations != n {
			t.Errorf("budget %d: iterations = %d", n, res.Iterations)
		}
		if len(res.Actions) > n || len(sess.Taps()) > n {
			t.Errorf("budget %d: %d actions, %d taps", n, len(res.Actions), len(sess.Taps()))
		}
	}
}

func TestRunReachedAfterThirdAction(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	taps := 0
	sess.OnTap = func(s *mock.Session, x, y int) {
		taps++
		if taps == 3 {
			s.SetSource(targetSource)
		}
	}

	res := Run(context.Background(), sess, target, Questionnaire(), opts(20, &noSleep{}))

	if !res.Reached {
		t.Fatal("expected target reached")
	}
	if res.Iterations != 3 || len(res.Actions) != 3 {
		t.Errorf("iterations=%d actions=%d, want 3/3", res.Iterations, len(res.Actions))
	}
}

func TestRunFinalReadOnlyCheck(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	s := &noSleep{}
	o := opts(2, s)
	o.Sleep = func(ctx context.Context, d time.Duration) error {
		_ = s.sleep(ctx, d)
		if s.calls == 2 {
			sess.SetSource(targetSource)
		}
		return nil
	}

	res := Run(context.Background(), sess, target, Questionnaire(), o)

	if !res.Reached || res.Iterations != 2 {
		t.Errorf("reached=%v iterations=%d, want true/2", res.Reached, res.Iterations)
	}
	if len(sess.Taps()) != 2 {
		t.Errorf("final check must not tap, taps = %d", len(sess.Taps()))
	}
}

func TestRunCanceled(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	ctx, cancel := context.WithCancel(context.Background())
	o := opts(20, &noSleep{})
	o.Sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	res := Run(ctx, sess, target, Questionnaire(), o)

	if res.Reached || !res.Canceled {
		t.Errorf("reached=%v canceled=%v", res.Reached, res.Canceled)
	}
	if res.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", res.Iterations)
	}
}

func TestRunCaptureFailureFallsBackToCoordinates(t *testing.T) {
	sess := mock.New(mock.Config{SourceErr: errors.New("source unavailable")})

	res := Run(context.Background(), sess, target, Questionnaire(), opts(3, &noSleep{}))

	if res.Reached {
		t.Fatal("target should not be reached")
	}
	for _, a := range res.Actions {
		if a.Strategy != "coordinate" {
			t.Errorf("unexpected strategy %q", a.Strategy)
		}
	}
	if len(res.Actions) != 3 {
		t.Errorf("actions = %d, want 3", len(res.Actions))
	}
}

type failingStrategy struct{ calls int }

func (f *failingStrategy) Name() string { return "failing" }

func (f *failingStrategy) Apply(context.Context, core.Session, *screen.Snapshot, int) (Action, bool, error) {
	f.calls++
	return Action{}, false, core.ErrElementNotFound
}

func TestRunSwallowsStrategyErrors(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	failing := &failingStrategy{}

	res := Run(context.Background(), sess, target, []Strategy{failing, &CoordinateTapStrategy{}}, opts(4, &noSleep{}))

	if failing.calls != 4 {
		t.Errorf("failing strategy called %d times, want 4", failing.calls)
	}
	if len(res.Actions) != 4 {
		t.Errorf("actions = %d, want 4", len(res.Actions))
	}
}

func TestRunNoStrategyApplies(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})

	res := Run(context.Background(), sess, target, []Strategy{&failingStrategy{}}, opts(3, &noSleep{}))

	if res.Iterations != 3 || len(res.Actions) != 0 {
		t.Errorf("iterations=%d actions=%d", res.Iterations, len(res.Actions))
	}
	if sess.Interactions() != 0 {
		t.Errorf("unexpected interactions: %v", sess.Calls())
	}
}

func TestRunDetectorsNameScreen(t *testing.T) {
	sess := mock.New(mock.Config{Source: blankSource})
	o := opts(1, &noSleep{})
	o.Detectors = screen.Detectors{{Name: "empty", Predicate: screen.NotScreen(screen.HasElement("labeled", screen.Labeled()))}}

	res := Run(context.Background(), sess, target, []Strategy{&CoordinateTapStrategy{}}, o)

	if len(res.Actions) != 1 || res.Actions[0].Screen != "empty" {
		t.Errorf("actions = %+v", res.Actions)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{SettleDelay: -time.Second}.withDefaults()
	if o.MaxAttempts != DefaultMaxAttempts || o.SettleDelay != 0 || o.Sleep == nil {
		t.Errorf("withDefaults = %+v", o)
	}
}

func TestQuestionnaireFlow(t *testing.T) {
	question := func(title string, continueEnabled bool) string {
		cont := mock.Button("Continue", 40, 2150, 1000, 140)
		cont.Disabled = !continueEnabled
		return mock.AndroidSource(
			mock.Text("Step 2 of 5", 40, 80, 1000, 60),
			mock.Text(title, 40, 200, 1000, 120),
			mock.Card("Hot flashes", 40, 700, 1000, 160),
			mock.Card("Sleep", 40, 900, 1000, 160),
			cont,
		)
	}
	screens := []string{
		question("What brings you here?", false),
		question("What brings you here?", true),
		question("Are you on HRT?", false),
		question("Are you on HRT?", true),
		targetSource,
	}
	current := 0
	sess := mock.New(mock.Config{Source: screens[0]})
	sess.OnTap = func(s *mock.Session, x, y int) {
		current++
		s.SetSource(screens[current])
	}

	res := Run(context.Background(), sess, target, Questionnaire(), opts(20, &noSleep{}))

	if !res.Reached || res.Iterations != 4 {
		t.Fatalf("reached=%v iterations=%d", res.Reached, res.Iterations)
	}
	want := []string{"option", "label", "option", "label"}
	for i, a := range res.Actions {
		if a.Strategy != want[i] {
			t.Errorf("action %d strategy = %q, want %q", i, a.Strategy, want[i])
		}
	}
}

func TestCoordinateCycling(t *testing.T) {
	s := &CoordinateTapStrategy{}
	for k := 0; k < 12; k++ {
		if got, want := s.PointFor(k), DefaultFallbackPoints[k%3]; got != want {
			t.Errorf("PointFor(%d) = %v, want %v", k, got, want)
		}
	}

	wantY := []int{1080, 1320, 1560, 1080}
	for k, y := range wantY {
		sess := mock.New(mock.Config{})
		act, ok, err := s.Apply(context.Background(), sess, nil, k)
		if err != nil || !ok {
			t.Fatalf("Apply(%d) = %v, %v", k, ok, err)
		}
		if act.X != 540 || act.Y != y {
			t.Errorf("attempt %d tapped (%d,%d), want (540,%d)", k, act.X, act.Y, y)
		}
	}

	negative := []struct {
		k    int
		want Point
	}{
		{-1, DefaultFallbackPoints[2]},
		{-3, DefaultFallbackPoints[0]},
		{-4, DefaultFallbackPoints[2]},
		{math.MinInt, DefaultFallbackPoints[1]},
	}
	for _, tt := range negative {
		if got := s.PointFor(tt.k); got != tt.want {
			t.Errorf("PointFor(%d) = %v, want %v", tt.k, got, tt.want)
		}
	}

	custom := &CoordinateTapStrategy{Points: []Point{{0.1, 0.1}, {0.9, 0.9}}}
	if custom.PointFor(3) != (Point{0.9, 0.9}) {
		t.Errorf("custom PointFor(3) = %v", custom.PointFor(3))
	}
}

func TestStrategyOrderDeterministic(t *testing.T) {
	cont := mock.Button("Continue", 40, 2150, 1000, 140)
	src := mock.AndroidSource(
		mock.Card("Hot flashes", 40, 700, 1000, 160),
		cont,
	)
	for i := 0; i < 3; i++ {
		snap, err := screen.FromSource(src)
		if err != nil {
			t.Fatal(err)
		}
		act, ok := apply(context.Background(), mock.New(mock.Config{}), snap, i, Questionnaire())
		if !ok || act.Strategy != "label" || act.Label != "Continue" {
			t.Errorf("run %d: first action = %+v", i, act)
		}
	}
}

func TestLabelStrategy(t *testing.T) {
	disabled := mock.Button("Continue", 40, 2150, 1000, 140)
	disabled.Disabled = true

	tests := []struct {
		name      string
		nodes     []mock.Node
		strategy  *LabelStrategy
		wantLabel string
	}{
		{
			name:      "exact beats contains",
			nodes:     []mock.Node{mock.Button("Continue with email", 40, 1000, 1000, 100), mock.Button("CONTINUE", 40, 2000, 1000, 100)},
			strategy:  &LabelStrategy{Labels: []string{"Continue"}},
			wantLabel: "CONTINUE",
		},
		{
			name:      "contains",
			nodes:     []mock.Node{mock.Button("Continue with email", 40, 1000, 1000, 100)},
			strategy:  &LabelStrategy{Labels: []string{"continue"}},
			wantLabel: "Continue with email",
		},
		{
			name:     "disabled skipped",
			nodes:    []mock.Node{disabled},
			strategy: &LabelStrategy{Labels: []string{"Continue"}},
		},
		{
			name:      "fuzzy",
			nodes:     []mock.Node{mock.Button("Contine", 40, 2000, 1000, 100)},
			strategy:  &LabelStrategy{Labels: []string{"Continue"}, FuzzyThreshold: 0.9},
			wantLabel: "Contine",
		},
		{
			name:     "fuzzy off",
			nodes:    []mock.Node{mock.Button("Contine", 40, 2000, 1000, 100)},
			strategy: &LabelStrategy{Labels: []string{"Continue"}},
		},
		{
			name:      "label inside pressable",
			nodes:     []mock.Node{mock.Card("ALREADY A MEMBER", 40, 1800, 1000, 140)},
			strategy:  &LabelStrategy{Labels: []string{"Already a member"}},
			wantLabel: "ALREADY A MEMBER",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := screen.FromSource(mock.AndroidSource(tt.nodes...))
			if err != nil {
				t.Fatal(err)
			}
			sess := mock.New(mock.Config{})
			act, ok, err := tt.strategy.Apply(context.Background(), sess, snap, 0)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if tt.wantLabel == "" {
				if ok {
					t.Errorf("expected no action, got %+v", act)
				}
				return
			}
			if !ok || act.Label != tt.wantLabel {
				t.Errorf("action = %+v (ok=%v), want label %q", act, ok, tt.wantLabel)
			}
		})
	}
}

func TestLabelStrategyTapsClickableContainer(t *testing.T) {
	snap, err := screen.FromSource(mock.AndroidSource(mock.Card("GET STARTED", 40, 1800, 1000, 140)))
	if err != nil {
		t.Fatal(err)
	}
	sess := mock.New(mock.Config{})
	act, ok, _ := (&LabelStrategy{Labels: []string{"Get Started"}}).Apply(context.Background(), sess, snap, 0)
	if !ok {
		t.Fatal("expected action")
	}
	// Card center, not the inner text center.
	if act.X != 540 || act.Y != 1870 {
		t.Errorf("tapped (%d,%d), want (540,1870)", act.X, act.Y)
	}
}

func TestOptionStrategy(t *testing.T) {
	snap, err := screen.FromSource(mock.AndroidSource(
		mock.Text("Step 1 of 5", 40, 80, 1000, 60),
		mock.Text("What brings you here?", 40, 200, 1000, 120),
		mock.Card("Hot flashes", 40, 700, 1000, 160),
		mock.Card("Sleep", 40, 900, 1000, 160),
		mock.Card("Mood", 40, 1100, 1000, 160),
		mock.Button("Continue", 40, 2150, 1000, 140),
	))
	if err != nil {
		t.Fatal(err)
	}
	s := &OptionStrategy{}

	var got []string
	for _, e := range s.Candidates(snap) {
		got = append(got, e.DisplayText())
	}
	want := []string{"Hot flashes", "Sleep", "Mood"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, got[i], want[i])
		}
	}

	for k := 0; k < 6; k++ {
		act, ok, _ := s.Apply(context.Background(), mock.New(mock.Config{}), snap, k)
		if !ok || act.Label != want[k%3] {
			t.Errorf("attempt %d selected %q, want %q", k, act.Label, want[k%3])
		}
	}
}

func TestOptionStrategyPlainText(t *testing.T) {
	snap, err := screen.FromSource(mock.AndroidSource(
		mock.Text("Welcome to Magnolia", 40, 200, 1000, 120),
		mock.Text("Yes", 40, 700, 1000, 120),
		mock.Text("No", 40, 900, 1000, 120),
	))
	if err != nil {
		t.Fatal(err)
	}
	cands := (&OptionStrategy{}).Candidates(snap)
	if len(cands) != 2 || cands[0].Text != "Yes" || cands[1].Text != "No" {
		t.Errorf("candidates = %v", cands)
	}
}

func TestGeometryStrategy(t *testing.T) {
	snap, err := screen.FromSource(mock.AndroidSource(
		mock.Card("Header", 40, 100, 1000, 160),    // above band
		mock.Card("Narrow", 40, 700, 300, 160),     // too narrow
		mock.Card("Option A", 40, 900, 1000, 160),  // ok
		mock.Card("Option B", 40, 1100, 1000, 160), // ok
		mock.Card("Huge", 40, 500, 1000, 1400),     // too tall
		mock.Card("Continue", 40, 1500, 1000, 160), // excluded label
		mock.Input("Email", 40, 1300, 1000, 120),   // input
		mock.Card("Footer", 40, 2200, 1000, 160),   // below band
	))
	if err != nil {
		t.Fatal(err)
	}
	s := &GeometryStrategy{}
	cands := s.Candidates(snap)
	if len(cands) != 2 {
		t.Fatalf("candidates = %d, want 2", len(cands))
	}

	act, ok, err := s.Apply(context.Background(), mock.New(mock.Config{}), snap, 1)
	if err != nil || !ok {
		t.Fatalf("Apply = %v, %v", ok, err)
	}
	if act.Label != "Option B" || act.X != 540 || act.Y != 1180 {
		t.Errorf("action = %+v", act)
	}
}

func TestStrategiesSkipNilSnapshot(t *testing.T) {
	for _, s := range []Strategy{&LabelStrategy{Labels: []string{"x"}}, &OptionStrategy{}, &GeometryStrategy{}} {
		if _, ok, err := s.Apply(context.Background(), mock.New(mock.Config{}), nil, 0); ok || err != nil {
			t.Errorf("%s: ok=%v err=%v", s.Name(), ok, err)
		}
	}
}

func TestTapErrorMeansNotApplied(t *testing.T) {
	sess := mock.New(mock.Config{TapErr: errors.New("gesture failed")})
	_, ok, err := (&CoordinateTapStrategy{}).Apply(context.Background(), sess, nil, 0)
	if ok || err == nil {
		t.Errorf("ok=%v err=%v", ok, err)
	}
}

func TestActionString(t *testing.T) {
	a := Action{Attempt: 2, Strategy: "label", Label: "Continue", X: 1, Y: 2}
	if a.String() != `#2 label tap "Continue" at (1,2)` {
		t.Errorf("String() = %q", a.String())
	}
}
