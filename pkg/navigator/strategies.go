package navigator

import (
	"context"
	"math"
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// DefaultExcludedLabels are screen chrome, never questionnaire answers.
var DefaultExcludedLabels = []string{"Step", "Continue", "Welcome"}

// tapElement taps the click target of e and describes the action.
func tapElement(sess core.Session, strategy string, e *screen.Element) (Action, bool, error) {
	target := e.ClickTarget()
	x, y := target.Center()
	if err := sess.Tap(x, y); err != nil {
		return Action{}, false, err
	}
	return Action{Strategy: strategy, Label: e.DisplayText(), X: x, Y: y}, true, nil
}

// LabelStrategy taps an enabled, displayed control whose label matches one
// of Labels. Exact matches win over substring matches, which win over fuzzy
// matches when FuzzyThreshold is set.
type LabelStrategy struct {
	Labels         []string
	FuzzyThreshold float64 // 0 disables fuzzy matching
}

// Name implements Strategy.
func (s *LabelStrategy) Name() string { return "label" }

// Apply implements Strategy.
func (s *LabelStrategy) Apply(_ context.Context, sess core.Session, snap *screen.Snapshot, _ int) (Action, bool, error) {
	if snap == nil {
		return Action{}, false, nil
	}
	e := s.find(snap)
	if e == nil {
		return Action{}, false, nil
	}
	return tapElement(sess, s.Name(), e)
}

func (s *LabelStrategy) find(snap *screen.Snapshot) *screen.Element {
	usable := func(e *screen.Element) bool {
		if !e.Visible() || !e.Enabled {
			return false
		}
		t := e.ClickTarget()
		return t.Enabled && t.Displayed
	}

	var passes [][]screen.Match
	exact := make([]screen.Match, 0, len(s.Labels))
	contains := make([]screen.Match, 0, len(s.Labels))
	fuzzy := make([]screen.Match, 0, len(s.Labels))
	for _, l := range s.Labels {
		exact = append(exact, screen.TextEquals(l))
		contains = append(contains, screen.TextContains(l))
		if s.FuzzyThreshold > 0 {
			fuzzy = append(fuzzy, screen.TextFuzzy(l, s.FuzzyThreshold))
		}
	}
	passes = append(passes, exact, contains, fuzzy)

	for _, pass := range passes {
		for _, m := range pass {
			if e := snap.Find(screen.And(m, usable)); e != nil {
				return e
			}
		}
	}
	return nil
}

// OptionStrategy selects a questionnaire answer: a displayed, labeled text
// element that is not screen chrome. Attempt k taps candidate k mod n, so a
// screen that does not advance gets a different answer next time.
type OptionStrategy struct {
	Exclude []string // substrings, case-insensitive; DefaultExcludedLabels when nil
}

// Name implements Strategy.
func (s *OptionStrategy) Name() string { return "option" }

// Apply implements Strategy.
func (s *OptionStrategy) Apply(_ context.Context, sess core.Session, snap *screen.Snapshot, attempt int) (Action, bool, error) {
	if snap == nil {
		return Action{}, false, nil
	}
	options := s.Candidates(snap)
	if len(options) == 0 {
		return Action{}, false, nil
	}
	return tapElement(sess, s.Name(), options[attempt%len(options)])
}

// Candidates returns the answer elements in document order.
func (s *OptionStrategy) Candidates(snap *screen.Snapshot) []*screen.Element {
	exclude := s.Exclude
	if exclude == nil {
		exclude = DefaultExcludedLabels
	}
	var out []*screen.Element
	for _, e := range snap.FindAll(screen.And(screen.Visible(), screen.Class(textClasses...))) {
		text := strings.TrimSpace(e.DisplayText())
		if text == "" || containsAny(text, exclude) {
			continue
		}
		out = append(out, e)
	}

	// Prefer answers rendered inside pressable containers over plain
	// headings when the screen has both.
	var pressable []*screen.Element
	for _, e := range out {
		if e.ClickTarget().Clickable {
			pressable = append(pressable, e)
		}
	}
	if len(pressable) > 0 {
		return pressable
	}
	return out
}

var textClasses = []string{
	"android.widget.TextView",
	"XCUIElementTypeStaticText",
}

func containsAny(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// GeometryStrategy taps a clickable container that looks like an answer
// card: inside a vertical band of the screen, wide enough and not too tall.
// Inputs and containers labeled with Exclude are skipped. Attempt k taps
// candidate k mod n.
type GeometryStrategy struct {
	Top, Bottom    float64 // band as fractions of screen height; 0.2 and 0.85 when zero
	MinWidth       float64 // fraction of screen width; 0.5 when zero
	MaxHeight      float64 // fraction of screen height; 0.25 when zero
	MinHeightPx    int     // 40 when zero
	Exclude        []string
	ContainerClass []string // restrict to these classes when set
}

// Name implements Strategy.
func (s *GeometryStrategy) Name() string { return "geometry" }

// Apply implements Strategy.
func (s *GeometryStrategy) Apply(_ context.Context, sess core.Session, snap *screen.Snapshot, attempt int) (Action, bool, error) {
	if snap == nil {
		return Action{}, false, nil
	}
	cands := s.Candidates(snap)
	if len(cands) == 0 {
		return Action{}, false, nil
	}
	e := cands[attempt%len(cands)]
	x, y := e.Center()
	if err := sess.Tap(x, y); err != nil {
		return Action{}, false, err
	}
	return Action{Strategy: s.Name(), Label: containerLabel(snap, e), X: x, Y: y}, true, nil
}

// Candidates returns the plausible containers in document order.
func (s *GeometryStrategy) Candidates(snap *screen.Snapshot) []*screen.Element {
	top, bottom := orDefault(s.Top, 0.2), orDefault(s.Bottom, 0.85)
	minW, maxH := orDefault(s.MinWidth, 0.5), orDefault(s.MaxHeight, 0.25)
	minHpx := s.MinHeightPx
	if minHpx == 0 {
		minHpx = 40
	}
	exclude := s.Exclude
	if exclude == nil {
		exclude = DefaultExcludedLabels
	}
	w, h := float64(snap.Width), float64(snap.Height)
	if w <= 0 || h <= 0 {
		return nil
	}

	match := screen.And(screen.Clickable(), screen.Enabled(), screen.Visible(), screen.Not(screen.Input()))
	if len(s.ContainerClass) > 0 {
		match = screen.And(match, screen.Class(s.ContainerClass...))
	}

	var out []*screen.Element
	for _, e := range snap.FindAll(match) {
		b := e.Bounds
		if float64(b.Y) < top*h || float64(b.Y+b.Height) > bottom*h {
			continue
		}
		if float64(b.Width) < minW*w || b.Height < minHpx || float64(b.Height) > maxH*h {
			continue
		}
		if containsAny(containerLabel(snap, e), exclude) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// containerLabel joins the labels of e and its descendants.
func containerLabel(snap *screen.Snapshot, e *screen.Element) string {
	var parts []string
	for _, d := range snap.Elements {
		if d == e || isDescendant(d, e) {
			if t := d.DisplayText(); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func isDescendant(e, ancestor *screen.Element) bool {
	for p := e.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Point is a tap position as fractions of the screen size.
type Point struct {
	X, Y float64
}

// DefaultFallbackPoints are the option-area positions used when nothing
// else applies: horizontally centered, at 45%, 55% and 65% of the height.
var DefaultFallbackPoints = []Point{
	{X: 0.5, Y: 0.45},
	{X: 0.5, Y: 0.55},
	{X: 0.5, Y: 0.65},
}

// CoordinateTapStrategy taps a fixed position. Attempt k taps
// Points[k mod len(Points)]. It always acts unless the screen size is
// unknown or the tap fails.
type CoordinateTapStrategy struct {
	Points []Point // DefaultFallbackPoints when empty
}

// Name implements Strategy.
func (s *CoordinateTapStrategy) Name() string { return "coordinate" }

// PointFor returns the candidate for attempt k.
func (s *CoordinateTapStrategy) PointFor(k int) Point {
	pts := s.Points
	if len(pts) == 0 {
		pts = DefaultFallbackPoints
	}
	n := len(pts)
	return pts[((k%n)+n)%n]
}

// Apply implements Strategy.
func (s *CoordinateTapStrategy) Apply(_ context.Context, sess core.Session, snap *screen.Snapshot, attempt int) (Action, bool, error) {
	var w, h int
	if snap != nil {
		w, h = snap.Width, snap.Height
	}
	if w <= 0 || h <= 0 {
		var err error
		if w, h, err = sess.WindowSize(); err != nil {
			return Action{}, false, err
		}
	}
	p := s.PointFor(attempt)
	x, y := int(math.Round(float64(w)*p.X)), int(math.Round(float64(h)*p.Y))
	if err := sess.Tap(x, y); err != nil {
		return Action{}, false, err
	}
	return Action{Strategy: s.Name(), X: x, Y: y}, true, nil
}

// Questionnaire returns the strategy list for answer-then-continue screens:
// continue when it is enabled, otherwise pick an answer, otherwise tap a
// plausible card, otherwise tap the option area.
func Questionnaire(continueLabels ...string) []Strategy {
	if len(continueLabels) == 0 {
		continueLabels = []string{"Continue", "Next"}
	}
	return []Strategy{
		&LabelStrategy{Labels: continueLabels},
		&OptionStrategy{},
		&GeometryStrategy{},
		&CoordinateTapStrategy{},
	}
}
