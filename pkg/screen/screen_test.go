package screen

import (
	"errors"
	"testing"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

const androidSource = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <android.widget.FrameLayout bounds="[0,0][1080,2400]" clickable="false" enabled="true">
    <android.widget.TextView text="MAGNOLIA" bounds="[100,200][980,300]" clickable="false" enabled="true"/>
    <android.view.ViewGroup bounds="[100,900][980,1050]" clickable="true" enabled="true">
      <android.widget.TextView text="ALREADY A MEMBER" bounds="[200,950][880,1000]" clickable="false" enabled="true"/>
    </android.view.ViewGroup>
    <android.widget.EditText text="" hint="Email or phone" bounds="[100,1200][980,1300]" clickable="true" enabled="true" focused="true"/>
    <android.widget.EditText text="" hint="Password" password="true" bounds="[100,1400][980,1500]" clickable="true" enabled="true"/>
    <android.widget.Button text="Continue" bounds="[100,2000][980,2100]" clickable="true" enabled="false"/>
    <android.widget.TextView text="Hidden" bounds="[0,0][0,0]" displayed="false"/>
  </android.widget.FrameLayout>
</hierarchy>`

const iosSource = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Magnolia" x="0" y="0" width="390" height="844" enabled="true" visible="true">
    <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" name="Welcome back" label="Welcome back" x="20" y="100" width="350" height="40" enabled="true" visible="true"/>
    <XCUIElementTypeTextField type="XCUIElementTypeTextField" placeholderValue="Email" x="20" y="300" width="350" height="44" enabled="true" visible="true"/>
    <XCUIElementTypeSecureTextField type="XCUIElementTypeSecureTextField" placeholderValue="Password" x="20" y="360" width="350" height="44" enabled="true" visible="true"/>
    <XCUIElementTypeButton type="XCUIElementTypeButton" name="Login" label="Login" x="20" y="700" width="350" height="50" enabled="true" visible="true"/>
    <XCUIElementTypeButton type="XCUIElementTypeButton" name="Offscreen" label="Offscreen" x="20" y="900" width="350" height="50" enabled="true" visible="false"/>
  </XCUIElementTypeApplication>
</AppiumAUT>`

func mustSnapshot(t *testing.T, src string) *Snapshot {
	t.Helper()
	snap, err := FromSource(src)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	return snap
}

func TestParseAndroid(t *testing.T) {
	elements, platform, err := Parse(androidSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if platform != Android {
		t.Errorf("platform = %q, want android", platform)
	}
	if len(elements) != 8 {
		t.Fatalf("got %d elements, want 8", len(elements))
	}

	label := elements[3]
	if label.Text != "ALREADY A MEMBER" {
		t.Fatalf("elements[3] = %q", label.Text)
	}
	if label.Depth != 2 || label.Parent == nil || label.Parent.Class != "android.view.ViewGroup" {
		t.Errorf("parent links not set: depth=%d parent=%v", label.Depth, label.Parent)
	}
	if label.Bounds.X != 200 || label.Bounds.Y != 950 || label.Bounds.Width != 680 || label.Bounds.Height != 50 {
		t.Errorf("bounds = %+v", label.Bounds)
	}
	for i, e := range elements {
		if e.Index != i {
			t.Errorf("elements[%d].Index = %d", i, e.Index)
		}
	}
	if !elements[5].IsSecure() || elements[4].IsSecure() {
		t.Error("password attribute not honored")
	}
	if elements[6].Enabled {
		t.Error("Continue should be disabled")
	}
	if elements[7].Displayed {
		t.Error("displayed=false not honored")
	}
}

func TestParseIOS(t *testing.T) {
	elements, platform, err := Parse(iosSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if platform != IOS {
		t.Errorf("platform = %q, want ios", platform)
	}
	if len(elements) != 6 {
		t.Fatalf("got %d elements, want 6", len(elements))
	}
	login := elements[4]
	if login.Class != "XCUIElementTypeButton" || !login.Clickable {
		t.Errorf("login = %+v", login)
	}
	if login.Bounds.Y != 700 || login.Bounds.Height != 50 {
		t.Errorf("bounds = %+v", login.Bounds)
	}
	if !elements[3].IsSecure() || !elements[3].IsInput() {
		t.Error("secure text field not detected")
	}
	if elements[5].Displayed {
		t.Error("visible=false not honored")
	}
	if elements[1].Clickable {
		t.Error("static text should not be tappable")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no hierarchy", `<android.widget.FrameLayout bounds="[0,0][10,10]"/>`},
		{"garbage", `<<<`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Parse(tt.src); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFromSourceSize(t *testing.T) {
	snap := mustSnapshot(t, androidSource)
	if snap.Width != 1080 || snap.Height != 2400 {
		t.Errorf("size = %dx%d, want 1080x2400", snap.Width, snap.Height)
	}
	if !snap.IsAndroid() {
		t.Error("expected android snapshot")
	}
}

func TestClickTarget(t *testing.T) {
	snap := mustSnapshot(t, androidSource)

	label := snap.Find(TextEquals("already a member"))
	if label == nil {
		t.Fatal("label not found")
	}
	target := label.ClickTarget()
	if target == label || target.Class != "android.view.ViewGroup" {
		t.Errorf("ClickTarget = %+v, want clickable ViewGroup", target)
	}
	x, y := target.Center()
	if x != 540 || y != 975 {
		t.Errorf("center = (%d,%d)", x, y)
	}

	title := snap.Find(TextEquals("MAGNOLIA"))
	if title.ClickTarget() != title {
		t.Error("element without clickable ancestor should resolve to itself")
	}

	var nilElem *Element
	if nilElem.ClickTarget() != nil {
		t.Error("nil element should resolve to nil")
	}
}

func TestMatches(t *testing.T) {
	snap := mustSnapshot(t, androidSource)

	tests := []struct {
		name string
		m    Match
		want int
	}{
		{"equals ignores case", TextEquals("continue"), 1},
		{"equals is whole label", TextEquals("ALREADY"), 0},
		{"contains", TextContains("already"), 1},
		{"hint is a label", TextContains("email or"), 1},
		{"inputs", Input(), 2},
		{"secure inputs", SecureInput(), 1},
		{"clickable", Clickable(), 4},
		{"enabled clickable", And(Clickable(), Enabled()), 3},
		{"visible", Visible(), 7},
		{"class or", Or(Class("android.widget.Button"), Class("android.widget.EditText")), 3},
		{"not labeled", Not(Labeled()), 2},
		{"fuzzy", TextFuzzy("Already a membr", DefaultFuzzyThreshold), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(snap.FindAll(tt.m)); got != tt.want {
				t.Errorf("matched %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClosest(t *testing.T) {
	elems := []*Element{
		{Text: "United Kingdom"},
		{Text: "United States"},
		{Text: "Uruguay"},
	}
	got, score := Closest(elems, "united states", 0.8)
	if got == nil || got.Text != "United States" {
		t.Fatalf("Closest = %+v", got)
	}
	if score < 0.99 {
		t.Errorf("exact match score = %f", score)
	}
	if got, _ := Closest(elems, "Zimbabwe", 0.9); got != nil {
		t.Errorf("expected no match, got %+v", got)
	}
}

func TestPredicates(t *testing.T) {
	android := mustSnapshot(t, androidSource)
	ios := mustSnapshot(t, iosSource)

	tests := []struct {
		name string
		p    Predicate
		snap *Snapshot
		want bool
	}{
		{"has text", HasText("already"), android, true},
		{"hidden text ignored", HasText("Hidden"), android, false},
		{"ios label", HasText("welcome"), ios, true},
		{"ios hidden ignored", HasExactText("Offscreen"), ios, false},
		{"exact", HasExactText("login"), ios, true},
		{"exact not partial", HasExactText("Welcome"), ios, false},
		{"element", HasElement("secure field", SecureInput()), ios, true},
		{"not", NotScreen(HasText("Login")), ios, false},
		{"any", Any(HasText("nope"), HasText("MAGNOLIA")), android, true},
		{"all", All(HasText("MAGNOLIA"), HasText("nope")), android, false},
		{"always", Always(), nil, true},
		{"never", Never(), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, desc := tt.p(tt.snap)
			if ok != tt.want {
				t.Errorf("got %v (%s), want %v", ok, desc, tt.want)
			}
			if desc == "" {
				t.Error("empty description")
			}
		})
	}
}

func TestDetectors(t *testing.T) {
	dets := Detectors{
		{Name: "home", Predicate: HasText("Appointment")},
		{Name: "login", Predicate: HasExactText("Login")},
		{Name: "welcome", Predicate: HasText("Welcome")},
	}

	if got := dets.Detect(mustSnapshot(t, iosSource)); got != "login" {
		t.Errorf("Detect = %q, want login (first match in order)", got)
	}
	if got := dets.Detect(mustSnapshot(t, androidSource)); got != Unknown {
		t.Errorf("Detect = %q, want unknown", got)
	}
}

type fakeSession struct {
	core.Session
	source  string
	srcErr  error
	w, h    int
	sizeErr error
}

func (f *fakeSession) Platform() string { return "" }
func (f *fakeSession) Source() (string, error) { return f.source, f.srcErr }
func (f *fakeSession) WindowSize() (int, int, error) { return f.w, f.h, f.sizeErr }

func TestCapture(t *testing.T) {
	sess := &fakeSession{source: iosSource, w: 390, h: 844}
	snap, err := Capture(sess)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.Platform != IOS || snap.Width != 390 || snap.Height != 844 {
		t.Errorf("snap = %s %dx%d", snap.Platform, snap.Width, snap.Height)
	}

	sess = &fakeSession{srcErr: errors.New("boom")}
	if _, err := Capture(sess); err == nil {
		t.Error("expected source error")
	}

	sess = &fakeSession{source: androidSource, sizeErr: errors.New("no size")}
	snap, err = Capture(sess)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.Width != 1080 {
		t.Errorf("width should fall back to root bounds, got %d", snap.Width)
	}
}
