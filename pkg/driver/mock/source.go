package mock

import (
	"fmt"
	"html"
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Node describes one element of a generated page source.
type Node struct {
	Class     string // defaults to a text view on the platform
	Text      string // text on Android, label and name on iOS
	Desc      string // content-desc on Android
	Hint      string // hint on Android, placeholderValue on iOS
	Bounds    core.Bounds
	Clickable bool
	Disabled  bool
	Hidden    bool
	Password  bool
	Children  []Node
}

// Text returns a non-clickable text node.
func Text(text string, x, y, w, h int) Node {
	return Node{Text: text, Bounds: core.Bounds{X: x, Y: y, Width: w, Height: h}}
}

// Button returns a clickable node with a label.
func Button(text string, x, y, w, h int) Node {
	return Node{Class: "android.widget.Button", Text: text, Clickable: true, Bounds: core.Bounds{X: x, Y: y, Width: w, Height: h}}
}

// Input returns an editable text field.
func Input(hint string, x, y, w, h int) Node {
	return Node{Class: "android.widget.EditText", Hint: hint, Clickable: true, Bounds: core.Bounds{X: x, Y: y, Width: w, Height: h}}
}

// Card returns a clickable container wrapping a text label, the way React
// Native renders pressable options.
func Card(text string, x, y, w, h int) Node {
	return Node{
		Class:     "android.view.ViewGroup",
		Clickable: true,
		Bounds:    core.Bounds{X: x, Y: y, Width: w, Height: h},
		Children:  []Node{Text(text, x+20, y+10, w-40, h-20)},
	}
}

// AndroidSource renders nodes inside a UiAutomator2 hierarchy with a
// full-screen root.
func AndroidSource(nodes ...Node) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<hierarchy rotation="0">` + "\n")
	fmt.Fprintf(&b, `<android.widget.FrameLayout class="android.widget.FrameLayout" bounds="[0,0][%d,%d]" clickable="false" enabled="true" displayed="true">`+"\n", ScreenWidth, ScreenHeight)
	for _, n := range nodes {
		writeAndroid(&b, n)
	}
	b.WriteString("</android.widget.FrameLayout>\n</hierarchy>\n")
	return b.String()
}

func writeAndroid(b *strings.Builder, n Node) {
	class := n.Class
	if class == "" {
		class = "android.widget.TextView"
	}
	x2, y2 := n.Bounds.X+n.Bounds.Width, n.Bounds.Y+n.Bounds.Height
	fmt.Fprintf(b, `<%s class="%s" text="%s" content-desc="%s" hint="%s" bounds="[%d,%d][%d,%d]" clickable="%t" enabled="%t" displayed="%t" password="%t"`,
		class, class, esc(n.Text), esc(n.Desc), esc(n.Hint),
		n.Bounds.X, n.Bounds.Y, x2, y2, n.Clickable, !n.Disabled, !n.Hidden, n.Password)
	if len(n.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.Children {
		writeAndroid(b, c)
	}
	fmt.Fprintf(b, "</%s>\n", class)
}

// IOSSource renders nodes inside an XCUITest AppiumAUT tree.
func IOSSource(nodes ...Node) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<AppiumAUT>\n")
	fmt.Fprintf(&b, `<XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Magnolia" x="0" y="0" width="%d" height="%d" enabled="true" visible="true">`+"\n", ScreenWidth, ScreenHeight)
	for _, n := range nodes {
		writeIOS(&b, n)
	}
	b.WriteString("</XCUIElementTypeApplication>\n</AppiumAUT>\n")
	return b.String()
}

func writeIOS(b *strings.Builder, n Node) {
	class := iosClass(n)
	fmt.Fprintf(b, `<%s type="%s" name="%s" label="%s" placeholderValue="%s" x="%d" y="%d" width="%d" height="%d" enabled="%t" visible="%t"`,
		class, class, esc(n.Text), esc(n.Text), esc(n.Hint),
		n.Bounds.X, n.Bounds.Y, n.Bounds.Width, n.Bounds.Height, !n.Disabled, !n.Hidden)
	if len(n.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.Children {
		writeIOS(b, c)
	}
	fmt.Fprintf(b, "</%s>\n", class)
}

func iosClass(n Node) string {
	switch {
	case strings.HasPrefix(n.Class, "XCUIElementType"):
		return n.Class
	case n.Class == "android.widget.EditText" && n.Password:
		return "XCUIElementTypeSecureTextField"
	case n.Class == "android.widget.EditText":
		return "XCUIElementTypeTextField"
	case n.Class == "android.widget.Button":
		return "XCUIElementTypeButton"
	case n.Clickable:
		return "XCUIElementTypeOther"
	default:
		return "XCUIElementTypeStaticText"
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}
