package screen

import (
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Element is one node of a parsed page source.
// Android and iOS attributes share the same fields where they mean the same
// thing; platform specific ones are left empty on the other platform.
type Element struct {
	Class     string // android.widget.EditText, XCUIElementTypeButton
	Bounds    core.Bounds
	Enabled   bool
	Displayed bool
	Selected  bool
	Focused   bool
	Clickable bool
	Password  bool
	Depth     int
	Index     int // position in Snapshot.Elements (document order)
	Parent    *Element
	Children  []*Element

	// Android
	Text        string
	ResourceID  string
	ContentDesc string
	Hint        string

	// iOS
	Name        string // accessibility identifier
	Label       string // accessibility label
	Value       string
	Placeholder string
}

// Labels returns every non-empty human readable string of the element,
// visible text first.
func (e *Element) Labels() []string {
	var out []string
	for _, s := range []string{e.Text, e.Label, e.ContentDesc, e.Name, e.Value, e.Hint, e.Placeholder} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DisplayText returns the first label, or "".
func (e *Element) DisplayText() string {
	if labels := e.Labels(); len(labels) > 0 {
		return labels[0]
	}
	return ""
}

// IsInput reports whether the element accepts text.
func (e *Element) IsInput() bool {
	switch e.Class {
	case "android.widget.EditText",
		"android.widget.AutoCompleteTextView",
		"XCUIElementTypeTextField",
		"XCUIElementTypeSecureTextField",
		"XCUIElementTypeSearchField",
		"XCUIElementTypeTextView":
		return true
	}
	return false
}

// IsSecure reports whether the element is a password field.
func (e *Element) IsSecure() bool {
	return e.Password || e.Class == "XCUIElementTypeSecureTextField"
}

// Visible reports whether the element is displayed with a non-empty area.
func (e *Element) Visible() bool {
	return e.Displayed && !e.Bounds.Empty()
}

// ClickTarget returns the element to tap on.
// React Native renders text nodes that are not clickable inside clickable
// containers, so a non-clickable element resolves to its nearest clickable
// ancestor. Without one the element itself is returned.
func (e *Element) ClickTarget() *Element {
	if e == nil {
		return nil
	}
	for p := e; p != nil; p = p.Parent {
		if p.Clickable {
			return p
		}
	}
	return e
}

// Center returns the tap point of the element.
func (e *Element) Center() (int, int) {
	return e.Bounds.Center()
}
