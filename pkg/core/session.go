// Package core defines the device session contract and the shared value types
// used by the screen navigator, page objects and flows.
package core

import "fmt"

// Session is a live connection to a device-automation server.
// Implementations: Appium (pkg/driver/appium), mock (pkg/driver/mock).
//
// Element IDs are opaque handles issued by the server and are only valid
// for the screen they were found on.
type Session interface {
	// Platform returns the lower-cased platform name (android, ios).
	Platform() string

	// Capability returns a capability negotiated at session creation, or nil.
	Capability(name string) interface{}

	// WindowSize returns the logical screen size.
	WindowSize() (width, height int, err error)

	// Source returns the current UI hierarchy as XML.
	Source() (string, error)

	// Tap dispatches a raw pointer tap at screen coordinates.
	Tap(x, y int) error

	// ActiveElement returns the focused element.
	ActiveElement() (string, error)

	// FindElements returns every element matching the locator. An empty
	// result is not an error.
	FindElements(by By) ([]string, error)

	Click(elementID string) error
	Clear(elementID string) error
	SendKeys(elementID, text string) error
	IsDisplayed(elementID string) (bool, error)
	IsEnabled(elementID string) (bool, error)

	// HideKeyboard dismisses the on-screen keyboard.
	HideKeyboard() error

	// CurrentPackage returns the foreground Android package.
	CurrentPackage() (string, error)

	// Quit ends the session. Calling Quit twice is a no-op.
	Quit() error
}

// Locator strategies understood by Appium.
const (
	UsingXPath           = "xpath"
	UsingAccessibilityID = "accessibility id"
	UsingClassName       = "class name"
	UsingID              = "id"
)

// By is an element locator.
type By struct {
	Using string
	Value string
}

// XPath returns an xpath locator.
func XPath(expr string) By { return By{Using: UsingXPath, Value: expr} }

// AccessibilityID returns an accessibility id locator.
func AccessibilityID(id string) By { return By{Using: UsingAccessibilityID, Value: id} }

// ClassName returns a class name locator.
func ClassName(name string) By { return By{Using: UsingClassName, Value: name} }

// String returns "using=value".
func (b By) String() string {
	return fmt.Sprintf("%s=%s", b.Using, b.Value)
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Empty reports whether the bounds have no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// PlatformInfo contains device and app details reported by a session.
type PlatformInfo struct {
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	DeviceName      string `json:"deviceName,omitempty"`
	UDID            string `json:"udid,omitempty"`
	AppID           string `json:"appId,omitempty"`
	ScreenWidth     int    `json:"screenWidth,omitempty"`
	ScreenHeight    int    `json:"screenHeight,omitempty"`
}

// CapabilityString reads a string capability, tolerating the appium: prefix.
func CapabilityString(s Session, name string) string {
	for _, key := range []string{name, "appium:" + name} {
		if v, ok := s.Capability(key).(string); ok && v != "" {
			return v
		}
	}
	return ""
}
