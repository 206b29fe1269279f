package core

import "testing"

func TestBounds_Center(t *testing.T) {
	tests := []struct {
		bounds    Bounds
		expectedX int
		expectedY int
	}{
		{Bounds{X: 0, Y: 0, Width: 100, Height: 100}, 50, 50},
		{Bounds{X: 10, Y: 20, Width: 100, Height: 200}, 60, 120},
		{Bounds{X: 0, Y: 0, Width: 0, Height: 0}, 0, 0},
	}

	for _, tt := range tests {
		x, y := tt.bounds.Center()
		if x != tt.expectedX || y != tt.expectedY {
			t.Errorf("Bounds%+v.Center() = (%d, %d), want (%d, %d)",
				tt.bounds, x, y, tt.expectedX, tt.expectedY)
		}
	}
}

func TestBounds_Contains(t *testing.T) {
	bounds := Bounds{X: 10, Y: 10, Width: 100, Height: 100}

	tests := []struct {
		x, y     int
		expected bool
	}{
		{50, 50, true},
		{10, 10, true},
		{109, 109, true},
		{110, 110, false}, // exclusive edge
		{0, 0, false},
	}

	for _, tt := range tests {
		if got := bounds.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Bounds.Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestBounds_Empty(t *testing.T) {
	if !(Bounds{Width: 0, Height: 10}).Empty() {
		t.Error("zero width should be empty")
	}
	if (Bounds{Width: 1, Height: 1}).Empty() {
		t.Error("1x1 should not be empty")
	}
}

func TestBy_String(t *testing.T) {
	tests := []struct {
		by   By
		want string
	}{
		{XPath("//android.widget.EditText"), "xpath=//android.widget.EditText"},
		{AccessibilityID("Done"), "accessibility id=Done"},
		{ClassName("XCUIElementTypeTextField"), "class name=XCUIElementTypeTextField"},
	}
	for _, tt := range tests {
		if got := tt.by.String(); got != tt.want {
			t.Errorf("By.String() = %q, want %q", got, tt.want)
		}
	}
}

type capSession struct {
	Session
	caps map[string]interface{}
}

func (c capSession) Capability(name string) interface{} { return c.caps[name] }

func TestCapabilityString(t *testing.T) {
	s := capSession{caps: map[string]interface{}{
		"platformName":    "Android",
		"appium:bundleId": "com.example",
		"deviceName":      42,
	}}

	if got := CapabilityString(s, "platformName"); got != "Android" {
		t.Errorf("platformName = %q", got)
	}
	if got := CapabilityString(s, "bundleId"); got != "com.example" {
		t.Errorf("bundleId = %q, want prefixed lookup", got)
	}
	if got := CapabilityString(s, "deviceName"); got != "" {
		t.Errorf("non-string capability should read as empty, got %q", got)
	}
}
