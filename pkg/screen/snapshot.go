// Package screen turns a device page source into a Snapshot that can be
// searched with Match filters and checked with Predicates.
//
// A Snapshot is a point-in-time read. Callers capture a new one for every
// check; nothing here caches UI state between reads.
package screen

import (
	"fmt"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Snapshot is the visible UI at one moment.
type Snapshot struct {
	Platform string
	Width    int
	Height   int
	Elements []*Element
}

// Capture reads the page source and window size from the session.
func Capture(sess core.Session) (*Snapshot, error) {
	src, err := sess.Source()
	if err != nil {
		return nil, fmt.Errorf("get page source: %w", err)
	}
	snap, err := FromSource(src)
	if err != nil {
		return nil, err
	}
	if p := sess.Platform(); p != "" {
		snap.Platform = p
	}

	w, h, err := sess.WindowSize()
	if err == nil && w > 0 && h > 0 {
		snap.Width, snap.Height = w, h
	}
	return snap, nil
}

// FromSource builds a snapshot from page source XML. Width and height
// default to the extent of the outermost element.
func FromSource(xmlData string) (*Snapshot, error) {
	elements, platform, err := Parse(xmlData)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Platform: platform, Elements: elements}
	for _, e := range elements {
		if e.Depth != 0 {
			continue
		}
		if r := e.Bounds.X + e.Bounds.Width; r > snap.Width {
			snap.Width = r
		}
		if b := e.Bounds.Y + e.Bounds.Height; b > snap.Height {
			snap.Height = b
		}
	}
	return snap, nil
}

// FindAll returns the elements matching m in document order.
func (s *Snapshot) FindAll(m Match) []*Element {
	if s == nil {
		return nil
	}
	var out []*Element
	for _, e := range s.Elements {
		if m(e) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first element matching m, or nil.
func (s *Snapshot) Find(m Match) *Element {
	if s == nil {
		return nil
	}
	for _, e := range s.Elements {
		if m(e) {
			return e
		}
	}
	return nil
}

// Has reports whether any element matches m.
func (s *Snapshot) Has(m Match) bool {
	return s.Find(m) != nil
}

// Texts returns the display text of every visible labeled element.
func (s *Snapshot) Texts() []string {
	var out []string
	for _, e := range s.FindAll(Visible()) {
		if t := e.DisplayText(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// IsAndroid reports whether the snapshot came from an Android device.
func (s *Snapshot) IsAndroid() bool { return s.Platform == Android }

// IsIOS reports whether the snapshot came from an iOS device.
func (s *Snapshot) IsIOS() bool { return s.Platform == IOS }
