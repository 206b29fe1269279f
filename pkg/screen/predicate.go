package screen

import (
	"fmt"
	"strings"
)

// A Predicate reports whether a snapshot shows an expected screen.
// The string return is a human-readable description for logs and reports.
type Predicate func(s *Snapshot) (ok bool, description string)

// HasText matches if a visible element has a label containing s.
func HasText(s string) Predicate {
	m := And(Visible(), TextContains(s))
	return func(snap *Snapshot) (bool, string) {
		return snap.Has(m), fmt.Sprintf("text containing %q", s)
	}
}

// HasExactText matches if a visible element has a label equal to s.
func HasExactText(s string) Predicate {
	m := And(Visible(), TextEquals(s))
	return func(snap *Snapshot) (bool, string) {
		return snap.Has(m), fmt.Sprintf("text %q", s)
	}
}

// HasElement matches if any element satisfies m.
func HasElement(description string, m Match) Predicate {
	return func(snap *Snapshot) (bool, string) {
		return snap.Has(m), description
	}
}

// Always matches every snapshot.
func Always() Predicate {
	return func(*Snapshot) (bool, string) { return true, "always" }
}

// Never matches no snapshot.
func Never() Predicate {
	return func(*Snapshot) (bool, string) { return false, "never" }
}

// NotScreen inverts a predicate.
func NotScreen(p Predicate) Predicate {
	return func(snap *Snapshot) (bool, string) {
		ok, desc := p(snap)
		return !ok, "NOT(" + desc + ")"
	}
}

// All matches when every provided predicate matches.
func All(preds ...Predicate) Predicate {
	return func(snap *Snapshot) (bool, string) {
		descs := make([]string, 0, len(preds))
		for _, p := range preds {
			ok, desc := p(snap)
			descs = append(descs, desc)
			if !ok {
				return false, "all of: " + strings.Join(descs, ", ")
			}
		}
		return true, "all of: " + strings.Join(descs, ", ")
	}
}

// Any matches when at least one provided predicate matches.
func Any(preds ...Predicate) Predicate {
	return func(snap *Snapshot) (bool, string) {
		descs := make([]string, 0, len(preds))
		for _, p := range preds {
			ok, desc := p(snap)
			descs = append(descs, desc)
			if ok {
				return true, "any of: " + strings.Join(descs, ", ")
			}
		}
		return false, "any of: " + strings.Join(descs, ", ")
	}
}

// Unknown is returned by Detect when no detector matches.
const Unknown = "unknown"

// Detector names a logical screen recognised by a predicate.
type Detector struct {
	Name      string
	Predicate Predicate
}

// Detectors are checked in order; the first match wins.
type Detectors []Detector

// Detect returns the name of the first detector matching the snapshot.
func (d Detectors) Detect(snap *Snapshot) string {
	for _, det := range d {
		if ok, _ := det.Predicate(snap); ok {
			return det.Name
		}
	}
	return Unknown
}
