package screen

import (
	"strings"

	"github.com/xrash/smetrics"
)

// DefaultFuzzyThreshold is the Jaro-Winkler similarity accepted by TextFuzzy.
const DefaultFuzzyThreshold = 0.88

// Match is an element filter.
type Match func(e *Element) bool

// TextEquals matches elements with a label equal to s, ignoring case and
// surrounding whitespace.
func TextEquals(s string) Match {
	want := strings.TrimSpace(s)
	return func(e *Element) bool {
		for _, l := range e.Labels() {
			if strings.EqualFold(l, want) {
				return true
			}
		}
		return false
	}
}

// TextContains matches elements with a label containing s, ignoring case.
func TextContains(s string) Match {
	want := strings.ToLower(s)
	return func(e *Element) bool {
		for _, l := range e.Labels() {
			if strings.Contains(strings.ToLower(l), want) {
				return true
			}
		}
		return false
	}
}

// TextFuzzy matches elements with a label whose similarity to s is at least
// threshold.
func TextFuzzy(s string, threshold float64) Match {
	return func(e *Element) bool {
		return Similarity(e, s) >= threshold
	}
}

// Similarity returns the best Jaro-Winkler score of any label against s.
func Similarity(e *Element, s string) float64 {
	want := strings.ToLower(strings.TrimSpace(s))
	best := 0.0
	for _, l := range e.Labels() {
		if score := smetrics.JaroWinkler(strings.ToLower(l), want, 0.7, 4); score > best {
			best = score
		}
	}
	return best
}

// Closest returns the element most similar to s with a score of at least
// threshold. Ties resolve to the earlier element.
func Closest(elements []*Element, s string, threshold float64) (*Element, float64) {
	var best *Element
	bestScore := 0.0
	for _, e := range elements {
		if score := Similarity(e, s); score >= threshold && score > bestScore {
			best, bestScore = e, score
		}
	}
	return best, bestScore
}

// Class matches elements of any of the given classes.
func Class(names ...string) Match {
	return func(e *Element) bool {
		for _, n := range names {
			if e.Class == n {
				return true
			}
		}
		return false
	}
}

// Input matches text fields.
func Input() Match {
	return func(e *Element) bool { return e.IsInput() }
}

// SecureInput matches password fields.
func SecureInput() Match {
	return func(e *Element) bool { return e.IsInput() && e.IsSecure() }
}

// Clickable matches elements that are clickable themselves.
func Clickable() Match {
	return func(e *Element) bool { return e.Clickable }
}

// Visible matches displayed elements with a non-empty area.
func Visible() Match {
	return func(e *Element) bool { return e.Visible() }
}

// Enabled matches enabled elements.
func Enabled() Match {
	return func(e *Element) bool { return e.Enabled }
}

// Labeled matches elements with at least one label.
func Labeled() Match {
	return func(e *Element) bool { return len(e.Labels()) > 0 }
}

// Not inverts a match.
func Not(m Match) Match {
	return func(e *Element) bool { return !m(e) }
}

// And matches when every match does.
func And(matches ...Match) Match {
	return func(e *Element) bool {
		for _, m := range matches {
			if !m(e) {
				return false
			}
		}
		return true
	}
}

// Or matches when any match does.
func Or(matches ...Match) Match {
	return func(e *Element) bool {
		for _, m := range matches {
			if m(e) {
				return true
			}
		}
		return false
	}
}
