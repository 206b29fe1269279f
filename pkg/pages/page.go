// Package pages holds the page objects of the Magnolia app.
//
// Pages read the screen through snapshots and act through raw taps on the
// element centers, so the same page works on Android and iOS. A lookup
// miss is logged at warn level and returned as a core.ErrElementNotFound;
// callers decide whether that matters.
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
	"github.com/magnolia-collective/wellness-e2e/pkg/wait"
)

// Page is the base shared by every page object.
type Page struct {
	name   string
	sess   core.Session
	timing config.Timing
}

func newPage(name string, sess core.Session, timing config.Timing) Page {
	return Page{name: name, sess: sess, timing: timing}
}

// Session returns the underlying session.
func (p *Page) Session() core.Session { return p.sess }

// Platform returns the session platform.
func (p *Page) Platform() string { return p.sess.Platform() }

func (p *Page) isIOS() bool { return p.sess.Platform() == screen.IOS }

// snapshot reads the current screen.
func (p *Page) snapshot() (*screen.Snapshot, error) {
	snap, err := screen.Capture(p.sess)
	if err != nil {
		return nil, core.ErrElementNotFound.WithCause(err)
	}
	return snap, nil
}

// waitFor polls the screen until pred holds or the wait timeout elapses.
func (p *Page) waitFor(ctx context.Context, pred screen.Predicate) (*screen.Snapshot, error) {
	return wait.ForScreen(ctx, p.sess, pred, p.timing.WaitTimeout, p.timing.PollInterval)
}

// waitForElement waits for the first element matching m, tried in order of
// the given matches. Earlier matches win over later ones on the same screen.
func (p *Page) waitForElement(ctx context.Context, desc string, matches ...screen.Match) (*screen.Element, error) {
	var found *screen.Element
	pred := func(snap *screen.Snapshot) (bool, string) {
		found = firstOf(snap, matches...)
		return found != nil, desc
	}
	if _, err := p.waitFor(ctx, pred); err != nil {
		return nil, core.ErrElementNotFound.WithMessage(desc + " not found").WithCause(err)
	}
	return found, nil
}

// firstOf returns the first visible element matching any of the matches,
// checked in priority order.
func firstOf(snap *screen.Snapshot, matches ...screen.Match) *screen.Element {
	for _, m := range matches {
		if e := snap.Find(screen.And(screen.Visible(), m)); e != nil {
			return e
		}
	}
	return nil
}

// tap taps the center of the element's click target.
func (p *Page) tap(e *screen.Element) error {
	target := e.ClickTarget()
	x, y := target.Center()
	logger.Debug("%s: tap %q at (%d,%d)", p.name, e.DisplayText(), x, y)
	return p.sess.Tap(x, y)
}

// tapElement waits for an element and taps it, pausing after the tap.
func (p *Page) tapElement(ctx context.Context, desc string, after time.Duration, matches ...screen.Match) error {
	e, err := p.waitForElement(ctx, desc, matches...)
	if err != nil {
		return p.miss(desc, err)
	}
	target := e.ClickTarget()
	if !target.Enabled {
		return p.miss(desc, core.ErrElementNotFound.WithMessage(desc+" is disabled"))
	}
	if err := p.tap(e); err != nil {
		return p.miss(desc, err)
	}
	logger.Info("%s: tapped %s", p.name, desc)
	return p.pause(ctx, after)
}

// typeInto focuses an input field and replaces its text.
func (p *Page) typeInto(ctx context.Context, snap *screen.Snapshot, e *screen.Element, text string) error {
	if err := p.tap(e); err != nil {
		return err
	}
	if err := p.pause(ctx, p.timing.ActionDelay); err != nil {
		return err
	}
	id, err := p.resolve(snap, e)
	if err != nil {
		return err
	}
	if err := p.sess.Clear(id); err != nil {
		return err
	}
	return p.sess.SendKeys(id, text)
}

// resolve returns the server-side id of a snapshot element: the focused
// element after a tap, otherwise the element of the same class at the
// same position in document order.
func (p *Page) resolve(snap *screen.Snapshot, e *screen.Element) (string, error) {
	if id, err := p.sess.ActiveElement(); err == nil && id != "" {
		return id, nil
	}

	index := 0
	for _, other := range snap.FindAll(screen.Class(e.Class)) {
		if other == e {
			break
		}
		index++
	}
	ids, err := p.sess.FindElements(core.ClassName(e.Class))
	if err != nil {
		return "", err
	}
	if index >= len(ids) {
		return "", core.ErrElementNotFound.WithMessage(fmt.Sprintf("%s #%d not found", e.Class, index))
	}
	return ids[index], nil
}

// pause sleeps for d, honoring cancellation.
func (p *Page) pause(ctx context.Context, d time.Duration) error {
	return wait.Sleep(ctx, d)
}

// miss logs a soft failure and returns it as a lookup error.
func (p *Page) miss(what string, err error) error {
	logger.Warn("%s: %s: %v", p.name, what, err)
	if core.CategoryOf(err) == core.ErrCategoryLookup {
		return err
	}
	return core.ErrElementNotFound.WithMessage(what).WithCause(err)
}

// containerText returns the element's own text or the first text below it.
func containerText(e *screen.Element) string {
	if t := e.DisplayText(); t != "" {
		return t
	}
	for _, c := range e.Children {
		if t := containerText(c); t != "" {
			return t
		}
	}
	return ""
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

var (
	textClasses = []string{
		"android.widget.TextView",
		"XCUIElementTypeStaticText",
	}
	isText   = screen.Class(textClasses...)
	notInput = screen.Not(screen.Input())
)
