// Package mock provides a scripted session for testing without a device.
package mock

import (
	"fmt"
	"sync"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Default screen size reported by the mock.
const (
	ScreenWidth  = 1080
	ScreenHeight = 2400
)

// Config configures mock session behavior.
type Config struct {
	// Platform to report (android, ios). Defaults to android.
	Platform string
	// Screen size. Defaults to ScreenWidth x ScreenHeight.
	Width, Height int
	// Source is the initial page source.
	Source string
	// Capabilities returned by Capability.
	Capabilities map[string]interface{}
	// Package returned by CurrentPackage.
	Package string

	// Errors injected into the matching calls.
	SourceErr       error
	TapErr          error
	HideKeyboardErr error
	WindowSizeErr   error
}

// Element is a server-side element reachable through FindElements.
type Element struct {
	ID        string
	Text      string
	Displayed bool
	Enabled   bool

	// OnClick runs after the element is clicked.
	OnClick func(s *Session)
}

// Call is one recorded session call.
type Call struct {
	Method string
	Args   []interface{}
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

// Point is a recorded tap.
type Point struct {
	X, Y int
}

// Session is a mock implementation of core.Session for testing.
type Session struct {
	Config Config

	// OnTap runs after every successful Tap; use it to move between screens.
	OnTap func(s *Session, x, y int)

	mu       sync.Mutex
	source   string
	calls    []Call
	locators map[string][]*Element
	byID     map[string]*Element
	values   map[string]string
	active   string
	quit     bool
}

// New creates a new mock session.
func New(cfg Config) *Session {
	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	if cfg.Width == 0 {
		cfg.Width = ScreenWidth
	}
	if cfg.Height == 0 {
		cfg.Height = ScreenHeight
	}
	if cfg.Capabilities == nil {
		cfg.Capabilities = map[string]interface{}{"platformName": cfg.Platform}
	}
	return &Session{
		Config:   cfg,
		source:   cfg.Source,
		locators: make(map[string][]*Element),
		byID:     make(map[string]*Element),
		values:   make(map[string]string),
	}
}

var _ core.Session = (*Session)(nil)

func (s *Session) record(method string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: method, Args: args})
}

// SetSource replaces the current page source.
func (s *Session) SetSource(xml string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = xml
}

// Register makes elements findable by the locator. IDs are assigned when
// empty.
func (s *Session) Register(by core.By, elems ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range elems {
		if e.ID == "" {
			e.ID = fmt.Sprintf("el-%d", len(s.byID)+1)
		}
		s.byID[e.ID] = e
	}
	key := by.String()
	s.locators[key] = append(s.locators[key], elems...)
}

// SetActive sets the element returned by ActiveElement.
func (s *Session) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

// Value returns the text typed into an element.
func (s *Session) Value(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[id]
}

// Calls returns a copy of the recorded calls.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how often method was called. An empty method counts
// every call.
func (s *Session) CallCount(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if method == "" || c.Method == method {
			n++
		}
	}
	return n
}

// Taps returns every recorded tap position.
func (s *Session) Taps() []Point {
	var out []Point
	for _, c := range s.Calls() {
		if c.Method == "Tap" {
			out = append(out, Point{X: c.Args[0].(int), Y: c.Args[1].(int)})
		}
	}
	return out
}

// Interactions counts calls that change the app: taps, clicks, typing.
func (s *Session) Interactions() int {
	n := 0
	for _, c := range s.Calls() {
		switch c.Method {
		case "Tap", "Click", "Clear", "SendKeys", "HideKeyboard":
			n++
		}
	}
	return n
}

// Quitted reports whether Quit was called.
func (s *Session) Quitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

// Platform implements core.Session.
func (s *Session) Platform() string {
	s.record("Platform")
	return s.Config.Platform
}

// Capability implements core.Session.
func (s *Session) Capability(name string) interface{} {
	s.record("Capability", name)
	return s.Config.Capabilities[name]
}

// WindowSize implements core.Session.
func (s *Session) WindowSize() (int, int, error) {
	s.record("WindowSize")
	if s.Config.WindowSizeErr != nil {
		return 0, 0, s.Config.WindowSizeErr
	}
	return s.Config.Width, s.Config.Height, nil
}

// Source implements core.Session.
func (s *Session) Source() (string, error) {
	s.record("Source")
	if s.Config.SourceErr != nil {
		return "", s.Config.SourceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, nil
}

// Tap implements core.Session.
func (s *Session) Tap(x, y int) error {
	s.record("Tap", x, y)
	if s.Config.TapErr != nil {
		return s.Config.TapErr
	}
	if s.OnTap != nil {
		s.OnTap(s, x, y)
	}
	return nil
}

// ActiveElement implements core.Session.
func (s *Session) ActiveElement() (string, error) {
	s.record("ActiveElement")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == "" {
		return "", core.ErrElementNotFound.WithMessage("no active element")
	}
	return s.active, nil
}

// FindElements implements core.Session.
func (s *Session) FindElements(by core.By) ([]string, error) {
	s.record("FindElements", by.String())
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, e := range s.locators[by.String()] {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (s *Session) element(id string) (*Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("stale element %s", id))
	}
	return e, nil
}

// Click implements core.Session.
func (s *Session) Click(id string) error {
	s.record("Click", id)
	e, err := s.element(id)
	if err != nil {
		return err
	}
	s.SetActive(id)
	if e.OnClick != nil {
		e.OnClick(s)
	}
	return nil
}

// Clear implements core.Session.
func (s *Session) Clear(id string) error {
	s.record("Clear", id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = ""
	return nil
}

// SendKeys implements core.Session.
func (s *Session) SendKeys(id, text string) error {
	s.record("SendKeys", id, text)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] += text
	return nil
}

// IsDisplayed implements core.Session.
func (s *Session) IsDisplayed(id string) (bool, error) {
	s.record("IsDisplayed", id)
	e, err := s.element(id)
	if err != nil {
		return false, err
	}
	return e.Displayed, nil
}

// IsEnabled implements core.Session.
func (s *Session) IsEnabled(id string) (bool, error) {
	s.record("IsEnabled", id)
	e, err := s.element(id)
	if err != nil {
		return false, err
	}
	return e.Enabled, nil
}

// HideKeyboard implements core.Session.
func (s *Session) HideKeyboard() error {
	s.record("HideKeyboard")
	return s.Config.HideKeyboardErr
}

// CurrentPackage implements core.Session.
func (s *Session) CurrentPackage() (string, error) {
	s.record("CurrentPackage")
	return s.Config.Package, nil
}

// Quit implements core.Session.
func (s *Session) Quit() error {
	s.record("Quit")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quit = true
	return nil
}
