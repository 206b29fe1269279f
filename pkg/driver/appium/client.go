// Package appium implements core.Session against an Appium server using the
// W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultHTTPTimeout bounds a single WebDriver request. Session creation on
// a cold emulator can take minutes.
const DefaultHTTPTimeout = 5 * time.Minute

// WebDriver error codes mapped to lookup errors.
var lookupErrors = map[string]bool{
	"no such element":           true,
	"stale element reference":   true,
	"element not interactable":  true,
	"element click intercepted": true,
	"no such alert":             true,
	"invalid element state":     true,
}

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string // ios, android

	mu      sync.Mutex
	caps    map[string]interface{}
	screenW int
	screenH int
}

var _ core.Session = (*Client)(nil)

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client:    &http.Client{Timeout: DefaultHTTPTimeout},
		caps:      make(map[string]interface{}),
	}
}

// SessionID returns the current session id, or "" before Connect.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
			"firstMatch":  []interface{}{map[string]interface{}{}},
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		var ee *core.ExecutionError
		if errors.As(err, &ee) {
			return err
		}
		return core.ErrSessionNotCreated.WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.ErrSessionNotCreated.WithMessage("invalid session response")
	}
	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return core.ErrSessionNotCreated.WithMessage("no session ID in response")
	}

	c.mu.Lock()
	for k, v := range capabilities {
		c.caps[k] = v
	}
	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		for k, v := range caps {
			c.caps[k] = v
		}
	}
	c.mu.Unlock()

	if p, ok := c.Capability("platformName").(string); ok {
		c.platform = strings.ToLower(p)
	}
	return nil
}

// Quit closes the session. Calling it again is a no-op.
func (c *Client) Quit() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// Platform returns the platform (ios/android).
func (c *Client) Platform() string {
	return c.platform
}

// Capability returns a negotiated capability. Names are tried as given and
// with the appium: vendor prefix.
func (c *Client) Capability(name string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.caps[name]; ok {
		return v
	}
	if !strings.Contains(name, ":") {
		if v, ok := c.caps["appium:"+name]; ok {
			return v
		}
	}
	return nil
}

// WindowSize returns the screen dimensions, fetched once per session.
func (c *Client) WindowSize() (int, int, error) {
	c.mu.Lock()
	w, h := c.screenW, c.screenH
	c.mu.Unlock()
	if w > 0 && h > 0 {
		return w, h, nil
	}

	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return 0, 0, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return 0, 0, fmt.Errorf("invalid window rect response")
	}
	wf, _ := value["width"].(float64)
	hf, _ := value["height"].(float64)

	c.mu.Lock()
	c.screenW, c.screenH = int(wf), int(hf)
	c.mu.Unlock()
	return int(wf), int(hf), nil
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Element Operations

// FindElements finds every element matching the locator.
func (c *Client) FindElements(by core.By) ([]string, error) {
	body := map[string]interface{}{
		"using": by.Using,
		"value": by.Value,
	}

	resp, err := c.post(c.sessionPath()+"/elements", body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ActiveElement returns the currently focused element.
func (c *Client) ActiveElement() (string, error) {
	resp, err := c.get(c.sessionPath() + "/element/active")
	if err != nil {
		return "", err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if id := extractElementID(value); id != "" {
			return id, nil
		}
	}
	return "", core.ErrElementNotFound.WithMessage("no active element")
}

// Click clicks an element using WebDriver standard endpoint.
func (c *Client) Click(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// Clear clears an element's text.
func (c *Client) Clear(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", map[string]interface{}{})
	return err
}

// SendKeys types text into an element.
func (c *Client) SendKeys(elementID, text string) error {
	chars := make([]string, 0, len(text))
	for _, ch := range text {
		chars = append(chars, string(ch))
	}
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text":  text,
		"value": chars,
	})
	return err
}

// IsDisplayed checks if element is visible.
func (c *Client) IsDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsEnabled checks if element is enabled.
func (c *Client) IsEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// Touch (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Device

// HideKeyboard hides the on-screen keyboard.
func (c *Client) HideKeyboard() error {
	_, err := c.post(c.sessionPath()+"/appium/device/hide_keyboard", map[string]interface{}{})
	return err
}

// CurrentPackage returns the foreground Android package. Appium 2 dropped
// the legacy endpoint, so mobile: getCurrentPackage is tried second.
func (c *Client) CurrentPackage() (string, error) {
	resp, err := c.get(c.sessionPath() + "/appium/device/current_package")
	if err == nil {
		if pkg, ok := resp["value"].(string); ok && pkg != "" {
			return pkg, nil
		}
	}
	value, mobileErr := c.ExecuteMobile("getCurrentPackage", map[string]interface{}{})
	if mobileErr != nil {
		if err != nil {
			return "", err
		}
		return "", mobileErr
	}
	pkg, _ := value.(string)
	return pkg, nil
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request(http.MethodGet, path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request(http.MethodPost, path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request(http.MethodDelete, path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if err := webDriverError(result); err != nil {
		return result, err
	}
	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	return result, nil
}

// webDriverError converts a W3C error payload into an error. Lookup
// failures become core.ErrElementNotFound so callers can skip them.
func webDriverError(result map[string]interface{}) error {
	errValue, ok := result["value"].(map[string]interface{})
	if !ok {
		return nil
	}
	errType, ok := errValue["error"].(string)
	if !ok || errType == "" {
		return nil
	}
	errMsg, _ := errValue["message"].(string)
	err := fmt.Errorf("%s: %s", errType, errMsg)
	if lookupErrors[errType] {
		return core.ErrElementNotFound.WithCause(err)
	}
	if errType == "session not created" {
		return core.ErrSessionNotCreated.WithCause(err)
	}
	return err
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
