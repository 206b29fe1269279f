// Package config handles configuration for the wellness e2e suite.
//
// Resolution order (later wins): built-in defaults, wellness-e2e.yaml,
// variables from .env, process environment (E2E_*), CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
)

// Platforms and run targets.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"

	TargetDevice   = "device"
	TargetEmulator = "emulator"
)

// Config represents the suite configuration (wellness-e2e.yaml).
type Config struct {
	Platform string `yaml:"platform"` // android, ios
	Target   string `yaml:"target"`   // device, emulator (simulator on iOS)
	Skip     bool   `yaml:"skip"`     // skip every case without opening a session

	Appium  Appium  `yaml:"appium"`
	Android Android `yaml:"android"`
	IOS     IOS     `yaml:"ios"`

	Timing    Timing    `yaml:"timing"`
	Navigator Navigator `yaml:"navigator"`

	Login        Credentials `yaml:"login"`
	InvalidLogin Credentials `yaml:"invalidLogin"`
	Signup       Signup      `yaml:"signup"`

	// Detectors are extra screen detectors written as JavaScript
	// expressions over the `screen` object, keyed by screen name.
	Detectors map[string]string `yaml:"detectors"`
}

// Appium holds server and session settings.
type Appium struct {
	URL                  string        `yaml:"url"`
	Version              string        `yaml:"version"` // major < 2 serves under /wd/hub
	CommandTimeout       time.Duration `yaml:"commandTimeout"`
	NoReset              bool          `yaml:"noReset"`
	AutoGrantPermissions bool          `yaml:"autoGrantPermissions"`
}

// DeviceProfile identifies one physical device or emulator.
type DeviceProfile struct {
	Name            string `yaml:"name"`
	UDID            string `yaml:"udid"`
	PlatformVersion string `yaml:"platformVersion"`
}

// Android holds Android device and app identity.
type Android struct {
	Device      DeviceProfile `yaml:"device"`
	Emulator    DeviceProfile `yaml:"emulator"`
	AppPackage  string        `yaml:"appPackage"`
	AppActivity string        `yaml:"appActivity"`
	AppPath     string        `yaml:"appPath"`
}

// IOS holds iOS device and app identity.
type IOS struct {
	Device    DeviceProfile `yaml:"device"`
	Simulator DeviceProfile `yaml:"simulator"`
	BundleID  string        `yaml:"bundleId"`
	AppPath   string        `yaml:"appPath"`
}

// Timing holds the fixed delays and wait bounds used by pages and flows.
type Timing struct {
	WaitTimeout     time.Duration `yaml:"waitTimeout"`     // bounded element waits
	PollInterval    time.Duration `yaml:"pollInterval"`    // polling inside waits
	AppReady        time.Duration `yaml:"appReady"`        // after session start
	ActionDelay     time.Duration `yaml:"actionDelay"`     // after a tap or selection
	TransitionDelay time.Duration `yaml:"transitionDelay"` // after a screen-changing tap
	PostSubmit      time.Duration `yaml:"postSubmit"`      // before final assertions
}

// Navigator bounds the adaptive onboarding loop.
type Navigator struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	SettleDelay time.Duration `yaml:"settleDelay"`
}

// Credentials for the login cases.
type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Signup is the test data entered during onboarding.
type Signup struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Pronoun   string `yaml:"pronoun"`
	Country   string `yaml:"country"`
	OTP       string `yaml:"otp"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Platform: PlatformAndroid,
		Target:   TargetEmulator,
		Appium: Appium{
			URL:                  "http://127.0.0.1:4723",
			Version:              "2",
			CommandTimeout:       60 * time.Second,
			AutoGrantPermissions: true,
		},
		Android: Android{
			Device:      DeviceProfile{Name: "Android Device", UDID: "", PlatformVersion: "15"},
			Emulator:    DeviceProfile{Name: "sdk_gphone64_x86_64", UDID: "emulator-5554", PlatformVersion: "15"},
			AppPackage:  "com.magnoliacollectivewellness.app.dev",
			AppActivity: "com.magnoliacollectivewellness.app.MainActivity",
			AppPath:     "./app/app-debug.apk",
		},
		IOS: IOS{
			Device:    DeviceProfile{Name: "iPhone", UDID: "auto", PlatformVersion: "16.0"},
			Simulator: DeviceProfile{Name: "iPhone 14", UDID: "auto", PlatformVersion: "16.0"},
			BundleID:  "com.magnoliacollectivewellness.app",
			AppPath:   "./app/Magnolia.app",
		},
		Timing: Timing{
			WaitTimeout:     15 * time.Second,
			PollInterval:    250 * time.Millisecond,
			AppReady:        2 * time.Second,
			ActionDelay:     500 * time.Millisecond,
			TransitionDelay: 1500 * time.Millisecond,
			PostSubmit:      5 * time.Second,
		},
		Navigator: Navigator{
			MaxAttempts: 20,
			SettleDelay: 1500 * time.Millisecond,
		},
		InvalidLogin: Credentials{
			Email:    "invalid@email.com",
			Password: "WrongPassword@123",
		},
		Signup: Signup{
			FirstName: "Test",
			LastName:  "User",
			Pronoun:   "She/Her",
			Country:   "United States",
			OTP:       "1234",
		},
	}
}

// FileNames are the config file names looked up by LoadFromDir.
var FileNames = []string{"wellness-e2e.yaml", "wellness-e2e.yml"}

// Load reads defaults, the YAML file at path, .env and the environment.
// An empty path searches the current directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromDir(".")
	}

	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return finish(cfg, filepath.Dir(path))
}

// LoadFromDir looks for wellness-e2e.yaml or wellness-e2e.yml in the directory.
// Without a file the defaults are used.
func LoadFromDir(dir string) (*Config, error) {
	path, err := findInDir(dir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		return Load(path)
	}
	return finish(Default(), dir)
}

func finish(cfg *Config, dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func findInDir(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Overrides are values given on the command line. Empty fields and nil
// pointers leave the configuration unchanged.
type Overrides struct {
	Platform  string
	Target    string
	AppiumURL string
	Skip      *bool
}

// Apply sets the non-empty overrides, the last step of resolution.
func (c *Config) Apply(o Overrides) {
	if o.Platform != "" {
		c.Platform = o.Platform
	}
	if o.Target != "" {
		c.Target = o.Target
	}
	if o.AppiumURL != "" {
		c.Appium.URL = o.AppiumURL
	}
	if o.Skip != nil {
		c.Skip = *o.Skip
	}
	c.normalize()
}

func (c *Config) normalize() {
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	if c.Target == "simulator" {
		c.Target = TargetEmulator
	}
}

// Validate checks the selected platform/target and version strings.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf(format, args...))
	}

	switch c.Platform {
	case PlatformAndroid, PlatformIOS:
	default:
		return invalid("platform must be android or ios, got %q", c.Platform)
	}
	switch c.Target {
	case TargetDevice, TargetEmulator:
	default:
		return invalid("target must be device or emulator, got %q", c.Target)
	}

	u, err := url.Parse(c.Appium.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("appium url %q is not an absolute URL", c.Appium.URL)
	}
	if _, err := semver.NewVersion(c.Appium.Version); err != nil {
		return invalid("appium version %q: %v", c.Appium.Version, err)
	}
	if v := c.ActiveDevice().PlatformVersion; v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return invalid("platform version %q: %v", v, err)
		}
	}
	if c.AppID() == "" {
		return invalid("app id is required for %s", c.Platform)
	}
	if c.Navigator.MaxAttempts <= 0 {
		return invalid("navigator.maxAttempts must be positive")
	}
	return nil
}

// IsAndroid reports whether the Android platform is selected.
func (c *Config) IsAndroid() bool { return c.Platform == PlatformAndroid }

// IsIOS reports whether the iOS platform is selected.
func (c *Config) IsIOS() bool { return c.Platform == PlatformIOS }

// IsDevice reports whether a real device is targeted.
func (c *Config) IsDevice() bool { return c.Target == TargetDevice }

// ActiveDevice returns the device profile for the selected platform and target.
func (c *Config) ActiveDevice() DeviceProfile {
	if c.IsAndroid() {
		if c.IsDevice() {
			return c.Android.Device
		}
		return c.Android.Emulator
	}
	if c.IsDevice() {
		return c.IOS.Device
	}
	return c.IOS.Simulator
}

// AppID returns the Android package or iOS bundle id.
func (c *Config) AppID() string {
	if c.IsAndroid() {
		return c.Android.AppPackage
	}
	return c.IOS.BundleID
}

// AppPath returns the app binary path for the selected platform.
func (c *Config) AppPath() string {
	if c.IsAndroid() {
		return c.Android.AppPath
	}
	return c.IOS.AppPath
}

// TargetLabel returns the human label for the run target.
func (c *Config) TargetLabel() string {
	switch {
	case c.IsDevice():
		return "REAL DEVICE"
	case c.IsAndroid():
		return "EMULATOR"
	default:
		return "SIMULATOR"
	}
}

// ServerURL returns the Appium endpoint. Appium 1.x serves under /wd/hub.
func (c *Config) ServerURL() string {
	base := strings.TrimSuffix(c.Appium.URL, "/")
	v, err := semver.NewVersion(c.Appium.Version)
	if err != nil || v.Major() >= 2 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil || (u.Path != "" && u.Path != "/") {
		return base
	}
	return base + "/wd/hub"
}

// Capabilities builds the W3C capabilities for a new session.
func (c *Config) Capabilities() map[string]interface{} {
	dev := c.ActiveDevice()
	caps := map[string]interface{}{
		"appium:deviceName":        dev.Name,
		"appium:newCommandTimeout": int(c.Appium.CommandTimeout / time.Second),
		"appium:noReset":           c.Appium.NoReset,
	}
	if dev.PlatformVersion != "" {
		caps["appium:platformVersion"] = dev.PlatformVersion
	}
	if dev.UDID != "" && !strings.EqualFold(dev.UDID, "auto") {
		caps["appium:udid"] = dev.UDID
	}

	if c.IsAndroid() {
		caps["platformName"] = "Android"
		caps["appium:automationName"] = "UiAutomator2"
		caps["appium:appPackage"] = c.Android.AppPackage
		caps["appium:appActivity"] = c.Android.AppActivity
		caps["appium:autoGrantPermissions"] = c.Appium.AutoGrantPermissions
		return caps
	}

	caps["platformName"] = "iOS"
	caps["appium:automationName"] = "XCUITest"
	caps["appium:bundleId"] = c.IOS.BundleID
	return caps
}
