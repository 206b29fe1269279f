package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from E2E_* environment variables.
// SKIP_APPIUM_TESTS is honored as an alias of E2E_SKIP.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"E2E_PLATFORM":       &c.Platform,
		"E2E_RUN_TARGET":     &c.Target,
		"E2E_APPIUM_URL":     &c.Appium.URL,
		"E2E_APPIUM_VERSION": &c.Appium.Version,

		"E2E_ANDROID_DEVICE_NAME":               &c.Android.Device.Name,
		"E2E_ANDROID_DEVICE_UDID":               &c.Android.Device.UDID,
		"E2E_ANDROID_DEVICE_PLATFORM_VERSION":   &c.Android.Device.PlatformVersion,
		"E2E_ANDROID_EMULATOR_NAME":             &c.Android.Emulator.Name,
		"E2E_ANDROID_EMULATOR_UDID":             &c.Android.Emulator.UDID,
		"E2E_ANDROID_EMULATOR_PLATFORM_VERSION": &c.Android.Emulator.PlatformVersion,
		"E2E_ANDROID_APP_PACKAGE":               &c.Android.AppPackage,
		"E2E_ANDROID_APP_ACTIVITY":              &c.Android.AppActivity,
		"E2E_ANDROID_APP_PATH":                  &c.Android.AppPath,

		"E2E_IOS_DEVICE_NAME":                &c.IOS.Device.Name,
		"E2E_IOS_DEVICE_UDID":                &c.IOS.Device.UDID,
		"E2E_IOS_DEVICE_PLATFORM_VERSION":    &c.IOS.Device.PlatformVersion,
		"E2E_IOS_SIMULATOR_NAME":             &c.IOS.Simulator.Name,
		"E2E_IOS_SIMULATOR_UDID":             &c.IOS.Simulator.UDID,
		"E2E_IOS_SIMULATOR_PLATFORM_VERSION": &c.IOS.Simulator.PlatformVersion,
		"E2E_IOS_BUNDLE_ID":                  &c.IOS.BundleID,
		"E2E_IOS_APP_PATH":                   &c.IOS.AppPath,

		"E2E_LOGIN_EMAIL":            &c.Login.Email,
		"E2E_LOGIN_PASSWORD":         &c.Login.Password,
		"E2E_INVALID_LOGIN_EMAIL":    &c.InvalidLogin.Email,
		"E2E_INVALID_LOGIN_PASSWORD": &c.InvalidLogin.Password,
		"E2E_SIGNUP_OTP":             &c.Signup.OTP,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"E2E_NO_RESET":               &c.Appium.NoReset,
		"E2E_AUTO_GRANT_PERMISSIONS": &c.Appium.AutoGrantPermissions,
		"SKIP_APPIUM_TESTS":          &c.Skip,
		"E2E_SKIP":                   &c.Skip,
	}
	for _, key := range []string{"E2E_NO_RESET", "E2E_AUTO_GRANT_PERMISSIONS", "SKIP_APPIUM_TESTS", "E2E_SKIP"} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*bools[key] = b
	}

	if v, ok := lookup("E2E_COMMAND_TIMEOUT"); ok && v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("E2E_COMMAND_TIMEOUT: %w", err)
		}
		c.Appium.CommandTimeout = d
	}
	if v, ok := lookup("E2E_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("E2E_MAX_ATTEMPTS: %w", err)
		}
		c.Navigator.MaxAttempts = n
	}
	return nil
}

// parseSeconds accepts a Go duration ("90s") or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
