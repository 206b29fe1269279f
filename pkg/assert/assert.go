// Package assert holds the post-condition checks run at the end of a test
// case. An assertion failure is the only outcome that fails a case.
package assert

import (
	"fmt"
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/pages"
)

// Outcome is the result of one check.
type Outcome struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Err returns nil for a passing outcome and an ErrAssertionFailed otherwise.
func (o Outcome) Err() error {
	if o.Passed {
		return nil
	}
	return core.ErrAssertionFailed.
		WithMessage(fmt.Sprintf("%s: %s", o.Name, o.Detail)).
		WithDetails(map[string]interface{}{"assertion": o.Name})
}

func outcome(name string, passed bool, format string, args ...interface{}) Outcome {
	o := Outcome{Name: name, Passed: passed, Detail: fmt.Sprintf(format, args...)}
	if passed {
		logger.Info("assert %s: passed (%s)", name, o.Detail)
	} else {
		logger.Error("assert %s: FAILED (%s)", name, o.Detail)
	}
	return o
}

// HomeDisplayed passes when the home screen is shown.
func HomeDisplayed(home *pages.HomePage) Outcome {
	ok, desc := home.IsDisplayed()
	if ok {
		return outcome("home displayed", true, "matched %s", desc)
	}
	return outcome("home displayed", false, "home screen not shown; checked %s", desc)
}

// LoginRejected passes when an error message is shown or the app did not
// reach the home screen.
func LoginRejected(login *pages.LoginPage, home *pages.HomePage) Outcome {
	if login.IsErrorDisplayed() {
		return outcome("login rejected", true, "error shown: %q", login.ErrorText())
	}
	ok, desc := home.IsDisplayed()
	if !ok {
		return outcome("login rejected", true, "still on login screen")
	}
	return outcome("login rejected", false, "reached home with invalid credentials (%s)", desc)
}

// AppLaunched passes when the app under test is in the foreground: the
// current package on Android, the session bundle id on iOS.
func AppLaunched(sess core.Session, appID string) Outcome {
	if sess.Platform() == "ios" {
		got := core.CapabilityString(sess, "bundleId")
		return outcome("app launched", got == appID, "bundle id %q, want %q", got, appID)
	}
	got, err := sess.CurrentPackage()
	if err != nil {
		return outcome("app launched", false, "current package: %v", err)
	}
	return outcome("app launched", got == appID, "package %q, want %q", got, appID)
}

// DeviceCapabilities are the capabilities every session must report.
var DeviceCapabilities = []string{"platformName", "deviceName", "platformVersion"}

// CapabilitiesPresent passes when every named capability is set.
func CapabilitiesPresent(sess core.Session, names ...string) Outcome {
	if len(names) == 0 {
		names = DeviceCapabilities
	}
	var missing, found []string
	for _, name := range names {
		v := sess.Capability(name)
		if v == nil {
			v = sess.Capability("appium:" + name)
		}
		if v == nil || fmt.Sprint(v) == "" {
			missing = append(missing, name)
			continue
		}
		found = append(found, fmt.Sprintf("%s=%v", name, v))
	}
	if len(missing) > 0 {
		return outcome("device capabilities", false, "missing %s", strings.Join(missing, ", "))
	}
	return outcome("device capabilities", true, "%s", strings.Join(found, ", "))
}

// First returns the first failing outcome's error, or nil.
func First(outcomes ...Outcome) error {
	for _, o := range outcomes {
		if err := o.Err(); err != nil {
			return err
		}
	}
	return nil
}
