package config

import (
	"fmt"
	"io"
	"strings"
)

// Print writes the configuration banner shown before a run.
func (c *Config) Print(w io.Writer) {
	heavy := strings.Repeat("═", 80)
	light := strings.Repeat("─", 80)
	dev := c.ActiveDevice()

	fmt.Fprintln(w, heavy)
	fmt.Fprintln(w, "TEST CONFIGURATION")
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "Platform:   %s\n", strings.ToUpper(c.Platform))
	fmt.Fprintf(w, "Run Target: %s (%s)\n", strings.ToUpper(c.Target), c.TargetLabel())
	fmt.Fprintln(w, light)

	if c.IsAndroid() {
		fmt.Fprintln(w, "ANDROID CONFIGURATION:")
	} else {
		fmt.Fprintln(w, "iOS CONFIGURATION:")
	}
	fmt.Fprintf(w, "   Device Name:      %s\n", dev.Name)
	fmt.Fprintf(w, "   UDID:             %s\n", dev.UDID)
	fmt.Fprintf(w, "   Platform Version: %s\n", dev.PlatformVersion)
	if c.IsAndroid() {
		fmt.Fprintf(w, "   App Package:      %s\n", c.Android.AppPackage)
		fmt.Fprintf(w, "   App Activity:     %s\n", c.Android.AppActivity)
	} else {
		fmt.Fprintf(w, "   Bundle ID:        %s\n", c.IOS.BundleID)
	}
	fmt.Fprintf(w, "   App Path:         %s\n", c.AppPath())

	fmt.Fprintln(w, light)
	fmt.Fprintln(w, "COMMON SETTINGS:")
	fmt.Fprintf(w, "   Appium Server URL:      %s\n", c.ServerURL())
	fmt.Fprintf(w, "   Command Timeout:        %s\n", c.Appium.CommandTimeout)
	fmt.Fprintf(w, "   No Reset:               %t\n", c.Appium.NoReset)
	fmt.Fprintf(w, "   Auto Grant Permissions: %t\n", c.Appium.AutoGrantPermissions)
	fmt.Fprintf(w, "   Navigator Budget:       %d attempts, %s settle\n", c.Navigator.MaxAttempts, c.Navigator.SettleDelay)
	fmt.Fprintln(w, heavy)
}
