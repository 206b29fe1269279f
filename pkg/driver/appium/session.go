package appium

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
)

// Connection retry policy for an Appium server that is still starting.
var (
	ConnectRetries    uint64 = 2
	ConnectRetryDelay        = 3 * time.Second
)

// Open creates a session for the configured platform and target. Only an
// unreachable server is retried; a rejected session fails immediately.
func Open(ctx context.Context, cfg *config.Config) (*Client, error) {
	client := NewClient(cfg.ServerURL())
	caps := cfg.Capabilities()

	logger.Info("Creating %s session on %s (%s)", cfg.Platform, cfg.ServerURL(), cfg.TargetLabel())
	logger.Debug("Capabilities: %v", caps)

	attempt := 0
	op := func() error {
		attempt++
		err := client.Connect(caps)
		if err == nil {
			return nil
		}
		if !errors.Is(err, core.ErrServerUnreachable) {
			return backoff.Permanent(err)
		}
		logger.Warn("Appium server unreachable (attempt %d): %v", attempt, err)
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(ConnectRetryDelay), ConnectRetries),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		logger.Error("Session creation failed: %v", err)
		return nil, err
	}

	logger.Info("Session %s created", client.SessionID())
	return client, nil
}

// Info describes the device and app of the session from its capabilities.
func (c *Client) Info() core.PlatformInfo {
	info := core.PlatformInfo{
		Platform:        c.platform,
		PlatformVersion: core.CapabilityString(c, "platformVersion"),
		DeviceName:      core.CapabilityString(c, "deviceName"),
		UDID:            core.CapabilityString(c, "udid"),
	}
	if c.platform == "ios" {
		info.AppID = core.CapabilityString(c, "bundleId")
	} else {
		info.AppID = core.CapabilityString(c, "appPackage")
	}
	c.mu.Lock()
	info.ScreenWidth, info.ScreenHeight = c.screenW, c.screenH
	c.mu.Unlock()
	return info
}
