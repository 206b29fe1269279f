// Package cli provides the command-line interface for wellness-e2e.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/suite"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to wellness-e2e.yaml (default: search the current directory)",
		EnvVars: []string{"E2E_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to run on (android, ios)",
	},
	&cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Run target (emulator, simulator, device)",
	},
	&cli.StringFlag{
		Name:  "appium-url",
		Usage: "Appium server URL",
	},
	&cli.BoolFlag{
		Name:  "skip",
		Usage: "Skip every case without opening a session",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"E2E_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Also append logs to this file",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the application. open creates device sessions; nil opens
// Appium sessions. Exit codes are left to the caller.
func NewApp(open suite.Opener) *cli.App {
	if open == nil {
		open = suite.OpenAppium
	}
	return &cli.App{
		Name:    "wellness-e2e",
		Usage:   "End-to-end UI suite for the Magnolia wellness app",
		Version: Version,
		Description: `Runs the login, onboarding and home-screen cases against an Appium server.

Examples:
  wellness-e2e run
  wellness-e2e run login-valid signup
  wellness-e2e --platform ios --target simulator run
  wellness-e2e hierarchy --compact`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			logger.SetVerbose(c.Bool("verbose"))
			if path := c.String("log-file"); path != "" {
				return logger.Init(path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			runCommand(open),
			listCommand,
			configCommand,
			hierarchyCommand(open),
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp(nil).Run(os.Args); err != nil {
		code := 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		os.Exit(code)
	}
}

// isSet reports whether name was set on c or any parent context.
func isSet(c *cli.Context, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return true
		}
	}
	return false
}

// loadConfig resolves the configuration and applies the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := config.Overrides{
		Platform:  c.String("platform"),
		Target:    c.String("target"),
		AppiumURL: c.String("appium-url"),
	}
	if isSet(c, "skip") {
		skip := c.Bool("skip")
		o.Skip = &skip
	}
	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
