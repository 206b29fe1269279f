package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/magnolia-collective/wellness-e2e/pkg/config"
	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/suite"
)

func runCommand(open suite.Opener) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run test cases",
		ArgsUsage: "[case...]",
		Description: `Run the named cases, or every case when none is given.

The report is written to the output directory:
  - Default: <home>/reports/<timestamp>/report.json (home: $WELLNESS_E2E_HOME)
  - With --output: <output>/<timestamp>/report.json
  - With --output and --flatten: <output>/report.json

The exit status is non-zero when any case failed or errored.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output directory for reports (default: <home>/reports)",
			},
			&cli.BoolFlag{
				Name:  "flatten",
				Usage: "Don't create timestamp subfolder (requires --output)",
			},
		},
		Action: func(c *cli.Context) error {
			return runCases(c, open)
		},
	}
}

func runCases(c *cli.Context, open suite.Opener) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if c.String("log-file") == "" {
		if err := logger.Init(filepath.Join(outputDir, "wellness-e2e.log")); err != nil {
			logger.Warn("Failed to initialize log file: %v", err)
		}
	}

	w := c.App.Writer
	cfg.Print(w)

	runner, err := suite.New(cfg, open)
	if err != nil {
		return err
	}
	runner.OutputDir = outputDir

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Test execution started ===")
	logger.Info("Output directory: %s", outputDir)
	idx, err := runner.Run(ctx, c.Args().Slice())
	if err != nil {
		return err
	}

	printSummary(w, idx)
	fmt.Fprintf(w, "\n  Report: %s%s%s\n\n", color(colorCyan), filepath.Join(outputDir, "report.json"), color(colorReset))

	if err := context.Cause(ctx); err != nil {
		return cli.Exit(err.Error(), 130)
	}
	if idx.Status.IsFailure() {
		return cli.Exit(fmt.Sprintf("%d case(s) failed", idx.Summary.Failed+idx.Summary.Errored), 1)
	}
	return nil
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <home>/reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.GetReportsDir()
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}
