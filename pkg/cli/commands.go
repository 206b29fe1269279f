package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
	"github.com/magnolia-collective/wellness-e2e/pkg/suite"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the test cases",
	Action: func(c *cli.Context) error {
		for _, tc := range suite.Cases() {
			fmt.Fprintf(c.App.Writer, "  %-22s %s\n", tc.Name, tc.Description)
		}
		return nil
	},
}

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Print the resolved configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		cfg.Print(c.App.Writer)
		return nil
	},
}

func hierarchyCommand(open suite.Opener) *cli.Command {
	return &cli.Command{
		Name:  "hierarchy",
		Usage: "Print the view hierarchy of the app under test",
		Description: `Open a session, print the visible elements and the detected screen in
JSON or CSV format, then quit.

Examples:
  wellness-e2e hierarchy
  wellness-e2e hierarchy --compact`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Output in CSV format",
			},
		},
		Action: func(c *cli.Context) error {
			return runHierarchy(c, open)
		},
	}
}

// hierarchyNode is one element of the hierarchy output.
type hierarchyNode struct {
	Depth     int    `json:"depth"`
	Class     string `json:"class"`
	Text      string `json:"text,omitempty"`
	Bounds    string `json:"bounds"`
	Clickable bool   `json:"clickable,omitempty"`
	Enabled   bool   `json:"enabled"`
	Input     bool   `json:"input,omitempty"`
}

type hierarchyOutput struct {
	Platform string          `json:"platform"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Screen   string          `json:"screen"`
	Elements []hierarchyNode `json:"elements"`
}

func runHierarchy(c *cli.Context, open suite.Opener) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dets, err := suite.Detectors(cfg)
	if err != nil {
		return err
	}

	sess, err := open(c.Context, cfg)
	if err != nil {
		return err
	}
	defer sess.Quit()

	snap, err := screen.Capture(sess)
	if err != nil {
		return err
	}

	out := hierarchyOutput{
		Platform: snap.Platform,
		Width:    snap.Width,
		Height:   snap.Height,
		Screen:   dets.Detect(snap),
		Elements: []hierarchyNode{},
	}
	for _, e := range snap.FindAll(screen.Visible()) {
		b := e.Bounds
		out.Elements = append(out.Elements, hierarchyNode{
			Depth:     e.Depth,
			Class:     e.Class,
			Text:      e.DisplayText(),
			Bounds:    fmt.Sprintf("[%d,%d][%d,%d]", b.X, b.Y, b.X+b.Width, b.Y+b.Height),
			Clickable: e.Clickable,
			Enabled:   e.Enabled,
			Input:     e.IsInput(),
		})
	}

	if !c.Bool("compact") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	cw := csv.NewWriter(c.App.Writer)
	_ = cw.Write([]string{"depth", "class", "text", "bounds", "clickable", "enabled", "input"})
	for _, n := range out.Elements {
		_ = cw.Write([]string{
			strconv.Itoa(n.Depth), n.Class, n.Text, n.Bounds,
			strconv.FormatBool(n.Clickable), strconv.FormatBool(n.Enabled), strconv.FormatBool(n.Input),
		})
	}
	cw.Flush()
	return cw.Error()
}
