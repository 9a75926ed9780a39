package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/toaster/internal/core/logging"
	"github.com/colonyops/toaster/internal/core/script"
	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/pkg/iojson"
)

type SimulateCmd struct {
	flags   *Flags
	json    bool
	verbose bool
}

// NewSimulateCmd creates a new simulate command.
func NewSimulateCmd(flags *Flags) *SimulateCmd {
	return &SimulateCmd{flags: flags}
}

// Register adds the simulate command to the application.
func (cmd *SimulateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "simulate",
		Aliases:   []string{"sim"},
		Usage:     "Run notification scripts on a simulated clock",
		UsageText: "toaster simulate [options] [script.yaml|glob ...]",
		Description: `Runs YAML scripts against a fresh notification engine on a fake clock and
prints the resulting timeline. Arguments may be paths or ** globs. With no
arguments the script is read from stdin.

Exits with status 1 when any expectation fails.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print results as JSON",
				Destination: &cmd.json,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Aliases:     []string{"v"},
				Usage:       "print every step, not only failures",
				Destination: &cmd.verbose,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SimulateCmd) run(ctx context.Context, c *cli.Command) error {
	scripts, err := cmd.load(c.Args().Slice())
	if err != nil {
		if cmd.json {
			_ = iojson.New(c.Root().Writer, os.Stderr).Fail("failed to load scripts", map[string]any{"error": err.Error()})
			return cli.Exit("", 1)
		}
		return err
	}

	runner := script.NewRunner(logging.Component("simulate"))

	results := make([]*script.Result, 0, len(scripts))
	for _, s := range scripts {
		res, err := runner.Run(ctx, s)
		if err != nil {
			return fmt.Errorf("run %s: %w", s.Name, err)
		}
		results = append(results, res)
	}

	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}

	if cmd.json {
		if err := iojson.New(c.Root().Writer, os.Stderr).Encode(results); err != nil {
			return err
		}
	} else {
		w := c.Root().Writer
		for _, res := range results {
			cmd.printResult(w, res)
		}
		summary := styles.PassStyle.Render(fmt.Sprintf("%d passed", len(results)-failed))
		if failed > 0 {
			summary += "  " + styles.FailStyle.Render(fmt.Sprintf("%d failed", failed))
		}
		_, _ = fmt.Fprintln(w, summary)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *SimulateCmd) load(args []string) ([]*script.Script, error) {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("no input provided (stdin is a terminal); pass script paths or pipe a script")
		}
		s, err := script.Parse(os.Stdin, "stdin")
		if err != nil {
			return nil, err
		}
		return []*script.Script{s}, nil
	}

	paths, err := expandPaths(args)
	if err != nil {
		return nil, err
	}

	scripts := make([]*script.Script, 0, len(paths))
	for _, p := range paths {
		s, err := script.Load(p)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// expandPaths resolves globs and keeps literal paths as given. Duplicates
// are dropped while preserving order.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			out = append(out, arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no scripts match %q", arg)
		}
		slices.Sort(matches)
		out = append(out, matches...)
	}

	seen := make(map[string]bool, len(out))
	return slices.DeleteFunc(out, func(p string) bool {
		if seen[p] {
			return true
		}
		seen[p] = true
		return false
	}), nil
}

func (cmd *SimulateCmd) printResult(w io.Writer, res *script.Result) {
	status := styles.PassStyle.Render("✔")
	if !res.Passed {
		status = styles.FailStyle.Render("✘")
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", status, styles.CommandHeaderStyle.Render(res.Script))

	for _, step := range res.Steps {
		if !cmd.verbose && len(step.Failures) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "  %s %s\n",
			styles.MutedStyle.Render(fmt.Sprintf("%3d %8s", step.Index, step.At)),
			styles.CommandStyle.Render(step.Action))

		if cmd.verbose {
			for _, tr := range step.Transitions {
				line := tr.Kind + " " + tr.ID
				if tr.Reason != "" {
					line += " (" + tr.Reason + ")"
				}
				_, _ = fmt.Fprintf(w, "      %s\n", styles.MutedStyle.Render(line))
			}
			_, _ = fmt.Fprintf(w, "      %s\n", styles.DividerStyle.Render(fmt.Sprintf(
				"visible [%s] pending [%s]", strings.Join(step.Visible, " "), strings.Join(step.Pending, " "))))
		}

		for _, f := range step.Failures {
			_, _ = fmt.Fprintf(w, "      %s\n", styles.FailStyle.Render(f))
		}
	}
}
