package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/styles"
	"github.com/colonyops/toaster/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "toaster config validate [options]",
				Description: "Validates the configuration file, checking cron specs, schedule files, and toast settings.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	errs := flattenErrors(cfg.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cfg.Warnings()

	if cmd.format == "json" {
		out := struct {
			Valid     bool                       `json:"valid"`
			Errors    []validationError          `json:"errors,omitempty"`
			Warnings  []config.ValidationWarning `json:"warnings,omitempty"`
			Schedules []string                   `json:"schedules"`
		}{
			Valid:     len(errs) == 0,
			Errors:    errs,
			Warnings:  warnings,
			Schedules: cfg.ScheduleNames(),
		}
		if err := iojson.New(c.Root().Writer, os.Stderr).Encode(out); err != nil {
			return err
		}
		if len(errs) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	return cmd.outputText(c.Root().Writer, cfg, errs, warnings)
}

func (cmd *ConfigValidateCmd) outputText(w io.Writer, cfg *config.Config, errs []validationError, warnings []config.ValidationWarning) error {
	_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render("toaster config"))
	_, _ = fmt.Fprintln(w, styles.DividerStyle.Render(strings.Repeat("─", 40)))
	_, _ = fmt.Fprintf(w, "  %s %s\n", styles.MutedStyle.Render("file"), cmd.flags.ConfigPath)
	_, _ = fmt.Fprintf(w, "  %s %s\n", styles.MutedStyle.Render("theme"), cfg.Theme)
	_, _ = fmt.Fprintf(w, "  %s %d\n\n", styles.MutedStyle.Render("schedules"), len(cfg.Schedules))

	for _, warn := range warnings {
		item := ""
		if warn.Item != "" {
			item = " " + styles.MutedStyle.Render(warn.Item)
		}
		_, _ = fmt.Fprintf(w, "  %s %s:%s %s\n", styles.WarnStyle.Render("●"), warn.Category, item, warn.Message)
	}

	for _, e := range errs {
		_, _ = fmt.Fprintf(w, "  %s %s: %s\n", styles.FailStyle.Render("✘"), e.Field, e.Message)
	}

	_, _ = fmt.Fprintln(w)
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(w, styles.PassStyle.Render("✔ Configuration is valid"))
		return nil
	}

	_, _ = fmt.Fprintln(w, styles.FailStyle.Render(fmt.Sprintf("%d error(s) found", len(errs))))
	return cli.Exit("", 1)
}

// flattenErrors turns a criterio error tree into field/message pairs.
func flattenErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fe criterio.FieldErrors
	if !errors.As(err, &fe) {
		return []validationError{{Field: "config", Message: err.Error()}}
	}

	out := make([]validationError, 0, len(fe))
	for _, e := range fe {
		out = append(out, validationError{Field: e.Field, Message: e.Err.Error()})
	}
	return out
}
