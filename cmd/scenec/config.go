// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/scenec/scenec/internal/config"
	"github.com/scenec/scenec/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `scenec config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage scenec configuration",
		Long: `Manage scenec configuration.

Configuration is read from the nearest ` + config.FileName() + ` found by walking
up from the working directory (or --project), or from --config. Environment
variables prefixed with ` + config.EnvPrefix + `_ override file values, for example
` + config.EnvPrefix + `_OUTPUT_FORMAT=yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create " + config.FileName() + " with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	s, err := app.session(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitConfig, "load configuration", app.opts.configPath, err)
	}

	source := s.cfgPath
	if source == "" {
		source = "(using defaults)"
	}
	fmt.Fprintf(app.stdout, "// source: %s\n", source)
	fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
	return nil
}

func initConfig(cmd *cobra.Command, app *App, force bool) error {
	dir := app.opts.projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return app.fail(cmd, types.ExitIO, "create configuration", "", err)
		}
		dir = wd
	}

	path, err := config.CreateDefaultConfig(dir, force)
	if err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			fmt.Fprintf(app.stderr, "%s %s already exists (use --force to overwrite)\n",
				WarningStyle.Render("!"), PathStyle.Render(path))
			return &ExitError{Code: types.ExitConfig}
		}
		return app.fail(cmd, types.ExitIO, "create configuration", path, err)
	}
	fmt.Fprintf(app.stdout, "%s created %s\n", successIcon, PathStyle.Render(path))
	return nil
}
