// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for scenec.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/scenec/scenec/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scenec",
		Short: "A scene collection flattening compiler",
		Long: TitleStyle.Render("scenec") + SubtitleStyle.Render(" - A scene collection flattening compiler") + `

scenec inlines nested sub-collections into a single flat list of game
object instances. Ids are namespaced by their sub-collection path, transforms
are composed down the tree and property overrides are merged so that the
override nearest the root collection wins. Embedded game objects and
components are extracted into generated documents.

` + SubtitleStyle.Render("Examples:") + `
  scenec flatten /main.collection             Print the flat manifest as JSON
  scenec flatten main.collection -f yaml      Same, rendered as YAML
  scenec validate levels/*.collection         Check several roots at once
  scenec deps /main.collection                Show the document build order
  scenec config init                          Create scenec.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.opts.configPath, "config", "", "config file (default is scenec.cue in the project tree)")
	flags.StringVarP(&app.opts.projectDir, "project", "C", "", "directory to start the project search from")

	rootCmd.AddCommand(
		newFlattenCommand(app),
		newValidateCommand(app),
		newDepsCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)
	return rootCmd
}

// versionString returns a formatted version string for display.
func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand(NewApp(Dependencies{}))
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return int(types.ExitOK)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}
	return int(types.ExitUsage)
}
