// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/scenec/scenec/internal/buildgraph"
	"github.com/scenec/scenec/pkg/types"

	"github.com/spf13/cobra"
)

func newDepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <root>",
		Short: "Show the document build order for a collection",
		Long: `Show the document build order for a collection.

Lists every document reachable from the root, leaves first, so each one
appears after everything it references. Each line shows the document kind,
its path and the path of its build output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, app, args[0])
		},
	}
}

func runDeps(cmd *cobra.Command, app *App, arg string) error {
	s, err := app.session(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitConfig, "load configuration", app.opts.configPath, err)
	}

	root, err := s.documentPath(arg)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, "resolve root collection", arg, err)
	}

	g, err := buildgraph.Build(s.loader, root, s.logger)
	if err != nil {
		return app.fail(cmd, types.ExitCompile, "build dependency graph", root, err)
	}
	nodes, err := g.Order()
	if err != nil {
		return app.fail(cmd, types.ExitCompile, "order dependency graph", root, err)
	}

	for _, n := range nodes {
		fmt.Fprintf(app.stdout, "%-10s %s -> %s\n", n.Kind, n.Path, n.Output)
	}
	return nil
}
