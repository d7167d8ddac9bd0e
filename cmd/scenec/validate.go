// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"sync"

	"github.com/scenec/scenec/internal/flatten"
	"github.com/scenec/scenec/pkg/types"

	"github.com/spf13/cobra"
)

// rootOutcome is the result of flattening one root during validate.
type rootOutcome struct {
	arg  string
	root string
	code types.ExitCode
	op   string
	res  *flatten.Result
	err  error
}

func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <root>...",
		Short: "Check that collections flatten without errors",
		Long: `Check that collections flatten without errors.

Every root is flattened independently and concurrently. A status line is
printed per root in argument order; the command fails if any root fails.
Nothing is written to disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, app, args)
		},
	}
}

func runValidate(cmd *cobra.Command, app *App, args []string) error {
	s, err := app.session(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitConfig, "load configuration", app.opts.configPath, err)
	}

	outcomes := make([]rootOutcome, len(args))
	var wg sync.WaitGroup
	for i, arg := range args {
		outcomes[i].arg = arg
		root, err := s.documentPath(arg)
		if err != nil {
			outcomes[i].code, outcomes[i].op, outcomes[i].err = types.ExitUsage, "resolve root collection", err
			continue
		}
		outcomes[i].root = root

		wg.Add(1)
		go func(o *rootOutcome) {
			defer wg.Done()
			o.res, o.err = s.flattener.Flatten(o.root)
			if o.err != nil {
				o.code, o.op = types.ExitCompile, "flatten collection"
			}
		}(&outcomes[i])
	}
	wg.Wait()

	code := types.ExitOK
	for _, o := range outcomes {
		if o.err != nil {
			resource := o.root
			if resource == "" {
				resource = o.arg
			}
			app.report(o.code, o.op, resource, o.err)
			code = max(code, o.code)
			continue
		}
		fmt.Fprintf(app.stdout, "%s %s %s\n", successIcon, PathStyle.Render(o.root),
			SubtitleStyle.Render(summary(len(o.res.Instances), len(o.res.Artifacts))))
	}

	if code != types.ExitOK {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: code}
	}
	return nil
}
