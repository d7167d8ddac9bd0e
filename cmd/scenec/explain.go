// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/scenec/scenec/internal/issue"
	"github.com/scenec/scenec/pkg/types"

	"github.com/spf13/cobra"
)

// ErrUnknownTopic is returned by explain for a name outside explainTopics.
var ErrUnknownTopic = errors.New("unknown topic")

// explainTopics maps the names accepted by `scenec explain` to catalog entries.
var explainTopics = map[string]issue.Id{
	"not-found":      issue.DocumentNotFoundId,
	"parse":          issue.DocumentParseErrorId,
	"reference":      issue.UnresolvedReferenceId,
	"cycle":          issue.CollectionCycleId,
	"duplicate-id":   issue.DuplicateInstanceId,
	"property":       issue.InvalidPropertyId,
	"override":       issue.InvalidOverrideTargetId,
	"path-collision": issue.GeneratedPathCollisionId,
	"config":         issue.ConfigLoadFailedId,
	"output":         issue.OutputWriteFailedId,
}

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [topic]",
		Short: "Explain a class of compile error",
		Long: `Explain a class of compile error.

Without a topic, lists the available topics. Topics: ` + strings.Join(topicNames(), ", ") + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range topicNames() {
					fmt.Fprintf(app.stdout, "%s %s\n", infoIcon, name)
				}
				return nil
			}
			return runExplain(cmd, app, args[0], style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light or notty")
	return cmd
}

func runExplain(cmd *cobra.Command, app *App, topic, style string) error {
	id, ok := explainTopics[strings.ToLower(topic)]
	if !ok {
		return app.fail(cmd, types.ExitUsage, "explain", topic,
			fmt.Errorf("%w %q (want one of %s)", ErrUnknownTopic, topic, strings.Join(topicNames(), ", ")))
	}
	md, err := issue.Get(id).Render(style)
	if err != nil {
		return app.fail(cmd, types.ExitIO, "render explanation", topic, err)
	}
	fmt.Fprint(app.stdout, md)
	return nil
}

func topicNames() []string {
	names := make([]string, 0, len(explainTopics))
	for name := range explainTopics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
