// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/scenec/scenec/internal/output"
	"github.com/scenec/scenec/internal/watch"
	"github.com/scenec/scenec/pkg/types"

	"github.com/spf13/cobra"
)

type (
	// flattenFlags holds the flags of `scenec flatten`.
	flattenFlags struct {
		format       string
		output       string
		artifactsDir string
		watch        bool
	}

	// flattenJob is one resolved flatten invocation.
	flattenJob struct {
		root         string
		format       output.Format
		output       string
		artifactsDir string
	}
)

func newFlattenCommand(app *App) *cobra.Command {
	var flags flattenFlags

	cmd := &cobra.Command{
		Use:   "flatten <root>",
		Short: "Flatten a collection into a single instance manifest",
		Long: `Flatten a collection into a single instance manifest.

The root is a collection path, either relative to the working directory or a
project path starting with "/". The manifest lists every game object instance
with its namespaced id, world transform relative to the root and resolved
component properties.

Embedded game objects and components are written as generated documents when
an artifacts directory is configured (--artifacts-dir or output.artifacts_dir).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlatten(cmd, app, &flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "manifest format: json, yaml, toml, cue or markdown (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the manifest to a file instead of stdout")
	cmd.Flags().StringVar(&flags.artifactsDir, "artifacts-dir", "", "directory for generated documents (default from config)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild when project documents change")

	return cmd
}

func runFlatten(cmd *cobra.Command, app *App, flags *flattenFlags, arg string) error {
	ctx := cmd.Context()
	s, err := app.session(ctx)
	if err != nil {
		return app.fail(cmd, types.ExitConfig, "load configuration", app.opts.configPath, err)
	}

	root, err := s.documentPath(arg)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, "resolve root collection", arg, err)
	}

	formatName := s.cfg.Output.Format.String()
	if cmd.Flags().Changed("format") {
		formatName = flags.format
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, "parse output format", formatName, err)
	}

	artifactsDir := s.cfg.Output.ArtifactsDir
	if cmd.Flags().Changed("artifacts-dir") {
		artifactsDir = flags.artifactsDir
	}

	job := flattenJob{
		root:         root,
		format:       format,
		output:       s.projectFile(flags.output),
		artifactsDir: s.projectFile(artifactsDir),
	}

	if !flags.watch {
		return app.flattenOnce(cmd, s, job)
	}
	return app.watchFlatten(ctx, cmd, s, job)
}

// flattenOnce compiles job.root and writes the manifest and artifacts.
func (a *App) flattenOnce(cmd *cobra.Command, s *session, job flattenJob) error {
	res, err := s.flattener.Flatten(job.root)
	if err != nil {
		return a.fail(cmd, types.ExitCompile, "flatten collection", job.root, err)
	}

	var buf bytes.Buffer
	if err := output.Write(&buf, job.format, output.FromResult(res)); err != nil {
		return a.fail(cmd, types.ExitIO, "render manifest", job.root, err)
	}

	if job.artifactsDir != "" {
		written, err := output.WriteArtifacts(job.artifactsDir, res.Artifacts)
		if err != nil {
			return a.fail(cmd, types.ExitIO, "write artifacts", job.artifactsDir, err)
		}
		s.logger.Debug("artifacts written", "dir", job.artifactsDir, "count", len(written))
	}

	if job.output == "" {
		if _, err := buf.WriteTo(a.stdout); err != nil {
			return a.fail(cmd, types.ExitIO, "write manifest", "stdout", err)
		}
		return nil
	}
	if err := output.WriteFile(job.output, buf.Bytes()); err != nil {
		return a.fail(cmd, types.ExitIO, "write manifest", job.output, err)
	}
	fmt.Fprintf(a.stdout, "%s %s %s\n", successIcon, PathStyle.Render(job.output),
		SubtitleStyle.Render(summary(len(res.Instances), len(res.Artifacts))))
	return nil
}

// watchFlatten builds once, then rebuilds on every debounced change until ctx
// is canceled.
func (a *App) watchFlatten(ctx context.Context, cmd *cobra.Command, s *session, job flattenJob) error {
	if job.output == "" {
		return a.fail(cmd, types.ExitUsage, "start watch mode", job.root,
			errors.New("--watch requires --output"))
	}

	if err := a.flattenOnce(cmd, s, job); err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != types.ExitCompile {
			return err
		}
	}

	ignore := slices.Clone(s.cfg.Watch.Ignore)
	for _, p := range []string{job.output, job.artifactsDir} {
		if rel, ok := relToRoot(s.cfg.ProjectRoot, p); ok {
			ignore = append(ignore, rel, rel+"/**")
		}
	}

	w, err := watch.New(s.cfg.ProjectRoot, watch.Options{
		Patterns: s.cfg.Watch.Patterns,
		Ignore:   ignore,
		Debounce: s.cfg.Watch.Debounce,
		Logger:   s.logger,
		OnChange: func(_ context.Context, changed []string) error {
			s.logger.Info("rebuilding", "root", job.root, "changed", strings.Join(changed, ", "))
			// Failures are already reported; keep watching.
			_ = a.flattenOnce(cmd, s, job)
			return nil
		},
	})
	if err != nil {
		return a.fail(cmd, types.ExitUsage, "start watch mode", s.cfg.ProjectRoot, err)
	}

	fmt.Fprintf(a.stderr, "%s watching %s (Ctrl+C to stop)\n", infoIcon, PathStyle.Render(w.Root()))
	if err := w.Run(ctx); err != nil {
		return a.fail(cmd, types.ExitIO, "watch project", w.Root(), err)
	}
	return nil
}

// relToRoot returns p as a slash path relative to root when p lies inside it.
func relToRoot(root, p string) (string, bool) {
	if p == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func summary(instances, artifacts int) string {
	return fmt.Sprintf("(%d %s, %d %s)", instances, plural(instances, "instance"), artifacts, plural(artifacts, "artifact"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
