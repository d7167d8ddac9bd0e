// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scenec/scenec/internal/config"
	"github.com/scenec/scenec/internal/flatten"
	"github.com/scenec/scenec/internal/issue"
	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
	"github.com/scenec/scenec/pkg/cueutil"
	"github.com/scenec/scenec/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// ErrOutsideProject is returned for document arguments that do not live
// under the project root.
var ErrOutsideProject = errors.New("path is outside the project root")

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and loads its per-invocation session through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		opts   globalOptions
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalOptions holds the persistent root flags.
	globalOptions struct {
		verbose    bool
		configPath string
		projectDir string
	}

	// session is the resolved configuration and services for one invocation.
	session struct {
		cfg       *config.Config
		cfgPath   string
		logger    *log.Logger
		loader    *loader.Loader
		flattener *flatten.Flattener
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// session loads configuration and builds the loader and flattener over the
// project root.
func (a *App) session(ctx context.Context) (*session, error) {
	loaded, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.opts.configPath,
		ProjectDir:     a.opts.projectDir,
	})
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	level, err := log.ParseLevel(cfg.Log.Level.String())
	if err != nil {
		level = log.InfoLevel
	}
	if a.opts.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})

	l := loader.New(os.DirFS(cfg.ProjectRoot), loader.DefaultRegistry())
	logger.Debug("session", "project_root", cfg.ProjectRoot, "config", loaded.Path)

	return &session{
		cfg:     cfg,
		cfgPath: loaded.Path,
		logger:  logger,
		loader:  l,
		flattener: flatten.New(l,
			flatten.WithLogger(logger),
			flatten.WithMaxDepth(cfg.Flatten.MaxDepth),
		),
	}, nil
}

// documentPath maps a CLI argument to a project path. Absolute arguments
// under the project root, or naming an existing file, are OS paths; other
// arguments starting with "/" are already project paths. Anything else is
// relative to the working directory.
func (s *session) documentPath(arg string) (string, error) {
	if strings.HasPrefix(arg, "/") && !s.osPath(arg) {
		return loader.Clean(arg), nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	rel, ok := relToRoot(s.cfg.ProjectRoot, abs)
	if !ok {
		return "", fmt.Errorf("%w: %s (project root is %s)", ErrOutsideProject, arg, s.cfg.ProjectRoot)
	}
	return loader.Clean(rel), nil
}

func (s *session) osPath(arg string) bool {
	if _, ok := relToRoot(s.cfg.ProjectRoot, filepath.Clean(arg)); ok {
		return true
	}
	_, err := os.Stat(arg)
	return err == nil
}

// projectFile resolves a configured or flag path. Relative paths are anchored
// at the project root.
func (s *session) projectFile(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.cfg.ProjectRoot, p)
}

// fail prints err as an actionable error and returns an ExitError carrying
// code.
func (a *App) fail(cmd *cobra.Command, code types.ExitCode, operation, resource string, err error) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	a.report(code, operation, resource, err)
	return &ExitError{Code: code}
}

// report prints err to stderr. The catalog entry for err, if any, adds
// suggestions and, in verbose mode, its rendered Markdown explanation.
func (a *App) report(code types.ExitCode, operation, resource string, err error) {
	is := issueFor(err, code)
	fmt.Fprintf(a.stderr, "%s %s\n", errorIcon, actionable(operation, resource, err, is).Format(a.opts.verbose))
	if a.opts.verbose && is != nil {
		md, rerr := is.Render("auto")
		if rerr != nil {
			slog.Warn("render issue", "id", is.Id(), "err", rerr)
			return
		}
		fmt.Fprint(a.stderr, md)
	}
}

// actionable wraps err with context unless it already is an ActionableError.
func actionable(operation, resource string, err error, is *issue.Issue) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(is).
		Wrap(err).
		Build()
}

// issueFor picks the catalog entry describing err.
func issueFor(err error, code types.ExitCode) *issue.Issue {
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return issue.Get(issue.DocumentNotFoundId)
	case errors.Is(err, cueutil.ErrInvalidDocument) && code == types.ExitCompile:
		return issue.Get(issue.DocumentParseErrorId)
	}
	if ce, ok := compileerr.As(err); ok {
		return issue.ForKind(ce.Kind)
	}
	switch {
	case errors.Is(err, compileerr.ErrCycle):
		return issue.Get(issue.CollectionCycleId)
	case code == types.ExitConfig:
		return issue.Get(issue.ConfigLoadFailedId)
	case code == types.ExitIO:
		return issue.Get(issue.OutputWriteFailedId)
	}
	return nil
}
