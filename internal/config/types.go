// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// FormatJSON writes the manifest as indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatYAML writes the manifest as YAML.
	FormatYAML OutputFormat = "yaml"
	// FormatTOML writes the manifest as TOML.
	FormatTOML OutputFormat = "toml"
	// FormatCUE writes the manifest as a concrete CUE value.
	FormatCUE OutputFormat = "cue"
	// FormatMarkdown writes a human-readable report.
	FormatMarkdown OutputFormat = "markdown"

	// LogLevelDebug enables debug logging.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// DefaultMaxDepth mirrors the flattener's default nesting limit.
	DefaultMaxDepth = 64
	// DefaultDebounce is the quiet period before a watch rebuild.
	DefaultDebounce = 250 * time.Millisecond
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidMaxDepth is returned when flatten.max_depth is out of range.
	ErrInvalidMaxDepth = errors.New("invalid max depth")
	// ErrInvalidWatchPattern is returned when a watch glob does not compile.
	ErrInvalidWatchPattern = errors.New("invalid watch pattern")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects the manifest encoding.
	// Defined locally to avoid coupling config to internal/output;
	// the CLI converts it with output.ParseFormat at the boundary.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level of log records the CLI emits.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidMaxDepthError is returned when flatten.max_depth is not positive.
	InvalidMaxDepthError struct {
		Value int
	}

	// InvalidWatchPatternError is returned when a watch glob is malformed.
	InvalidWatchPatternError struct {
		Pattern string
	}

	// InvalidWatchConfigError collects field-level errors of a WatchConfig.
	// It wraps ErrInvalidWatchConfig for errors.Is() compatibility.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the scenec configuration.
	Config struct {
		// ProjectRoot is the directory absolute document paths resolve against.
		// Empty means the directory holding scenec.cue, or the working directory.
		ProjectRoot string `json:"project_root" mapstructure:"project_root"`
		// Flatten configures the collection flattener.
		Flatten FlattenConfig `json:"flatten" mapstructure:"flatten"`
		// Output configures manifest and artifact output.
		Output OutputConfig `json:"output" mapstructure:"output"`
		// Log configures CLI logging.
		Log LogConfig `json:"log" mapstructure:"log"`
		// Watch configures flatten --watch.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// FlattenConfig configures the collection flattener.
	FlattenConfig struct {
		MaxDepth int `json:"max_depth" mapstructure:"max_depth"`
	}

	// OutputConfig configures manifest and artifact output.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
		// ArtifactsDir, when set, receives extracted embedded documents.
		ArtifactsDir string `json:"artifacts_dir" mapstructure:"artifacts_dir"`
	}

	// LogConfig configures CLI logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// WatchConfig configures flatten --watch.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// Patterns are doublestar globs, relative to the project root, that trigger a rebuild.
		Patterns []string `json:"patterns" mapstructure:"patterns"`
		// Ignore are doublestar globs excluded from watching.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Flatten: FlattenConfig{
			MaxDepth: DefaultMaxDepth,
		},
		Output: OutputConfig{
			Format: FormatJSON,
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
			Patterns: []string{"**/*.collection", "**/*.go"},
			Ignore:   []string{".git/**"},
		},
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: json, yaml, toml, cue, markdown)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats,
// and a list of validation errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatCUE, FormatMarkdown:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (e *InvalidMaxDepthError) Error() string {
	return fmt.Sprintf("invalid flatten.max_depth %d (must be at least 1)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidMaxDepthError) Unwrap() error { return ErrInvalidMaxDepth }

// IsValid returns whether the FlattenConfig has a usable depth limit.
func (c FlattenConfig) IsValid() (bool, []error) {
	if c.MaxDepth < 1 {
		return false, []error{&InvalidMaxDepthError{Value: c.MaxDepth}}
	}
	return true, nil
}

func (e *InvalidWatchPatternError) Error() string {
	return fmt.Sprintf("invalid watch pattern %q", e.Pattern)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidWatchPatternError) Unwrap() error { return ErrInvalidWatchPattern }

// IsValid reports every watch or ignore glob that doublestar rejects.
func (c WatchConfig) IsValid() (bool, []error) {
	var errs []error
	for _, pattern := range append(append([]string(nil), c.Patterns...), c.Ignore...) {
		if strings.TrimSpace(pattern) == "" || !doublestar.ValidatePattern(pattern) {
			errs = append(errs, &InvalidWatchPatternError{Pattern: pattern})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidWatchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to every sub-component's IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Flatten.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Watch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
