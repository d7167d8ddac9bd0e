// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the scenec CLI and libraries.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitOK is returned when every requested root compiled.
	ExitOK ExitCode = 0
	// ExitCompile is returned for invalid scene input: unresolved references,
	// cycles, duplicate ids, bad property values or override targets.
	ExitCompile ExitCode = 1
	// ExitUsage is returned for bad flags or arguments.
	ExitUsage ExitCode = 2
	// ExitConfig is returned when scenec.cue cannot be loaded.
	ExitConfig ExitCode = 3
	// ExitIO is returned when output cannot be written.
	ExitIO ExitCode = 4
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates success.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
