// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ErrInvalidDocument is matched by every ValidationError.
var ErrInvalidDocument = stderrors.New("invalid document")

type (
	// ValidationError reports one or more CUE failures in a single file.
	ValidationError struct {
		// FilePath is the file being validated.
		FilePath string
		// Issues holds one entry per CUE error, in CUE's order.
		Issues []Issue
		// Err is the underlying CUE error.
		Err error
	}

	// Issue is one located CUE failure.
	Issue struct {
		// Path is the JSON path of the offending value (e.g. "instances[0].id").
		Path string
		// Line is the 1-based line in FilePath, or 0.
		Line int
		// Message is the CUE message with any redundant path prefix removed.
		Message string
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.FilePath + e.Issues[0].location() + ": " + e.Issues[0].text()
	}
	lines := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Line > 0 {
			lines = append(lines, "line "+strconv.Itoa(is.Line)+": "+is.text())
			continue
		}
		lines = append(lines, is.text())
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap exposes the sentinel and the CUE error.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidDocument, e.Err}
}

// FirstLine returns the line of the first located issue, or 0.
func (e *ValidationError) FirstLine() int {
	for _, is := range e.Issues {
		if is.Line > 0 {
			return is.Line
		}
	}
	return 0
}

func (is Issue) location() string {
	if is.Line > 0 {
		return ":" + strconv.Itoa(is.Line)
	}
	return ""
}

func (is Issue) text() string {
	if is.Path != "" {
		return is.Path + ": " + is.Message
	}
	return is.Message
}

// FormatError converts a CUE error into a *ValidationError whose issues carry
// JSON paths and lines in filePath. Non-CUE errors are wrapped with the file
// name.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	ve := &ValidationError{FilePath: filePath, Err: err}
	for _, e := range cueErrors {
		pathStr := formatPath(errors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		// CUE sometimes repeats the path in the message itself.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		line := 0
		for _, pos := range errors.Positions(e) {
			if pos.IsValid() && pos.Filename() == filePath {
				line = pos.Line()
				break
			}
		}
		ve.Issues = append(ve.Issues, Issue{Path: pathStr, Line: line, Message: msg})
	}
	return ve
}

// formatPath converts a CUE error path (["instances", "0", "id"]) to JSON-path
// notation ("instances[0].id").
func formatPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		isIndex := part != ""
		for _, c := range part {
			if c < '0' || c > '9' {
				isIndex = false
				break
			}
		}

		if isIndex && i > 0 {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
		} else {
			if i > 0 {
				result.WriteString(".")
			}
			result.WriteString(part)
		}
	}

	return result.String()
}

// CheckFileSize verifies that data does not exceed maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
