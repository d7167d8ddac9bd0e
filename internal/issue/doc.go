// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog maps each compile error kind to a
// Markdown explanation that the CLI renders with glamour in verbose mode.
package issue
