// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* file helpers it carries scene project fixtures: a map of
// project paths to document text that can be written to disk (WriteTree) or
// served from memory (MapFS).
package testutil
