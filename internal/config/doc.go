// SPDX-License-Identifier: MPL-2.0

// Package config handles scenec configuration using Viper with CUE as the file format.
//
// A project is configured by a scenec.cue file at its root. Load walks up from
// the working directory (or LoadOptions.ProjectDir) until it finds one; when
// none exists the defaults apply. An explicit --config path bypasses the search.
// Every key can be overridden from the environment with the SCENEC_ prefix,
// for example SCENEC_OUTPUT_FORMAT=yaml or SCENEC_FLATTEN_MAX_DEPTH=16.
//
// The file is validated against the embedded config_schema.cue before being
// merged into Viper, so typos and out-of-range values are reported with the
// offending line.
package config
