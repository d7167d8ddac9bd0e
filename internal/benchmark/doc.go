// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a scenec build:
//   - CUE parsing and schema validation of scene documents
//   - Flattening nested and wide collection trees
//   - Manifest encoding in every output format
//   - Dependency graph construction and ordering
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
