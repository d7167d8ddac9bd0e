// SPDX-License-Identifier: MPL-2.0

// Package hashid provides the deterministic 64-bit hashing used for hash-typed
// property values and for synthesizing generated resource paths.
//
// The hash is xxHash64 with a zero seed. Values are stable across processes and
// platforms, so they are safe to persist in build outputs.
package hashid

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// String returns the 64-bit hash of s.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Join hashes the parts as if they were concatenated with a NUL separator.
// The separator keeps ("ab", "c") and ("a", "bc") from colliding.
func Join(parts ...string) uint64 {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}
	return d.Sum64()
}

// Hex formats h as a fixed-width, zero-padded lowercase hex string.
func Hex(h uint64) string {
	s := strconv.FormatUint(h, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
