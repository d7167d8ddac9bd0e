// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// fatal reports inotify resource exhaustion: the watch limit (ENOSPC) or the
// process and system descriptor limits (EMFILE, ENFILE). The watcher cannot
// recover from any of them.
func fatal(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
