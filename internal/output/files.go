// SPDX-License-Identifier: MPL-2.0

package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scenec/scenec/internal/flatten"
)

// WriteArtifacts writes each artifact payload under dir at its project path
// and returns the written file paths in artifact order.
func WriteArtifacts(dir string, artifacts []flatten.Artifact) ([]string, error) {
	if dir == "" {
		return nil, errors.New("artifacts dir is empty")
	}

	written := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(a.Path, "/")))
		if err := writeFile(target, a.Data); err != nil {
			return written, fmt.Errorf("write artifact %s: %w", a.Path, err)
		}
		written = append(written, target)
	}
	return written, nil
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path string, content []byte) error {
	if path == "" {
		return errors.New("output path is empty")
	}
	return writeFile(path, content)
}

// EnsureDir creates dir and its parents if missing.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func writeFile(path string, content []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	return os.WriteFile(path, content, 0o644)
}
