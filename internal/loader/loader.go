// SPDX-License-Identifier: MPL-2.0

// Package loader resolves project paths to parsed scene documents.
//
// Project paths are slash-separated and rooted at the project directory
// ("/levels/main.collection"). A Loader reads them from an fs.FS rooted at
// that directory and decodes them according to its Registry.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/scenec/scenec/pkg/scenefile"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

type (
	// Document is a loaded document. Exactly one of Collection or GameObject
	// is set for the scene kinds; opaque documents only carry Data.
	Document struct {
		Path       string
		Kind       Kind
		Collection *scenefile.Collection
		GameObject *scenefile.GameObject
		Data       []byte
	}

	// Loader reads and decodes documents. It holds no mutable state and is
	// safe for concurrent use when fsys is.
	Loader struct {
		fsys     fs.FS
		registry *Registry
	}
)

// New returns a Loader reading from fsys. A nil registry uses
// DefaultRegistry.
func New(fsys fs.FS, registry *Registry) *Loader {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Loader{fsys: fsys, registry: registry}
}

// Registry returns the loader's registry.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load reads and decodes the document at project path p.
func (l *Loader) Load(p string) (*Document, error) {
	p = Clean(p)
	if _, ok := l.registry.Lookup(p); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, p)
	}
	data, err := fs.ReadFile(l.fsys, strings.TrimPrefix(p, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return l.Parse(p, data)
}

// Stat reports whether the file at project path p exists, without decoding
// it.
func (l *Loader) Stat(p string) error {
	p = Clean(p)
	if _, err := fs.Stat(l.fsys, strings.TrimPrefix(p, "/")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return fmt.Errorf("stat %s: %w", p, err)
	}
	return nil
}

// Parse decodes data as if it had been read from project path p.
func (l *Loader) Parse(p string, data []byte) (*Document, error) {
	p = Clean(p)
	entry, ok := l.registry.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, p)
	}
	doc := &Document{Path: p, Kind: entry.Kind, Data: data}
	switch entry.Kind {
	case KindCollection:
		c, err := scenefile.ParseCollection(p, data)
		if err != nil {
			return nil, err
		}
		doc.Collection = c
	case KindGameObject:
		g, err := scenefile.ParseGameObject(p, data)
		if err != nil {
			return nil, err
		}
		doc.GameObject = g
	case KindOpaque:
	}
	return doc, nil
}

// Resolve resolves ref as written in the document at project path from.
// Absolute refs are rooted at the project; relative refs are resolved
// against from's directory.
func Resolve(from, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return Clean(ref)
	}
	return Clean(path.Join(path.Dir(Clean(from)), ref))
}

// Clean returns the canonical project form of p: slash-rooted with no "."
// or ".." elements. ".." never climbs above the project root.
func Clean(p string) string {
	return path.Clean("/" + p)
}
