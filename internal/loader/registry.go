// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

const (
	// KindCollection is a scene document.
	KindCollection Kind = iota + 1
	// KindGameObject is a game object document.
	KindGameObject
	// KindOpaque is a resource whose content this compiler does not read.
	KindOpaque
)

var (
	// ErrUnknownKind is returned for a path whose extension is not registered.
	ErrUnknownKind = errors.New("unknown document kind")
	// ErrDuplicateExtension is returned when an extension is registered twice.
	ErrDuplicateExtension = errors.New("extension already registered")
)

type (
	// Kind classifies a document by how it is decoded.
	Kind int

	// Entry maps a source extension to its document kind and the extension
	// of its build output. Extensions are written without the leading dot.
	Entry struct {
		Ext       string
		Kind      Kind
		OutputExt string
	}

	// Registry maps extensions to entries. It is an explicit value handed to
	// the Loader; there is no package-level registry.
	Registry struct {
		entries map[string]Entry
	}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindGameObject:
		return "gameobject"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// NewRegistry builds a registry from entries. An empty OutputExt defaults to
// Ext + "c".
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a fresh registry with the scene document kinds and
// the component resource types commonly embedded in game objects.
func DefaultRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}
	for _, e := range []Entry{
		{Ext: "collection", Kind: KindCollection},
		{Ext: "go", Kind: KindGameObject},
		{Ext: "script", Kind: KindOpaque},
		{Ext: "sprite", Kind: KindOpaque},
		{Ext: "sound", Kind: KindOpaque},
		{Ext: "model", Kind: KindOpaque},
		{Ext: "label", Kind: KindOpaque},
		{Ext: "factory", Kind: KindOpaque},
		{Ext: "collectionfactory", Kind: KindOpaque},
		{Ext: "collectionproxy", Kind: KindOpaque},
		{Ext: "particlefx", Kind: KindOpaque},
		{Ext: "tilemap", Kind: KindOpaque},
		{Ext: "collisionobject", Kind: KindOpaque},
		{Ext: "camera", Kind: KindOpaque},
		{Ext: "gui", Kind: KindOpaque},
	} {
		// Entries above are distinct; Register cannot fail.
		_ = r.Register(e)
	}
	return r
}

// Register adds e to the registry.
func (r *Registry) Register(e Entry) error {
	e.Ext = strings.TrimPrefix(e.Ext, ".")
	if e.Ext == "" {
		return fmt.Errorf("%w: empty extension", ErrUnknownKind)
	}
	if _, ok := r.entries[e.Ext]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateExtension, e.Ext)
	}
	if e.OutputExt == "" {
		e.OutputExt = e.Ext + "c"
	}
	e.OutputExt = strings.TrimPrefix(e.OutputExt, ".")
	r.entries[e.Ext] = e
	return nil
}

// Lookup returns the entry for p's extension.
func (r *Registry) Lookup(p string) (Entry, bool) {
	e, ok := r.entries[strings.TrimPrefix(path.Ext(p), ".")]
	return e, ok
}

// OutputPath maps a source path to its build output path
// ("/main.collection" -> "/main.collectionc"). Unregistered extensions get a
// "c" suffix.
func (r *Registry) OutputPath(p string) string {
	ext := path.Ext(p)
	if e, ok := r.Lookup(p); ok {
		return strings.TrimSuffix(p, ext) + "." + e.OutputExt
	}
	return p + "c"
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.entries))
	for ext := range r.entries {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
