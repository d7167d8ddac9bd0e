// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
	"github.com/scenec/scenec/pkg/scenefile"
)

type builder struct {
	loader  *loader.Loader
	logger  *log.Logger
	graph   *Graph
	visited map[string]bool
}

// Build walks every document reachable from root: sub-collections, prototypes,
// and the component resources of game objects, including those of embedded
// instances. Reference failures and collection cycles are reported as
// *compileerr.CompileError. A nil logger discards output.
func Build(l *loader.Loader, root string, logger *log.Logger) (*Graph, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	root = loader.Clean(root)
	b := &builder{
		loader:  l,
		logger:  logger,
		graph:   New(),
		visited: make(map[string]bool),
	}
	if err := b.visit(root, "", 0, []string{root}); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func (b *builder) node(p string, kind loader.Kind) {
	b.graph.AddNode(Node{Path: p, Kind: kind, Output: b.loader.Registry().OutputPath(p)})
}

// visit adds p and its dependencies. from and line locate the reference for
// error reporting; chain holds the collections currently being walked.
func (b *builder) visit(p, from string, line int, chain []string) error {
	if b.visited[p] {
		return nil
	}

	entry, known := b.loader.Registry().Lookup(p)
	if !known || entry.Kind == loader.KindOpaque {
		if err := b.loader.Stat(p); err != nil {
			return compileerr.Reference(from, line, p, err)
		}
		b.visited[p] = true
		b.node(p, loader.KindOpaque)
		return nil
	}

	doc, err := b.loader.Load(p)
	if err != nil {
		return compileerr.Reference(from, line, p, err)
	}
	b.visited[p] = true
	b.node(p, doc.Kind)
	b.logger.Debug("dependency", "path", p, "kind", doc.Kind, "from", from)

	switch doc.Kind {
	case loader.KindCollection:
		return b.collection(doc, chain)
	case loader.KindGameObject:
		return b.gameObject(p, doc.GameObject, p, 0)
	default:
		return nil
	}
}

func (b *builder) dependOn(dependent, dependency, from string, line int, chain []string) error {
	if err := b.visit(dependency, from, line, chain); err != nil {
		return err
	}
	b.graph.AddDependency(dependent, dependency)
	return nil
}

func (b *builder) collection(doc *loader.Document, chain []string) error {
	c := doc.Collection
	for _, inst := range c.Instances {
		if err := b.dependOn(doc.Path, loader.Resolve(doc.Path, inst.Prototype), doc.Path, inst.Line, chain); err != nil {
			return err
		}
	}
	for _, inst := range c.EmbeddedInstances {
		g, err := scenefile.ParseGameObject(doc.Path+"#"+inst.ID, []byte(inst.Data))
		if err != nil {
			return compileerr.Reference(doc.Path, inst.Line, inst.ID, err)
		}
		if err := b.gameObject(doc.Path, g, doc.Path, inst.Line); err != nil {
			return err
		}
	}
	for _, ci := range c.CollectionInstances {
		ref := loader.Resolve(doc.Path, ci.Collection)
		if slices.Contains(chain, ref) {
			err := compileerr.Cycle(append(slices.Clone(chain), ref))
			err.Line = ci.Line
			return err
		}
		next := append(slices.Clone(chain), ref)
		if err := b.dependOn(doc.Path, ref, doc.Path, ci.Line, next); err != nil {
			return err
		}
	}
	return nil
}

// gameObject adds the component resources of g as dependencies of dependent.
// Embedded components have no file of their own and add nothing.
func (b *builder) gameObject(dependent string, g *scenefile.GameObject, from string, line int) error {
	for _, c := range g.Components {
		componentLine := c.Line
		if line > 0 {
			componentLine = line
		}
		ref := loader.Resolve(from, c.Component)
		if err := b.dependOn(dependent, ref, from, componentLine, nil); err != nil {
			return fmt.Errorf("component %s: %w", c.ID, err)
		}
	}
	return nil
}
