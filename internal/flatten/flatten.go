// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
	"github.com/scenec/scenec/pkg/property"
	"github.com/scenec/scenec/pkg/scenefile"
	"github.com/scenec/scenec/pkg/transform"
)

// DefaultMaxDepth bounds sub-collection nesting.
const DefaultMaxDepth = 64

var (
	// ErrWrongKind is the cause of a reference to a document of the wrong kind.
	ErrWrongKind = errors.New("wrong document kind")
	// ErrUnknownChild is the cause of a children entry naming no instance of
	// the same document.
	ErrUnknownChild = errors.New("child is not declared in this collection")
)

type (
	// FlatInstance is one placed game object in the flattened output.
	FlatInstance struct {
		// ID is the namespaced id ("/sub/go").
		ID string
		// Prototype is the game object path, or the generated artifact path
		// when Embedded is set.
		Prototype string
		Embedded  bool
		Transform transform.Transform
		// Children holds the namespaced ids of authored children.
		Children   []string
		Components []property.ResolvedComponent
		// Source is the document that declared the instance.
		Source string
	}

	// Result is the output of one Flatten call.
	Result struct {
		Root      string
		Instances []FlatInstance
		Artifacts []Artifact
		// ComponentCounts maps a component type to the number of component
		// instances of that type across all flattened instances.
		ComponentCounts map[string]int
	}

	// Option configures a Flattener.
	Option func(*Flattener)

	// Flattener flattens collection trees. It keeps no state between calls
	// and is safe for concurrent use.
	Flattener struct {
		loader   *loader.Loader
		logger   *log.Logger
		maxDepth int
	}

	// node is an instance in flight, with an id relative to the collection
	// currently being assembled.
	node struct {
		id        string
		prototype string
		embedded  bool
		source    string
		line      int
		transform transform.Transform
		root      bool
		children  []string
		object    *scenefile.GameObject
		base      property.Layer
		// layers are ordered outermost first.
		layers []property.Layer
	}

	run struct {
		*Flattener
		docs      map[string]*loader.Document
		artifacts artifactQueue
	}
)

// WithLogger sets the debug logger.
func WithLogger(logger *log.Logger) Option {
	return func(f *Flattener) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMaxDepth sets the maximum sub-collection nesting depth. Values below 1
// keep the default.
func WithMaxDepth(depth int) Option {
	return func(f *Flattener) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// New returns a Flattener reading documents through l.
func New(l *loader.Loader, opts ...Option) *Flattener {
	f := &Flattener{
		loader:   l,
		logger:   log.New(io.Discard),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten compiles the collection at project path root. Every failure is a
// *compileerr.CompileError and no partial result is returned.
func (f *Flattener) Flatten(root string) (*Result, error) {
	root = loader.Clean(root)
	r := &run{
		Flattener: f,
		docs:      make(map[string]*loader.Document),
		artifacts: newArtifactQueue(),
	}

	doc, err := r.load(root)
	if err != nil {
		return nil, compileerr.Reference(root, 0, root, err)
	}
	if doc.Kind != loader.KindCollection {
		return nil, compileerr.Reference(root, 0, root, fmt.Errorf("%w: %s is a %s, want a collection", ErrWrongKind, root, doc.Kind))
	}

	nodes, err := r.collection(doc, []string{root})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Root:            root,
		Instances:       make([]FlatInstance, 0, len(nodes)),
		ComponentCounts: make(map[string]int),
	}
	for _, n := range nodes {
		children := make([]string, len(n.children))
		for i, c := range n.children {
			children[i] = "/" + c
		}
		result.Instances = append(result.Instances, FlatInstance{
			ID:        "/" + n.id,
			Prototype: n.prototype,
			Embedded:  n.embedded,
			Transform: n.transform,
			Children:  children,
			Source:    n.source,
		})
	}
	if err := ValidateUnique(result.Instances); err != nil {
		return nil, err
	}

	for i, n := range nodes {
		if err := checkComponents(result.Instances[i].ID, n); err != nil {
			return nil, err
		}
		comps, err := property.Merge(result.Instances[i].ID, n.base, n.layers)
		if err != nil {
			return nil, err
		}
		result.Instances[i].Components = comps
		countComponents(result.ComponentCounts, n.object)
	}
	result.Artifacts = r.artifacts.list

	f.logger.Debug("flattened", "root", root, "instances", len(result.Instances), "artifacts", len(result.Artifacts))
	return result, nil
}

func (r *run) load(p string) (*loader.Document, error) {
	if doc, ok := r.docs[p]; ok {
		return doc, nil
	}
	doc, err := r.loader.Load(p)
	if err != nil {
		return nil, err
	}
	r.docs[p] = doc
	return doc, nil
}

// collection assembles the nodes of doc. chain holds the document paths from
// the flattening root down to doc.
func (r *run) collection(doc *loader.Document, chain []string) ([]*node, error) {
	c := doc.Collection
	local := make(map[string]bool, len(c.Instances)+len(c.EmbeddedInstances))
	isChild := make(map[string]bool)
	for i := range c.Instances {
		local[c.Instances[i].ID] = true
		for _, ch := range c.Instances[i].Children {
			isChild[ch] = true
		}
	}
	for i := range c.EmbeddedInstances {
		local[c.EmbeddedInstances[i].ID] = true
		for _, ch := range c.EmbeddedInstances[i].Children {
			isChild[ch] = true
		}
	}

	var nodes []*node
	for i := range c.Instances {
		inst := &c.Instances[i]
		if err := checkChildren(doc.Path, inst.Line, inst.Children, local); err != nil {
			return nil, err
		}
		ref := loader.Resolve(doc.Path, inst.Prototype)
		proto, err := r.load(ref)
		if err != nil {
			return nil, compileerr.Reference(doc.Path, inst.Line, ref, err)
		}
		if proto.Kind != loader.KindGameObject {
			return nil, compileerr.Reference(doc.Path, inst.Line, ref, fmt.Errorf("%w: %s is a %s, want a game object", ErrWrongKind, ref, proto.Kind))
		}
		nodes = append(nodes, &node{
			id:        inst.ID,
			prototype: ref,
			source:    doc.Path,
			line:      inst.Line,
			transform: inst.Transform(),
			root:      !isChild[inst.ID],
			children:  cloneStrings(inst.Children),
			object:    proto.GameObject,
			base:      scenefile.Layer(doc.Path, inst.ComponentProperties),
		})
	}

	embeddedAt := make(map[string]int, len(c.EmbeddedInstances))
	for i := range c.EmbeddedInstances {
		inst := &c.EmbeddedInstances[i]
		if first, ok := embeddedAt[inst.ID]; ok {
			err := compileerr.PathCollision(doc.Path, GeneratedPath(doc.Path, inst.ID, "go"),
				fmt.Sprintf("%s (line %d)", inst.ID, first), fmt.Sprintf("%s (line %d)", inst.ID, inst.Line))
			err.Line = inst.Line
			return nil, err
		}
		embeddedAt[inst.ID] = inst.Line
		if err := checkChildren(doc.Path, inst.Line, inst.Children, local); err != nil {
			return nil, err
		}
		artifact, err := r.extractInstance(doc.Path, inst)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &node{
			id:        inst.ID,
			prototype: artifact.Path,
			embedded:  true,
			source:    doc.Path,
			line:      inst.Line,
			transform: inst.Transform(),
			root:      !isChild[inst.ID],
			children:  cloneStrings(inst.Children),
			object:    artifact.Document.GameObject,
			base:      scenefile.Layer(doc.Path, inst.ComponentProperties),
		})
	}

	for i := range c.CollectionInstances {
		sub, err := r.subCollection(doc, &c.CollectionInstances[i], chain)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, sub...)
	}

	r.logger.Debug("collection assembled", "path", doc.Path, "depth", len(chain)-1, "instances", len(nodes))
	return nodes, nil
}

// subCollection flattens the collection referenced by decl and lifts its
// nodes into the namespace and space of the referencing document.
func (r *run) subCollection(doc *loader.Document, decl *scenefile.CollectionInstance, chain []string) ([]*node, error) {
	ref := loader.Resolve(doc.Path, decl.Collection)
	for _, ancestor := range chain {
		if ancestor == ref {
			err := compileerr.Cycle(appendChain(chain, ref))
			err.Line = decl.Line
			return nil, err
		}
	}
	if len(chain) > r.maxDepth {
		err := compileerr.DepthExceeded(appendChain(chain, ref), r.maxDepth)
		err.Path = doc.Path
		err.Line = decl.Line
		return nil, err
	}

	subDoc, err := r.load(ref)
	if err != nil {
		return nil, compileerr.Reference(doc.Path, decl.Line, ref, err)
	}
	if subDoc.Kind != loader.KindCollection {
		return nil, compileerr.Reference(doc.Path, decl.Line, ref, fmt.Errorf("%w: %s is a %s, want a collection", ErrWrongKind, ref, subDoc.Kind))
	}

	nodes, err := r.collection(subDoc, appendChain(chain, ref))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*node, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.id]; !dup {
			byID[n.id] = n
		}
	}
	targeted := make(map[string]bool, len(decl.InstanceProperties))
	for _, ip := range decl.InstanceProperties {
		target := strings.TrimPrefix(ip.ID, "/")
		n, ok := byID[target]
		if !ok {
			return nil, compileerr.OverrideTarget(doc.Path, ip.Line, decl.ID+"/"+target, "no such instance in "+ref)
		}
		if targeted[target] {
			return nil, compileerr.OverrideTarget(doc.Path, ip.Line, decl.ID+"/"+target, "instance overridden twice by one reference")
		}
		targeted[target] = true
		n.layers = append([]property.Layer{scenefile.Layer(doc.Path, ip.Properties)}, n.layers...)
	}

	outer := decl.Transform(subDoc.Collection.ScaleAlongZ)
	prefix := decl.ID + "/"
	for _, n := range nodes {
		if n.root {
			n.transform = transform.Compose(outer, n.transform)
		}
		n.id = prefix + n.id
		for i := range n.children {
			n.children[i] = prefix + n.children[i]
		}
	}
	return nodes, nil
}

func checkChildren(docPath string, line int, children []string, local map[string]bool) error {
	for _, ch := range children {
		if !local[ch] {
			return compileerr.Reference(docPath, line, ch, ErrUnknownChild)
		}
	}
	return nil
}

// checkComponents verifies that the base declarations of n target components
// its game object actually has.
func checkComponents(id string, n *node) error {
	known := make(map[string]bool)
	if n.object != nil {
		for _, id := range n.object.ComponentIDs() {
			known[id] = true
		}
	}
	for _, cp := range n.base.Components {
		if known[cp.ComponentID] {
			continue
		}
		line := n.line
		if len(cp.Properties) > 0 && cp.Properties[0].Line > 0 {
			line = cp.Properties[0].Line
		}
		return compileerr.OverrideTarget(n.source, line, id+"."+cp.ComponentID, "no such component on "+n.prototype)
	}
	return nil
}

func countComponents(counts map[string]int, g *scenefile.GameObject) {
	if g == nil {
		return
	}
	for _, c := range g.Components {
		counts[strings.TrimPrefix(path.Ext(c.Component), ".")]++
	}
	for _, c := range g.EmbeddedComponents {
		counts[c.Type]++
	}
}

func appendChain(chain []string, p string) []string {
	out := make([]string, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, p)
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
