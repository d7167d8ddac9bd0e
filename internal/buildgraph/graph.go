// SPDX-License-Identifier: MPL-2.0

// Package buildgraph orders the documents reachable from a collection so each
// one is built after everything it references.
package buildgraph

import (
	"fmt"
	"strings"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing
	// ordering. Cycle lists the nodes left unordered, in insertion order.
	CycleError struct {
		Cycle []string
	}

	// Node is a document in the graph.
	Node struct {
		// Path is the project path of the source document.
		Path string
		Kind loader.Kind
		// Output is the project path of the build output.
		Output string
	}

	// Graph is a directed dependency graph. An edge from A to B means A must
	// be built before B.
	Graph struct {
		adjacency map[string][]string
		edgeSet   map[[2]string]bool
		nodes     []string
		nodeSet   map[string]Node
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Is reports CycleError as a compile cycle.
func (e *CycleError) Is(target error) bool {
	return target == compileerr.ErrCycle
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		edgeSet:   make(map[[2]string]bool),
		nodeSet:   make(map[string]Node),
	}
}

// AddNode adds n. Adding a path twice keeps the first node.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodeSet[n.Path]; ok {
		return
	}
	g.nodeSet[n.Path] = n
	g.nodes = append(g.nodes, n.Path)
}

// AddDependency records that dependent references dependency, so dependency
// is built first. Both nodes must already be present; repeated edges are
// ignored.
func (g *Graph) AddDependency(dependent, dependency string) {
	key := [2]string{dependency, dependent}
	if g.edgeSet[key] {
		return
	}
	g.edgeSet[key] = true
	g.adjacency[dependency] = append(g.adjacency[dependency], dependent)
}

// Node returns the node at path.
func (g *Graph) Node(path string) (Node, bool) {
	n, ok := g.nodeSet[path]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Order returns the nodes in build order using Kahn's algorithm. Nodes at the
// same level keep their insertion order.
func (g *Graph) Order() ([]Node, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]Node, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, g.nodeSet[node])

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []string
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError{Cycle: cycleNodes}
	}

	return result, nil
}
