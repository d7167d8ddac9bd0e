// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"maps"
	"strings"
)

// Placement is the transform every level of NestedProject applies: one unit
// along x, a quarter turn about y and half scale.
const Placement = `position: {x: 1}
	rotation: {y: 0.7071067811865476, w: 0.7071067811865476}
	scale: 0.5`

// PrototypeGO is a game object with a single script component.
const PrototypeGO = `components: [{id: "script", component: "/test.script"}]`

// Prototypes returns the documents every fixture references.
func Prototypes() map[string]string {
	return map[string]string{
		"/test.go":     PrototypeGO,
		"/test.script": "",
	}
}

// Level renders a collection holding "test" (parent of "test_child") and,
// when sub is set, a reference to sub with id subID. All three carry
// Placement.
func Level(name, subID, sub string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %q\n", name)
	fmt.Fprintf(&sb, `instances: [{
	id: "test"
	prototype: "/test.go"
	%s
	children: ["test_child"]
}, {
	id: "test_child"
	prototype: "/test.go"
	%s
}]
`, Placement, Placement)
	if sub != "" {
		fmt.Fprintf(&sb, `collection_instances: [{
	id: %q
	collection: %q
	%s
}]
`, subID, sub, Placement)
	}
	return sb.String()
}

// EmbeddedPair renders the embedded_instances field of a collection:
// "test_embed" (parent of "test_embed_child"), both defined inline as
// PrototypeGO and carrying Placement. Append it to a Level document.
func EmbeddedPair() string {
	return fmt.Sprintf(`embedded_instances: [{
	id: "test_embed"
	data: %q
	%s
	children: ["test_embed_child"]
}, {
	id: "test_embed_child"
	data: %q
	%s
}]
`, PrototypeGO, Placement, PrototypeGO, Placement)
}

// NestedProject is main -> sub -> sub_sub, each level built by Level. It
// flattens to six instances.
func NestedProject() map[string]string {
	tree := Prototypes()
	maps.Copy(tree, map[string]string{
		"/main.collection":    Level("main", "sub", "/sub.collection"),
		"/sub.collection":     Level("sub", "sub_sub", "/sub_sub.collection"),
		"/sub_sub.collection": Level("sub_sub", "", ""),
	})
	return tree
}

// WideProject is a root collection referencing width copies of
// NestedProject's sub-collection, each under its own id.
func WideProject(width int) map[string]string {
	tree := NestedProject()
	var sb strings.Builder
	sb.WriteString("name: \"wide\"\ncollection_instances: [\n")
	for i := range width {
		fmt.Fprintf(&sb, "\t{id: \"sub%d\", collection: \"/sub.collection\", position: {x: %d}},\n", i, i)
	}
	sb.WriteString("]\n")
	tree["/wide.collection"] = sb.String()
	return tree
}
