// SPDX-License-Identifier: MPL-2.0

// Package flatten compiles a collection tree into one flat list of placed
// instances.
//
// Sub-collections are inlined bottom-up: each nesting level prefixes the ids
// of its content with the declaration id and applies the declaration
// transform to the structural roots only. Instances listed as children keep
// their authored transform. Property overrides declared on a sub-collection
// reference become an outer layer of the targeted descendant, and the layer
// nearest the flattening root wins. Embedded game objects and their embedded
// components are emitted as generated artifacts alongside the instances.
package flatten
