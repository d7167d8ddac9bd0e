// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/scenec/scenec/pkg/compileerr"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DocumentNotFoundId Id = iota + 1
	DocumentParseErrorId
	UnresolvedReferenceId
	CollectionCycleId
	DuplicateInstanceId
	InvalidPropertyId
	InvalidOverrideTargetId
	GeneratedPathCollisionId
	ConfigLoadFailedId
	OutputWriteFailedId
)

type MarkdownMsg string

type Issue struct {
	id          Id          // ID used to lookup the issue
	mdMsg       MarkdownMsg // Markdown text that will be rendered
	suggestions []string    // one-line hints attached to ActionableError
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Suggestions returns a copy of the one-line remediation hints.
func (i *Issue) Suggestions() []string {
	return slices.Clone(i.suggestions)
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	documentNotFoundIssue = &Issue{
		id: DocumentNotFoundId,
		mdMsg: `
# Document not found!

A collection or game object references a file that does not exist under the project root.

## Things you can try:
- Absolute references such as ` + "`/objects/hero.go`" + ` resolve against the project root
- Relative references resolve against the directory of the referencing document
- Check the project root with:
~~~
$ scenec config show
~~~`,
		suggestions: []string{
			"Check the spelling of the referenced path",
			"Absolute references resolve against the project root",
		},
	}

	documentParseErrorIssue = &Issue{
		id: DocumentParseErrorId,
		mdMsg: `
# Failed to parse a scene document!

Collections and game objects are CUE documents validated against a fixed schema.

## Common mistakes:
- Instance ids containing ` + "`/`" + ` (the separator is reserved for nesting)
- A component property without a ` + "`type`" + `
- Misspelled fields, which the closed schema rejects

## Example collection:
~~~cue
name: "level"
instances: [{
	id:        "hero"
	prototype: "/objects/hero.go"
	position: {x: 1, y: 0, z: 0}
}]
~~~`,
		suggestions: []string{
			"Fix the reported line and run 'scenec validate' again",
		},
	}

	unresolvedReferenceIssue = &Issue{
		id: UnresolvedReferenceId,
		mdMsg: `
# Unresolved reference!

An instance prototype, sub-collection, embedded payload or child id could not be resolved.

## Things you can try:
- Prototypes must point at ` + "`.go`" + ` game objects
- Sub-collections must point at ` + "`.collection`" + ` documents
- ` + "`children`" + ` may only name instances declared in the same collection`,
		suggestions: []string{
			"Check that the reference points at a document of the expected kind",
			"Run 'scenec deps' to list every document the root pulls in",
		},
	}

	collectionCycleIssue = &Issue{
		id: CollectionCycleId,
		mdMsg: `
# Collection cycle detected!

A collection includes itself, directly or through other collections, or the nesting
is deeper than ` + "`flatten.max_depth`" + `.

## Things you can try:
- Follow the reported chain and remove one of the references
- Raise ` + "`flatten.max_depth`" + ` in scenec.cue if the nesting is intentional`,
		suggestions: []string{
			"Remove one reference from the reported chain",
		},
	}

	duplicateInstanceIssue = &Issue{
		id: DuplicateInstanceId,
		mdMsg: `
# Duplicate instance id!

Two instances flatten to the same id. Ids must be unique within a collection, across
own, embedded and sub-collection instances.`,
		suggestions: []string{
			"Rename one of the instances or the sub-collection reference",
		},
	}

	invalidPropertyIssue = &Issue{
		id: InvalidPropertyId,
		mdMsg: `
# Invalid property value!

A property literal does not match its declared type.

## Accepted formats:
| Type | Literal |
|---|---|
| PROPERTY_TYPE_NUMBER | ` + "`1.5`" + ` |
| PROPERTY_TYPE_HASH | any string |
| PROPERTY_TYPE_URL | a document path |
| PROPERTY_TYPE_VECTOR3 | ` + "`1, 2, 3`" + ` |
| PROPERTY_TYPE_VECTOR4 / QUAT | ` + "`0, 0, 0, 1`" + ` |
| PROPERTY_TYPE_BOOLEAN | ` + "`true`" + ` or ` + "`false`" + ` |

An override without a type inherits the type of the property it replaces.`,
		suggestions: []string{
			"Match the literal to the property type",
		},
	}

	invalidOverrideTargetIssue = &Issue{
		id: InvalidOverrideTargetId,
		mdMsg: `
# Invalid override target!

An override names an instance, component or property that does not exist in the
referenced collection. Sub-element overrides such as ` + "`offset.x`" + ` are not supported;
override the whole vector instead.`,
		suggestions: []string{
			"Check the instance id relative to the referenced collection",
			"Only properties declared on the base instance can be overridden",
		},
	}

	generatedPathCollisionIssue = &Issue{
		id: GeneratedPathCollisionId,
		mdMsg: `
# Generated path collision!

Two embedded payloads produced the same synthesized document path. Paths are derived
from the owning document and the embedded id, so this usually means two documents with
the same stem in one directory embed instances with the same id.`,
		suggestions: []string{
			"Rename one of the embedded instances",
		},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check scenec.cue for CUE syntax errors
- Compare with a freshly generated file:
~~~
$ scenec config init --force
~~~
- Environment overrides use the ` + "`SCENEC_`" + ` prefix, e.g. ` + "`SCENEC_OUTPUT_FORMAT=yaml`",
		suggestions: []string{
			"Run 'scenec config show' to see the effective configuration",
		},
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write output!

## Things you can try:
- Check that the output directory exists and is writable
- Choose a different location with ` + "`--output`" + ` or ` + "`--artifacts-dir`",
		suggestions: []string{
			"Check permissions on the output location",
		},
	}

	issues = map[Id]*Issue{
		documentNotFoundIssue.Id():       documentNotFoundIssue,
		documentParseErrorIssue.Id():     documentParseErrorIssue,
		unresolvedReferenceIssue.Id():    unresolvedReferenceIssue,
		collectionCycleIssue.Id():        collectionCycleIssue,
		duplicateInstanceIssue.Id():      duplicateInstanceIssue,
		invalidPropertyIssue.Id():        invalidPropertyIssue,
		invalidOverrideTargetIssue.Id():  invalidOverrideTargetIssue,
		generatedPathCollisionIssue.Id(): generatedPathCollisionIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		outputWriteFailedIssue.Id():      outputWriteFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForKind maps a compile error kind to its catalog entry.
func ForKind(kind compileerr.Kind) *Issue {
	switch kind {
	case compileerr.KindReference:
		return unresolvedReferenceIssue
	case compileerr.KindCycle:
		return collectionCycleIssue
	case compileerr.KindDuplicateID:
		return duplicateInstanceIssue
	case compileerr.KindPropertyParse:
		return invalidPropertyIssue
	case compileerr.KindOverrideTarget:
		return invalidOverrideTargetIssue
	case compileerr.KindPathCollision:
		return generatedPathCollisionIssue
	default:
		return nil
	}
}
