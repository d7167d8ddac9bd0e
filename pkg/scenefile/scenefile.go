// SPDX-License-Identifier: MPL-2.0

// Package scenefile defines the scene document model and decodes documents
// written in CUE against an embedded schema.
//
// A collection (SceneDocument) places prototypes, inline game objects and
// other collections. A game object (GameObjectDocument) lists components and
// embedded component payloads. Decoded declarations carry the source line they
// were authored on so compile errors can point at them.
package scenefile

import (
	_ "embed"

	"cuelang.org/go/cue"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/scenec/scenec/pkg/cueutil"
	"github.com/scenec/scenec/pkg/property"
	"github.com/scenec/scenec/pkg/transform"
)

//go:embed scene_schema.cue
var schemaBytes []byte

type (
	// Vec3 is an authored 3-vector.
	Vec3 struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}

	// Quat is an authored rotation quaternion in x, y, z, w order.
	Quat struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
		W float64 `json:"w"`
	}

	// Property is one authored property entry. Type may be empty on overrides,
	// in which case the overridden declaration's type applies.
	Property struct {
		ID    string `json:"id"`
		Value string `json:"value"`
		Type  string `json:"type,omitempty"`
		Line  int    `json:"-"`
	}

	// ComponentProperties groups the properties set on one component.
	ComponentProperties struct {
		ID         string     `json:"id"`
		Properties []Property `json:"properties"`
	}

	// Instance places a prototype game object.
	Instance struct {
		ID                  string                `json:"id"`
		Prototype           string                `json:"prototype"`
		Position            Vec3                  `json:"position"`
		Rotation            Quat                  `json:"rotation"`
		Scale               float64               `json:"scale"`
		Scale3              *Vec3                 `json:"scale3,omitempty"`
		Children            []string              `json:"children"`
		ComponentProperties []ComponentProperties `json:"component_properties"`
		Line                int                   `json:"-"`
	}

	// EmbeddedInstance places a game object defined inline by Data.
	EmbeddedInstance struct {
		ID                  string                `json:"id"`
		Data                string                `json:"data"`
		Position            Vec3                  `json:"position"`
		Rotation            Quat                  `json:"rotation"`
		Scale               float64               `json:"scale"`
		Scale3              *Vec3                 `json:"scale3,omitempty"`
		Children            []string              `json:"children"`
		ComponentProperties []ComponentProperties `json:"component_properties"`
		Line                int                   `json:"-"`
	}

	// InstanceProperties overrides properties of a descendant instance,
	// addressed by its id relative to the referenced collection.
	InstanceProperties struct {
		ID         string                `json:"id"`
		Properties []ComponentProperties `json:"properties"`
		Line       int                   `json:"-"`
	}

	// CollectionInstance places another collection.
	CollectionInstance struct {
		ID                 string               `json:"id"`
		Collection         string               `json:"collection"`
		Position           Vec3                 `json:"position"`
		Rotation           Quat                 `json:"rotation"`
		Scale              float64              `json:"scale"`
		Scale3             *Vec3                `json:"scale3,omitempty"`
		InstanceProperties []InstanceProperties `json:"instance_properties"`
		Line               int                  `json:"-"`
	}

	// Collection is a scene document.
	Collection struct {
		Name                string               `json:"name"`
		ScaleAlongZ         bool                 `json:"scale_along_z"`
		Instances           []Instance           `json:"instances"`
		EmbeddedInstances   []EmbeddedInstance   `json:"embedded_instances"`
		CollectionInstances []CollectionInstance `json:"collection_instances"`
	}

	// Component references a component resource and its default properties.
	Component struct {
		ID         string     `json:"id"`
		Component  string     `json:"component"`
		Properties []Property `json:"properties"`
		Line       int        `json:"-"`
	}

	// EmbeddedComponent is a component payload defined inline. Data is opaque.
	EmbeddedComponent struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data string `json:"data"`
		Line int    `json:"-"`
	}

	// GameObject is a game object document.
	GameObject struct {
		Components         []Component         `json:"components"`
		EmbeddedComponents []EmbeddedComponent `json:"embedded_components"`
	}
)

// ParseCollection decodes a collection document. filename is used for source
// positions and error messages.
func ParseCollection(filename string, data []byte) (*Collection, error) {
	result, err := cueutil.ParseAndDecode[Collection](schemaBytes, data, "#Collection", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	c := result.Value
	for i := range c.Instances {
		inst := &c.Instances[i]
		at := []cue.Selector{cue.Str("instances"), cue.Index(i)}
		inst.Line = result.Line(at...)
		annotateComponents(result, inst.ComponentProperties, append(at, cue.Str("component_properties")))
	}
	for i := range c.EmbeddedInstances {
		inst := &c.EmbeddedInstances[i]
		at := []cue.Selector{cue.Str("embedded_instances"), cue.Index(i)}
		inst.Line = result.Line(at...)
		annotateComponents(result, inst.ComponentProperties, append(at, cue.Str("component_properties")))
	}
	for i := range c.CollectionInstances {
		ci := &c.CollectionInstances[i]
		at := []cue.Selector{cue.Str("collection_instances"), cue.Index(i)}
		ci.Line = result.Line(at...)
		for j := range ci.InstanceProperties {
			ip := &ci.InstanceProperties[j]
			ipAt := appendPath(at, cue.Str("instance_properties"), cue.Index(j))
			ip.Line = result.Line(ipAt...)
			annotateComponents(result, ip.Properties, append(ipAt, cue.Str("properties")))
		}
	}
	return c, nil
}

// ParseGameObject decodes a game object document.
func ParseGameObject(filename string, data []byte) (*GameObject, error) {
	result, err := cueutil.ParseAndDecode[GameObject](schemaBytes, data, "#GameObject", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	g := result.Value
	for i := range g.Components {
		at := []cue.Selector{cue.Str("components"), cue.Index(i)}
		g.Components[i].Line = result.Line(at...)
		for j := range g.Components[i].Properties {
			g.Components[i].Properties[j].Line = result.Line(appendPath(at, cue.Str("properties"), cue.Index(j))...)
		}
	}
	for i := range g.EmbeddedComponents {
		g.EmbeddedComponents[i].Line = result.Line(cue.Str("embedded_components"), cue.Index(i))
	}
	return g, nil
}

func annotateComponents[T any](result *cueutil.ParseResult[T], comps []ComponentProperties, at []cue.Selector) {
	for i := range comps {
		for j := range comps[i].Properties {
			comps[i].Properties[j].Line = result.Line(appendPath(at, cue.Index(i), cue.Str("properties"), cue.Index(j))...)
		}
	}
}

// appendPath copies base so sibling paths never share a backing array.
func appendPath(base []cue.Selector, sels ...cue.Selector) []cue.Selector {
	out := make([]cue.Selector, 0, len(base)+len(sels))
	out = append(out, base...)
	return append(out, sels...)
}

func (v Vec3) vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

func placement(p Vec3, r Quat, s float64, s3 *Vec3) transform.Transform {
	scale := transform.Uniform(s)
	if s3 != nil {
		scale = s3.vec()
	}
	return transform.Transform{
		Position: p.vec(),
		Rotation: transform.Quat(r.X, r.Y, r.Z, r.W),
		Scale:    scale,
	}
}

// Transform returns the authored local transform with scale promoted to a
// 3-vector.
func (i *Instance) Transform() transform.Transform {
	return placement(i.Position, i.Rotation, i.Scale, i.Scale3)
}

// Transform returns the authored local transform with scale promoted to a
// 3-vector.
func (e *EmbeddedInstance) Transform() transform.Transform {
	return placement(e.Position, e.Rotation, e.Scale, e.Scale3)
}

// Transform returns the transform applied to the structural roots of the
// referenced collection. A uniform scale only scales z when alongZ is set.
func (c *CollectionInstance) Transform(alongZ bool) transform.Transform {
	t := placement(c.Position, c.Rotation, c.Scale, nil)
	var s3 *r3.Vec
	if c.Scale3 != nil {
		v := c.Scale3.vec()
		s3 = &v
	}
	t.Scale = transform.CollectionScale(c.Scale, s3, alongZ)
	return t
}

// Layer converts authored component properties into an override layer
// attributed to source.
func Layer(source string, comps []ComponentProperties) property.Layer {
	l := property.Layer{Source: source, Components: make([]property.ComponentProperties, 0, len(comps))}
	for _, c := range comps {
		cp := property.ComponentProperties{ComponentID: c.ID, Properties: make([]property.Declaration, 0, len(c.Properties))}
		for _, p := range c.Properties {
			cp.Properties = append(cp.Properties, property.Declaration{
				ID:      p.ID,
				Literal: p.Value,
				Type:    property.Type(p.Type),
				Line:    p.Line,
			})
		}
		l.Components = append(l.Components, cp)
	}
	return l
}

// ComponentIDs returns the ids of regular and embedded components in
// declaration order.
func (g *GameObject) ComponentIDs() []string {
	ids := make([]string, 0, len(g.Components)+len(g.EmbeddedComponents))
	for _, c := range g.Components {
		ids = append(ids, c.ID)
	}
	for _, c := range g.EmbeddedComponents {
		ids = append(ids, c.ID)
	}
	return ids
}
