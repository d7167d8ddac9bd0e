// SPDX-License-Identifier: MPL-2.0

package property

import (
	"fmt"

	"github.com/scenec/scenec/pkg/compileerr"
)

type (
	// Declaration is one authored property entry.
	Declaration struct {
		ID      string
		Literal string
		Type    Type
		// Line is the 1-based source line of the declaration, or 0.
		Line int
	}

	// ComponentProperties groups the declarations targeting one component.
	ComponentProperties struct {
		ComponentID string
		Properties  []Declaration
	}

	// Layer is one override level: the declarations authored at a single point
	// of reference, and the document that authored them.
	Layer struct {
		Source     string
		Components []ComponentProperties
	}

	// Resolved is a property after merging.
	Resolved struct {
		ID          string   `json:"id" yaml:"id" toml:"id"`
		Type        Type     `json:"type" yaml:"type" toml:"type"`
		Value       string   `json:"value" yaml:"value" toml:"value"`
		SubElements []string `json:"sub_elements,omitempty" yaml:"sub_elements,omitempty" toml:"sub_elements,omitempty"`
		// Source is the document of the layer that won.
		Source string `json:"source" yaml:"source" toml:"source"`
		Parsed Value  `json:"-" yaml:"-" toml:"-"`
	}

	// ResolvedComponent is the merged property set of one component.
	ResolvedComponent struct {
		ID         string     `json:"id" yaml:"id" toml:"id"`
		Properties []Resolved `json:"properties" yaml:"properties" toml:"properties"`
	}

	pairKey struct {
		component string
		property  string
	}

	location struct {
		component int
		property  int
	}
)

// Merge resolves the override chain of one instance. base holds the
// instance's own declarations and defines the set of overridable pairs.
// layers are ordered outermost first: for each pair the first layer that sets
// it wins, otherwise the base value stands. Every literal is type-checked at
// the layer that authors it, even when a more outer layer shadows it.
func Merge(instanceID string, base Layer, layers []Layer) ([]ResolvedComponent, error) {
	index := make(map[pairKey]location)
	components := make([]ResolvedComponent, 0, len(base.Components))
	seenComponent := make(map[string]int)

	for _, cp := range base.Components {
		ci, ok := seenComponent[cp.ComponentID]
		if !ok {
			ci = len(components)
			seenComponent[cp.ComponentID] = ci
			components = append(components, ResolvedComponent{ID: cp.ComponentID})
		}
		for _, d := range cp.Properties {
			key := pairKey{cp.ComponentID, d.ID}
			if _, dup := index[key]; dup {
				return nil, compileerr.OverrideTarget(base.Source, d.Line, qualified(instanceID, cp.ComponentID, d.ID), "property declared twice")
			}
			v, err := Parse(d.Literal, d.Type)
			if err != nil {
				return nil, compileerr.PropertyParse(base.Source, d.Line, instanceID, cp.ComponentID, d.ID, err)
			}
			index[key] = location{ci, len(components[ci].Properties)}
			components[ci].Properties = append(components[ci].Properties, resolved(d.ID, v, base.Source))
		}
	}

	// Sub-elements are checked once every parent is indexed, so declaration
	// order does not matter.
	for _, cp := range base.Components {
		for _, d := range cp.Properties {
			if subElementOf(d.ID, cp.ComponentID, index, components) {
				return nil, compileerr.OverrideTarget(base.Source, d.Line, qualified(instanceID, cp.ComponentID, d.ID), "sub-element ids cannot be set independently")
			}
		}
	}

	won := make(map[pairKey]bool)
	for _, layer := range layers {
		for _, cp := range layer.Components {
			for _, d := range cp.Properties {
				key := pairKey{cp.ComponentID, d.ID}
				loc, ok := index[key]
				if !ok {
					reason := "no such property on the instance"
					if subElementOf(d.ID, cp.ComponentID, index, components) {
						reason = "sub-element ids cannot be overridden independently"
					} else if _, hasComponent := seenComponent[cp.ComponentID]; !hasComponent {
						reason = "no such component on the instance"
					}
					return nil, compileerr.OverrideTarget(layer.Source, d.Line, qualified(instanceID, cp.ComponentID, d.ID), reason)
				}
				target := &components[loc.component].Properties[loc.property]
				typ := d.Type
				if typ == "" {
					typ = target.Type
				}
				if typ != target.Type {
					return nil, compileerr.PropertyParse(layer.Source, d.Line, instanceID, cp.ComponentID, d.ID,
						fmt.Errorf("%w: override type %s does not match declared type %s", ErrInvalidLiteral, typ, target.Type))
				}
				v, err := Parse(d.Literal, typ)
				if err != nil {
					return nil, compileerr.PropertyParse(layer.Source, d.Line, instanceID, cp.ComponentID, d.ID, err)
				}
				if won[key] {
					continue
				}
				won[key] = true
				*target = resolved(d.ID, v, layer.Source)
			}
		}
	}
	return components, nil
}

func resolved(id string, v Value, source string) Resolved {
	return Resolved{
		ID:          id,
		Type:        v.Type,
		Value:       v.Canonical(),
		SubElements: v.SubElementIDs(id),
		Source:      source,
		Parsed:      v,
	}
}

// subElementOf reports whether id addresses a sub-element of a vector-like
// property already declared on component.
func subElementOf(id, component string, index map[pairKey]location, components []ResolvedComponent) bool {
	parent, ok := splitSubElement(id)
	if !ok {
		return false
	}
	loc, found := index[pairKey{component, parent}]
	if !found {
		return false
	}
	return components[loc.component].Properties[loc.property].Type.Arity() > 0
}

func qualified(instance, component, property string) string {
	return instance + "." + component + "." + property
}
