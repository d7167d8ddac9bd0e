// SPDX-License-Identifier: MPL-2.0

package property

import (
	"errors"
	"testing"

	"github.com/scenec/scenec/pkg/compileerr"
)

func layer(source string, line int, component string, props ...string) Layer {
	cp := ComponentProperties{ComponentID: component}
	for i := 0; i+2 < len(props); i += 3 {
		cp.Properties = append(cp.Properties, Declaration{ID: props[i], Literal: props[i+1], Type: Type(props[i+2]), Line: line})
	}
	return Layer{Source: source, Components: []ComponentProperties{cp}}
}

func findValue(t *testing.T, comps []ResolvedComponent, component, id string) Resolved {
	t.Helper()
	for _, c := range comps {
		if c.ID != component {
			continue
		}
		for _, p := range c.Properties {
			if p.ID == id {
				return p
			}
		}
	}
	t.Fatalf("property %s.%s not found in %+v", component, id, comps)
	return Resolved{}
}

func TestMerge_BaseOnly(t *testing.T) {
	t.Parallel()
	base := layer("/sub.collection", 4, "script",
		"number", "1", string(TypeNumber),
		"vec3", "1, 2, 3", string(TypeVector3))

	got, err := Merge("go", base, nil)
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if n := findValue(t, got, "script", "number"); n.Parsed.Number != 1 || n.Source != "/sub.collection" {
		t.Errorf("number = %+v, want 1 from /sub.collection", n)
	}
	v := findValue(t, got, "script", "vec3")
	if len(v.SubElements) != 3 || v.SubElements[0] != "vec3.x" {
		t.Errorf("vec3 sub-elements = %v", v.SubElements)
	}
}

func TestMerge_OutermostLayerWins(t *testing.T) {
	t.Parallel()
	base := layer("/sub_sub.collection", 3, "script", "number", "1", string(TypeNumber), "flag", "false", string(TypeBoolean))
	outer := layer("/main.collection", 10, "script", "number", "3", string(TypeNumber))
	middle := layer("/sub.collection", 7, "script", "number", "2", string(TypeNumber))

	tests := []struct {
		name       string
		layers     []Layer
		wantNumber float64
		wantSource string
	}{
		{"no overrides", nil, 1, "/sub_sub.collection"},
		{"intermediate only", []Layer{middle}, 2, "/sub.collection"},
		{"root nearest wins", []Layer{outer, middle}, 3, "/main.collection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Merge("go", base, tt.layers)
			if err != nil {
				t.Fatalf("Merge() unexpected error: %v", err)
			}
			n := findValue(t, got, "script", "number")
			if n.Parsed.Number != tt.wantNumber || n.Source != tt.wantSource {
				t.Errorf("number = %v from %s, want %v from %s", n.Parsed.Number, n.Source, tt.wantNumber, tt.wantSource)
			}
			// Layers never touch properties they do not mention.
			if f := findValue(t, got, "script", "flag"); f.Parsed.Bool || f.Source != "/sub_sub.collection" {
				t.Errorf("flag = %+v, want base value", f)
			}
		})
	}
}

func TestMerge_TypeOmittedInheritsBase(t *testing.T) {
	t.Parallel()
	base := layer("/sub.collection", 1, "script", "speed", "1", string(TypeNumber))
	over := layer("/main.collection", 2, "script", "speed", "4", "")

	got, err := Merge("go", base, []Layer{over})
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if v := findValue(t, got, "script", "speed"); v.Parsed.Number != 4 {
		t.Errorf("speed = %v, want 4", v.Parsed.Number)
	}
}

func TestMerge_Errors(t *testing.T) {
	t.Parallel()
	base := layer("/sub.collection", 2, "script",
		"number", "1", string(TypeNumber),
		"pos", "0, 0, 0", string(TypeVector3))

	tests := []struct {
		name     string
		base     Layer
		layers   []Layer
		wantErr  error
		wantPath string
		wantLine int
	}{
		{
			name:     "base literal invalid",
			base:     layer("/main.collection", 9, "script", "number", "a", string(TypeNumber)),
			wantErr:  compileerr.ErrPropertyParse,
			wantPath: "/main.collection",
			wantLine: 9,
		},
		{
			name:     "shadowed literal still parsed",
			base:     base,
			layers:   []Layer{layer("/main.collection", 5, "script", "number", "2", string(TypeNumber)), layer("/mid.collection", 6, "script", "number", "x", string(TypeNumber))},
			wantErr:  compileerr.ErrPropertyParse,
			wantPath: "/mid.collection",
			wantLine: 6,
		},
		{
			name:     "type mismatch",
			base:     base,
			layers:   []Layer{layer("/main.collection", 5, "script", "number", "true", string(TypeBoolean))},
			wantErr:  compileerr.ErrPropertyParse,
			wantPath: "/main.collection",
			wantLine: 5,
		},
		{
			name:     "unknown property",
			base:     base,
			layers:   []Layer{layer("/main.collection", 5, "script", "missing", "1", string(TypeNumber))},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
			wantLine: 5,
		},
		{
			name:     "unknown component",
			base:     base,
			layers:   []Layer{layer("/main.collection", 5, "sprite", "number", "1", string(TypeNumber))},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
			wantLine: 5,
		},
		{
			name:     "sub-element override",
			base:     base,
			layers:   []Layer{layer("/main.collection", 5, "script", "pos.x", "1", string(TypeNumber))},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
			wantLine: 5,
		},
		{
			name:     "base sub-element before its vector",
			base:     layer("/sub.collection", 4, "script", "pos.x", "1", string(TypeNumber), "pos", "0, 0, 0", string(TypeVector3)),
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/sub.collection",
			wantLine: 4,
		},
		{
			name:     "base sub-element after its vector",
			base:     layer("/sub.collection", 4, "script", "pos", "0, 0, 0", string(TypeVector3), "pos.x", "1", string(TypeNumber)),
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/sub.collection",
			wantLine: 4,
		},
		{
			name:     "duplicate base declaration",
			base:     layer("/sub.collection", 3, "script", "number", "1", string(TypeNumber), "number", "2", string(TypeNumber)),
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/sub.collection",
			wantLine: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Merge("go", tt.base, tt.layers)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Merge() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("Merge() returned %v alongside an error", got)
			}
			ce, ok := compileerr.As(err)
			if !ok {
				t.Fatalf("error %v is not a CompileError", err)
			}
			if ce.Path != tt.wantPath || ce.Line != tt.wantLine {
				t.Errorf("error location = %s:%d, want %s:%d", ce.Path, ce.Line, tt.wantPath, tt.wantLine)
			}
		})
	}
}
