// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/internal/testutil"
	"github.com/scenec/scenec/pkg/compileerr"
	"github.com/scenec/scenec/pkg/cueutil"
	"github.com/scenec/scenec/pkg/transform"
)

const tolerance = 1e-9

var half = math.Sqrt2 / 2

func newFlattener(t *testing.T, files map[string]string, opts ...Option) *Flattener {
	t.Helper()
	tree := testutil.Prototypes()
	maps.Copy(tree, files)
	return New(loader.New(testutil.MapFS(tree), nil), opts...)
}

func instanceByID(t *testing.T, res *Result, id string) FlatInstance {
	t.Helper()
	for _, inst := range res.Instances {
		if inst.ID == id {
			return inst
		}
	}
	t.Fatalf("instance %s not found", id)
	return FlatInstance{}
}

func ids(res *Result) []string {
	out := make([]string, len(res.Instances))
	for i, inst := range res.Instances {
		out[i] = inst.ID
	}
	return out
}

func TestFlatten_NestedTransforms(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection":    testutil.Level("main", "sub", "/sub.collection"),
		"/sub.collection":     testutil.Level("sub", "sub_sub", "/sub_sub.collection"),
		"/sub_sub.collection": testutil.Level("sub_sub", "", ""),
	})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}

	wantIDs := []string{
		"/test", "/test_child",
		"/sub/test", "/sub/test_child",
		"/sub/sub_sub/test", "/sub/sub_sub/test_child",
	}
	if got := ids(res); !slices.Equal(got, wantIDs) {
		t.Fatalf("ids = %v, want %v", got, wantIDs)
	}

	authored := transform.Transform{
		Position: r3.Vec{X: 1},
		Rotation: transform.Quat(0, half, 0, half),
		Scale:    transform.Uniform(0.5),
	}
	tests := []struct {
		id   string
		want transform.Transform
	}{
		{"/test", authored},
		{"/test_child", authored},
		{"/sub/test", transform.Transform{
			Position: r3.Vec{X: 1, Z: -0.5},
			Rotation: transform.Quat(0, 1, 0, 0),
			Scale:    r3.Vec{X: 0.25, Y: 0.25, Z: 0.5},
		}},
		{"/sub/test_child", authored},
		{"/sub/sub_sub/test", transform.Transform{
			Position: r3.Vec{X: 0.5, Z: -0.5},
			Rotation: transform.Quat(0, half, 0, -half),
			Scale:    r3.Vec{X: 0.125, Y: 0.125, Z: 0.5},
		}},
		{"/sub/sub_sub/test_child", authored},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			got := instanceByID(t, res, tt.id).Transform
			if !transform.ApproxEqual(got, tt.want, tolerance) {
				t.Errorf("transform = %+v, want %+v", got, tt.want)
			}
		})
	}

	if got := instanceByID(t, res, "/sub/sub_sub/test").Children; !slices.Equal(got, []string{"/sub/sub_sub/test_child"}) {
		t.Errorf("children = %v, want namespaced child id", got)
	}
	if got := instanceByID(t, res, "/sub/test").Source; got != "/sub.collection" {
		t.Errorf("Source = %q, want /sub.collection", got)
	}
}

func TestFlatten_NestedEmbeddedInstances(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection":    testutil.Level("main", "sub", "/sub.collection"),
		"/sub.collection":     testutil.Level("sub", "sub_sub", "/sub_sub.collection"),
		"/sub_sub.collection": testutil.Level("sub_sub", "", "") + testutil.EmbeddedPair(),
	})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}

	wantIDs := []string{
		"/test", "/test_child",
		"/sub/test", "/sub/test_child",
		"/sub/sub_sub/test", "/sub/sub_sub/test_child",
		"/sub/sub_sub/test_embed", "/sub/sub_sub/test_embed_child",
	}
	if got := ids(res); !slices.Equal(got, wantIDs) {
		t.Fatalf("ids = %v, want %v", got, wantIDs)
	}

	embed := instanceByID(t, res, "/sub/sub_sub/test_embed")
	want := transform.Transform{
		Position: r3.Vec{X: 0.5, Z: -0.5},
		Rotation: transform.Quat(0, half, 0, -half),
		Scale:    r3.Vec{X: 0.125, Y: 0.125, Z: 0.5},
	}
	if !transform.ApproxEqual(embed.Transform, want, tolerance) {
		t.Errorf("test_embed transform = %+v, want %+v", embed.Transform, want)
	}
	if !embed.Embedded || embed.Prototype != GeneratedPath("/sub_sub.collection", "test_embed", "go") {
		t.Errorf("test_embed = %+v, want an embedded instance of its generated prototype", embed)
	}
	if !slices.Equal(embed.Children, []string{"/sub/sub_sub/test_embed_child"}) {
		t.Errorf("test_embed children = %v, want namespaced child id", embed.Children)
	}

	child := instanceByID(t, res, "/sub/sub_sub/test_embed_child")
	authored := transform.Transform{
		Position: r3.Vec{X: 1},
		Rotation: transform.Quat(0, half, 0, half),
		Scale:    transform.Uniform(0.5),
	}
	if !transform.ApproxEqual(child.Transform, authored, tolerance) {
		t.Errorf("test_embed_child transform = %+v, want authored %+v", child.Transform, authored)
	}

	if len(res.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want one per embedded instance", len(res.Artifacts))
	}
	for _, a := range res.Artifacts {
		if a.Origin != "/sub_sub.collection" || a.Type != "go" {
			t.Errorf("artifact %s: origin %s type %s", a.Path, a.Origin, a.Type)
		}
	}
}

func TestFlatten_ScaleAlongZ(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection": `name: "main"
collection_instances: [{id: "sub", collection: "/sub.collection", scale: 0.5}]
`,
		"/sub.collection": `name: "sub"
scale_along_z: true
instances: [{id: "go", prototype: "/test.go", position: {z: 2}}]
`,
	})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}
	got := res.Instances[0].Transform
	want := transform.Transform{
		Position: r3.Vec{Z: 1},
		Rotation: transform.Quat(0, 0, 0, 1),
		Scale:    transform.Uniform(0.5),
	}
	if !transform.ApproxEqual(got, want, tolerance) {
		t.Errorf("transform = %+v, want %+v", got, want)
	}
}

func TestFlatten_NoNesting(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/levels/main.collection": `name: "main"
instances: [{id: "a", prototype: "../test.go", position: {x: 3, y: 4}, scale3: {x: 1, y: 2, z: 3}}]
`,
	})
	res, err := f.Flatten("levels/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}
	if len(res.Instances) != 1 || len(res.Artifacts) != 0 {
		t.Fatalf("got %d instances, %d artifacts", len(res.Instances), len(res.Artifacts))
	}
	inst := res.Instances[0]
	if inst.ID != "/a" || inst.Prototype != "/test.go" || inst.Embedded {
		t.Errorf("instance = %+v", inst)
	}
	want := transform.Transform{Position: r3.Vec{X: 3, Y: 4}, Rotation: transform.Quat(0, 0, 0, 1), Scale: r3.Vec{X: 1, Y: 2, Z: 3}}
	if inst.Transform != want {
		t.Errorf("transform = %+v, want %+v", inst.Transform, want)
	}
	if res.ComponentCounts["script"] != 1 {
		t.Errorf("ComponentCounts = %v, want one script", res.ComponentCounts)
	}
}

const (
	overrideGO = `name: "sub"
instances: [{
	id: "go"
	prototype: "/test.go"
	component_properties: [{
		id: "script"
		properties: [{id: "number", value: "1", type: "PROPERTY_TYPE_NUMBER"}]
	}]
}]
`
)

func numberOf(t *testing.T, inst FlatInstance) (float64, string) {
	t.Helper()
	for _, c := range inst.Components {
		for _, p := range c.Properties {
			if c.ID == "script" && p.ID == "number" {
				return p.Parsed.Number, p.Source
			}
		}
	}
	t.Fatalf("%s has no script.number", inst.ID)
	return 0, ""
}

func TestFlatten_SubCollectionOverride(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection": `name: "main"
collection_instances: [{
	id: "sub"
	collection: "/sub.collection"
	instance_properties: [{
		id: "go"
		properties: [{id: "script", properties: [{id: "number", value: "2", type: "PROPERTY_TYPE_NUMBER"}]}]
	}]
}]
`,
		"/sub.collection": overrideGO,
	})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}
	if len(res.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(res.Instances))
	}
	if n, src := numberOf(t, res.Instances[0]); n != 2 || src != "/main.collection" {
		t.Errorf("number = %v from %s, want 2 from /main.collection", n, src)
	}
}

func TestFlatten_ThreeWayPrecedence(t *testing.T) {
	t.Parallel()

	sub := `name: "sub"
collection_instances: [{
	id: "sub_sub"
	collection: "/sub_sub.collection"
	instance_properties: [{
		id: "go"
		properties: [{id: "script", properties: [{id: "number", value: "2"}]}]
	}]
}]
`
	tests := []struct {
		name       string
		main       string
		wantNumber float64
		wantSource string
	}{
		{
			name: "root override wins",
			main: `name: "main"
collection_instances: [{
	id: "sub"
	collection: "/sub.collection"
	instance_properties: [{
		id: "sub_sub/go"
		properties: [{id: "script", properties: [{id: "number", value: "3"}]}]
	}]
}]
`,
			wantNumber: 3,
			wantSource: "/main.collection",
		},
		{
			name: "intermediate override wins over default",
			main: `name: "main"
collection_instances: [{id: "sub", collection: "/sub.collection"}]
`,
			wantNumber: 2,
			wantSource: "/sub.collection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFlattener(t, map[string]string{
				"/main.collection":    tt.main,
				"/sub.collection":     sub,
				"/sub_sub.collection": strings.Replace(overrideGO, `"sub"`, `"sub_sub"`, 1),
			})
			res, err := f.Flatten("/main.collection")
			if err != nil {
				t.Fatalf("Flatten() unexpected error: %v", err)
			}
			inst := instanceByID(t, res, "/sub/sub_sub/go")
			if n, src := numberOf(t, inst); n != tt.wantNumber || src != tt.wantSource {
				t.Errorf("number = %v from %s, want %v from %s", n, src, tt.wantNumber, tt.wantSource)
			}
		})
	}
}

const embeddedMain = `name: "main"
embedded_instances: [{
	id: "embedded"
	data: #"embedded_components: [{id: "sprite", type: "sprite", data: "tile_set: \"/tiles.tilesource\""}]"#
}]
`

func TestFlatten_EmbeddedInstance(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{"/main.collection": embeddedMain})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}
	if len(res.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(res.Instances))
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(res.Artifacts))
	}

	goPath := GeneratedPath("/main.collection", "embedded", "go")
	spritePath := GeneratedPath(goPath, "sprite", "sprite")
	if res.Artifacts[0].Path != goPath || res.Artifacts[0].Type != "go" {
		t.Errorf("artifact[0] = %s (%s), want %s", res.Artifacts[0].Path, res.Artifacts[0].Type, goPath)
	}
	if res.Artifacts[1].Path != spritePath || res.Artifacts[1].Type != "sprite" {
		t.Errorf("artifact[1] = %s (%s), want %s", res.Artifacts[1].Path, res.Artifacts[1].Type, spritePath)
	}
	if string(res.Artifacts[1].Data) != `tile_set: "/tiles.tilesource"` {
		t.Errorf("component payload = %q", res.Artifacts[1].Data)
	}
	if res.Artifacts[0].Document == nil || res.Artifacts[0].Document.GameObject == nil {
		t.Error("game object artifact should carry its parsed document")
	}

	inst := res.Instances[0]
	if inst.ID != "/embedded" || !inst.Embedded || inst.Prototype != goPath {
		t.Errorf("instance = %+v", inst)
	}
	if res.ComponentCounts["sprite"] != 1 {
		t.Errorf("ComponentCounts = %v, want one sprite", res.ComponentCounts)
	}
}

func TestFlatten_EmbeddedReusedAcrossInstantiations(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection": `name: "main"
collection_instances: [
	{id: "a", collection: "/sub.collection"},
	{id: "b", collection: "/sub.collection"},
]
`,
		"/sub.collection": strings.Replace(embeddedMain, `"main"`, `"sub"`, 1),
	})
	res, err := f.Flatten("/main.collection")
	if err != nil {
		t.Fatalf("Flatten() unexpected error: %v", err)
	}
	if got := ids(res); !slices.Equal(got, []string{"/a/embedded", "/b/embedded"}) {
		t.Fatalf("ids = %v", got)
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("got %d artifacts, want the payload extracted once", len(res.Artifacts))
	}
	if res.Instances[0].Prototype != res.Instances[1].Prototype {
		t.Error("both instantiations should reference the same artifact")
	}
}

func TestFlatten_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		opts     []Option
		wantErr  error
		wantPath string
		wantLine int
		wantIDs  []string
	}{
		{
			name: "duplicate id",
			files: map[string]string{"/main.collection": `name: "main"
instances: [
	{id: "test", prototype: "/test.go"},
	{id: "test", prototype: "/test.go"},
]
`},
			wantErr:  compileerr.ErrDuplicateID,
			wantPath: "/main.collection",
			wantIDs:  []string{"/test", "/test"},
		},
		{
			// Authored ids cannot contain "/", so a namespaced id can never be
			// forged by hand.
			name: "slash in authored id",
			files: map[string]string{
				"/main.collection": `name: "main"
instances: [{id: "sub/go", prototype: "/test.go"}]
collection_instances: [{id: "sub", collection: "/sub.collection"}]
`,
				"/sub.collection": `name: "sub"
instances: [{id: "go", prototype: "/test.go"}]
`,
			},
			wantErr: cueutil.ErrInvalidDocument,
		},
		{
			name: "transitive cycle",
			files: map[string]string{
				"/main.collection": `name: "main"
collection_instances: [{id: "sub", collection: "/sub.collection"}]
`,
				"/sub.collection": `name: "sub"
collection_instances: [{id: "back", collection: "main.collection"}]
`,
			},
			wantErr:  compileerr.ErrCycle,
			wantPath: "/sub.collection",
			wantLine: 2,
			wantIDs:  []string{"/main.collection", "/sub.collection", "/main.collection"},
		},
		{
			name: "self reference",
			files: map[string]string{"/main.collection": `name: "main"
collection_instances: [{id: "me", collection: "/main.collection"}]
`},
			wantErr: compileerr.ErrCycle,
			wantIDs: []string{"/main.collection", "/main.collection"},
		},
		{
			name: "max depth",
			files: map[string]string{
				"/main.collection":    testutil.Level("main", "sub", "/sub.collection"),
				"/sub.collection":     testutil.Level("sub", "sub_sub", "/sub_sub.collection"),
				"/sub_sub.collection": testutil.Level("sub_sub", "", ""),
			},
			opts:    []Option{WithMaxDepth(1)},
			wantErr: compileerr.ErrCycle,
		},
		{
			name: "invalid number literal",
			files: map[string]string{"/main.collection": `name: "main"
instances: [{
	id: "test"
	prototype: "/test.go"
	component_properties: [{
		id: "script"
		properties: [
			{id: "number", value: "a", type: "PROPERTY_TYPE_NUMBER"},
		]
	}]
}]
`},
			wantErr:  compileerr.ErrPropertyParse,
			wantPath: "/main.collection",
			wantLine: 8,
			wantIDs:  []string{"/test", "script", "number"},
		},
		{
			name:     "missing prototype",
			files:    map[string]string{"/main.collection": "name: \"main\"\ninstances: [{id: \"a\", prototype: \"/missing.go\"}]\n"},
			wantErr:  loader.ErrNotFound,
			wantPath: "/main.collection",
			wantLine: 2,
		},
		{
			name:     "prototype of wrong kind",
			files:    map[string]string{"/main.collection": "name: \"main\"\ninstances: [{id: \"a\", prototype: \"/test.script\"}]\n"},
			wantErr:  ErrWrongKind,
			wantPath: "/main.collection",
		},
		{
			name: "missing sub-collection",
			files: map[string]string{"/main.collection": `name: "main"
collection_instances: [{id: "sub", collection: "/nope.collection"}]
`},
			wantErr: compileerr.ErrReference,
		},
		{
			name:    "missing root",
			files:   map[string]string{},
			wantErr: compileerr.ErrReference,
		},
		{
			name:    "unknown child",
			files:   map[string]string{"/main.collection": "name: \"main\"\ninstances: [{id: \"a\", prototype: \"/test.go\", children: [\"b\"]}]\n"},
			wantErr: ErrUnknownChild,
		},
		{
			name: "embedded instances sharing an id",
			files: map[string]string{"/main.collection": `name: "main"
embedded_instances: [
	{id: "dup", data: "components: []"},
	{id: "dup", data: "components: []"},
]
`},
			wantErr:  compileerr.ErrPathCollision,
			wantPath: "/main.collection",
			wantLine: 4,
			wantIDs:  []string{"dup (line 3)", "dup (line 4)"},
		},
		{
			name: "override of missing instance",
			files: map[string]string{
				"/main.collection": `name: "main"
collection_instances: [{
	id: "sub"
	collection: "/sub.collection"
	instance_properties: [{id: "nope", properties: []}]
}]
`,
				"/sub.collection": overrideGO,
			},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
			wantIDs:  []string{"sub/nope"},
		},
		{
			name: "override of missing property",
			files: map[string]string{
				"/main.collection": `name: "main"
collection_instances: [{
	id: "sub"
	collection: "/sub.collection"
	instance_properties: [{
		id: "go"
		properties: [{id: "script", properties: [{id: "speed", value: "2", type: "PROPERTY_TYPE_NUMBER"}]}]
	}]
}]
`,
				"/sub.collection": overrideGO,
			},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
		},
		{
			name: "properties on missing component",
			files: map[string]string{"/main.collection": `name: "main"
instances: [{
	id: "go"
	prototype: "/test.go"
	component_properties: [{id: "sprite", properties: [{id: "n", value: "1", type: "PROPERTY_TYPE_NUMBER"}]}]
}]
`},
			wantErr:  compileerr.ErrOverrideTarget,
			wantPath: "/main.collection",
			wantIDs:  []string{"/go.sprite"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFlattener(t, tt.files, tt.opts...)
			res, err := f.Flatten("/main.collection")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Flatten() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("Flatten() returned a partial result alongside %v", err)
			}
			ce, ok := compileerr.As(err)
			if !ok {
				t.Fatalf("error %v is not a CompileError", err)
			}
			if tt.wantPath != "" && ce.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", ce.Path, tt.wantPath)
			}
			if tt.wantLine != 0 && ce.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", ce.Line, tt.wantLine)
			}
			if tt.wantIDs != nil && !slices.Equal(ce.IDs, tt.wantIDs) {
				t.Errorf("IDs = %v, want %v", ce.IDs, tt.wantIDs)
			}
		})
	}
}

func TestFlatten_ConcurrentUse(t *testing.T) {
	t.Parallel()

	f := newFlattener(t, map[string]string{
		"/main.collection":    testutil.Level("main", "sub", "/sub.collection"),
		"/sub.collection":     testutil.Level("sub", "sub_sub", "/sub_sub.collection"),
		"/sub_sub.collection": testutil.Level("sub_sub", "", ""),
	})
	errs := make(chan error, 8)
	for range 8 {
		go func() {
			res, err := f.Flatten("/main.collection")
			if err == nil && len(res.Instances) != 6 {
				err = fmt.Errorf("got %d instances", len(res.Instances))
			}
			errs <- err
		}()
	}
	for range 8 {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
