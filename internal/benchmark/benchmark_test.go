// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"io"
	"testing"

	"github.com/scenec/scenec/internal/buildgraph"
	"github.com/scenec/scenec/internal/flatten"
	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/internal/output"
	"github.com/scenec/scenec/internal/testutil"
	"github.com/scenec/scenec/pkg/property"
	"github.com/scenec/scenec/pkg/scenefile"
)

func newFlattener(tree map[string]string) *flatten.Flattener {
	return flatten.New(loader.New(testutil.MapFS(tree), nil))
}

// BenchmarkCollectionParsing benchmarks CUE schema validation and decoding
// of a collection document. This exercises the hot path in pkg/cueutil.
func BenchmarkCollectionParsing(b *testing.B) {
	data := []byte(testutil.Level("main", "sub", "/sub.collection"))

	b.ResetTimer()
	for b.Loop() {
		if _, err := scenefile.ParseCollection("/main.collection", data); err != nil {
			b.Fatalf("ParseCollection failed: %v", err)
		}
	}
}

// BenchmarkGameObjectParsing benchmarks game object decoding.
func BenchmarkGameObjectParsing(b *testing.B) {
	data := []byte(testutil.PrototypeGO)

	b.ResetTimer()
	for b.Loop() {
		if _, err := scenefile.ParseGameObject("/test.go", data); err != nil {
			b.Fatalf("ParseGameObject failed: %v", err)
		}
	}
}

// BenchmarkPropertyParse benchmarks literal parsing for every property type.
func BenchmarkPropertyParse(b *testing.B) {
	literals := map[property.Type]string{
		property.TypeNumber:  "3.5",
		property.TypeHash:    "enemy",
		property.TypeURL:     "/main.collection",
		property.TypeVector3: "1, 2, 3",
		property.TypeVector4: "1, 2, 3, 4",
		property.TypeQuat:    "0, 0, 0, 1",
		property.TypeBoolean: "true",
	}

	b.ResetTimer()
	for b.Loop() {
		for typ, literal := range literals {
			if _, err := property.Parse(literal, typ); err != nil {
				b.Fatalf("Parse(%q, %v) failed: %v", literal, typ, err)
			}
		}
	}
}

// BenchmarkFlattenNested benchmarks flattening three nested levels.
func BenchmarkFlattenNested(b *testing.B) {
	f := newFlattener(testutil.NestedProject())

	b.ResetTimer()
	for b.Loop() {
		res, err := f.Flatten("/main.collection")
		if err != nil {
			b.Fatalf("Flatten failed: %v", err)
		}
		if len(res.Instances) != 6 {
			b.Fatalf("got %d instances, want 6", len(res.Instances))
		}
	}
}

// BenchmarkFlattenWide benchmarks flattening a root that instantiates the
// same sub-collection many times.
func BenchmarkFlattenWide(b *testing.B) {
	for _, width := range []int{8, 64} {
		b.Run(fmt.Sprintf("width=%d", width), func(b *testing.B) {
			f := newFlattener(testutil.WideProject(width))

			b.ResetTimer()
			for b.Loop() {
				res, err := f.Flatten("/wide.collection")
				if err != nil {
					b.Fatalf("Flatten failed: %v", err)
				}
				if len(res.Instances) != width*4 {
					b.Fatalf("got %d instances, want %d", len(res.Instances), width*4)
				}
			}
		})
	}
}

// BenchmarkManifestEncoding benchmarks every output format on the same
// flattened result.
func BenchmarkManifestEncoding(b *testing.B) {
	res, err := newFlattener(testutil.WideProject(16)).Flatten("/wide.collection")
	if err != nil {
		b.Fatalf("Flatten failed: %v", err)
	}
	m := output.FromResult(res)

	for _, format := range output.Formats() {
		b.Run(format.String(), func(b *testing.B) {
			for b.Loop() {
				if err := output.Write(io.Discard, format, m); err != nil {
					b.Fatalf("Write failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkBuildGraph benchmarks dependency graph construction and ordering.
func BenchmarkBuildGraph(b *testing.B) {
	l := loader.New(testutil.MapFS(testutil.WideProject(16)), nil)

	b.ResetTimer()
	for b.Loop() {
		g, err := buildgraph.Build(l, "/wide.collection", nil)
		if err != nil {
			b.Fatalf("Build failed: %v", err)
		}
		if _, err := g.Order(); err != nil {
			b.Fatalf("Order failed: %v", err)
		}
	}
}
