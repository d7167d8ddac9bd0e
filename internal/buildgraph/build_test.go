// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/scenec/scenec/internal/loader"
	"github.com/scenec/scenec/pkg/compileerr"
)

func project() fstest.MapFS {
	return fstest.MapFS{
		"main.collection": {Data: []byte(`name: "main"
instances: [{id: "hero", prototype: "/objects/hero.go"}]
embedded_instances: [{id: "deco", data: #"components: [{id: "s", component: "/scripts/deco.script"}]"#}]
collection_instances: [
	{id: "a", collection: "/levels/sub.collection"},
	{id: "b", collection: "/levels/sub.collection"},
]
`)},
		"levels/sub.collection": {Data: []byte(`name: "sub"
instances: [{id: "hero", prototype: "../objects/hero.go"}]
`)},
		"objects/hero.go":     {Data: []byte(`components: [{id: "script", component: "/scripts/hero.script"}]`)},
		"scripts/hero.script": {Data: []byte("")},
		"scripts/deco.script": {Data: []byte("")},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	g, err := Build(loader.New(project(), nil), "/main.collection", nil)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("Order() unexpected error: %v", err)
	}
	got := paths(order)
	want := []string{"/scripts/hero.script", "/scripts/deco.script", "/objects/hero.go", "/levels/sub.collection", "/main.collection"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	main, _ := g.Node("/main.collection")
	if main.Kind != loader.KindCollection || main.Output != "/main.collectionc" {
		t.Errorf("main node = %+v", main)
	}
	hero, _ := g.Node("/objects/hero.go")
	if hero.Output != "/objects/hero.goc" {
		t.Errorf("hero output = %q", hero.Output)
	}
	script, _ := g.Node("/scripts/hero.script")
	if script.Kind != loader.KindOpaque || script.Output != "/scripts/hero.scriptc" {
		t.Errorf("script node = %+v", script)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr error
	}{
		{
			name: "missing component resource",
			files: fstest.MapFS{
				"main.collection": {Data: []byte(`name: "main", instances: [{id: "a", prototype: "/a.go"}]`)},
				"a.go":            {Data: []byte(`components: [{id: "s", component: "/missing.script"}]`)},
			},
			wantErr: loader.ErrNotFound,
		},
		{
			name: "cycle",
			files: fstest.MapFS{
				"main.collection": {Data: []byte(`name: "main", collection_instances: [{id: "s", collection: "/sub.collection"}]`)},
				"sub.collection":  {Data: []byte(`name: "sub", collection_instances: [{id: "m", collection: "/main.collection"}]`)},
			},
			wantErr: compileerr.ErrCycle,
		},
		{
			name:    "missing root",
			files:   fstest.MapFS{},
			wantErr: compileerr.ErrReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Build(loader.New(tt.files, nil), "/main.collection", nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
