// SPDX-License-Identifier: MPL-2.0

package compileerr

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestCompileError_IsSentinel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"reference", Reference("/main.collection", 3, "/missing.go", fs.ErrNotExist), ErrReference},
		{"cycle", Cycle([]string{"/a.collection", "/b.collection", "/a.collection"}), ErrCycle},
		{"depth", DepthExceeded([]string{"/a.collection"}, 1), ErrCycle},
		{"duplicate", DuplicateID("/test", "/main.collection", "/main.collection"), ErrDuplicateID},
		{"parse", PropertyParse("/main.collection", 9, "test", "script", "number", nil), ErrPropertyParse},
		{"target", OverrideTarget("/main.collection", 0, "sub/go", "no such instance"), ErrOverrideTarget},
		{"collision", PathCollision("/main.collection", "/x.go", "a", "b"), ErrPathCollision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
			if _, ok := As(tt.err); !ok {
				t.Errorf("As(%v) should find a *CompileError", tt.err)
			}
		})
	}
}

func TestCompileError_UnwrapsCause(t *testing.T) {
	t.Parallel()
	err := Reference("/main.collection", 0, "/missing.go", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause should be reachable through errors.Is")
	}
}

func TestCompileError_Message(t *testing.T) {
	t.Parallel()
	err := PropertyParse("/main.collection", 12, "test", "script", "number", errors.New(`"a" is not a number`))
	want := `/main.collection:12: the property test.script.number has an invalid format: "a" is not a number`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCycle_NamesChain(t *testing.T) {
	t.Parallel()
	err := Cycle([]string{"/a.collection", "/b.collection", "/a.collection"})
	if err.Path != "/b.collection" {
		t.Errorf("Path = %q, want the document holding the offending reference", err.Path)
	}
	if !strings.Contains(err.Error(), "/a.collection -> /b.collection -> /a.collection") {
		t.Errorf("Error() = %q, want the full chain", err.Error())
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()
	if got := KindDuplicateID.String(); got != "DuplicateIdError" {
		t.Errorf("KindDuplicateID.String() = %q", got)
	}
	if got := Kind(99).String(); got != "CompileError(99)" {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
