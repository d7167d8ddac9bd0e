// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"errors"
	"testing"

	"github.com/scenec/scenec/pkg/compileerr"
)

func TestValidateUnique(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ids     []string
		wantErr bool
		wantID  string
	}{
		{"empty", nil, false, ""},
		{"distinct", []string{"/a", "/sub/a", "/sub/sub/a"}, false, ""},
		{"case sensitive", []string{"/a", "/A"}, false, ""},
		{"repeat", []string{"/a", "/b", "/a", "/b"}, true, "/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			instances := make([]FlatInstance, len(tt.ids))
			for i, id := range tt.ids {
				instances[i] = FlatInstance{ID: id, Source: "/main.collection"}
			}
			err := ValidateUnique(instances)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateUnique() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, compileerr.ErrDuplicateID) {
				t.Errorf("error %v should match ErrDuplicateID", err)
			}
			if ce, _ := compileerr.As(err); ce.IDs[0] != tt.wantID {
				t.Errorf("IDs = %v, want first repeat %s", ce.IDs, tt.wantID)
			}
		})
	}
}
