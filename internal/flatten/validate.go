// SPDX-License-Identifier: MPL-2.0

package flatten

import "github.com/scenec/scenec/pkg/compileerr"

// ValidateUnique checks that no two instances share an id, scanning in output
// order. The first repeat is reported with the documents of both occurrences.
func ValidateUnique(instances []FlatInstance) error {
	seen := make(map[string]string, len(instances))
	for _, inst := range instances {
		if first, ok := seen[inst.ID]; ok {
			return compileerr.DuplicateID(inst.ID, first, inst.Source)
		}
		seen[inst.ID] = inst.Source
	}
	return nil
}
