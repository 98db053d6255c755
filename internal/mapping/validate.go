package mapping

import (
	"fmt"
	"sort"

	"tablecast/internal/diagnostic"
)

// Validate reports non-fatal oddities in a loaded Spec: choice lists
// attached to fields that carry no path mapping, and distinct fields
// sharing one path (the later field overwrites the earlier one's leaf).
func Validate(s *Spec) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}

	names := s.ChoiceFields()
	sort.Strings(names)

	for _, name := range names {
		if _, ok := s.Path(name); !ok {
			diags.AddWarning("choices-unmapped-field",
				"choice list for a field with no path mapping", "", name)
		}
	}

	byPath := make(map[string]string, len(s.Fields))

	for _, f := range s.Fields {
		if prev, ok := byPath[f.Path]; ok {
			diags.AddWarning("duplicate-path",
				fmt.Sprintf("path %q already mapped by field %q", f.Path, prev), "", f.Name)
			continue
		}

		byPath[f.Path] = f.Name
	}

	return diags
}
