package mapping

import (
	"fmt"
	"strings"
)

// Field is one mapped column: the flat field name and the slash-delimited
// path of the node its values populate.
type Field struct {
	Name string
	Path string
}

// ChoiceEntry is one label→code pair of a choice list, in file order.
type ChoiceEntry struct {
	Label string
	Code  string
}

// ChoiceList holds the enumerated choices of one field. Entry order is
// the file order; reverse lookups scan in that order so resolution stays
// deterministic.
type ChoiceList struct {
	entries []ChoiceEntry
	byLabel map[string]string
	codes   map[string]struct{}
}

// NewChoiceList returns an empty choice list.
func NewChoiceList() *ChoiceList {
	return &ChoiceList{
		byLabel: make(map[string]string),
		codes:   make(map[string]struct{}),
	}
}

// Add appends a label→code entry. A repeated label updates the code of
// the existing entry in place instead of appending, keeping the first
// position (last value wins, as with duplicate JSON keys).
func (cl *ChoiceList) Add(label, code string) {
	if _, ok := cl.byLabel[label]; ok {
		for i := range cl.entries {
			if cl.entries[i].Label == label {
				cl.entries[i].Code = code
				break
			}
		}
	} else {
		cl.entries = append(cl.entries, ChoiceEntry{Label: label, Code: code})
	}

	cl.byLabel[label] = code

	cl.codes = make(map[string]struct{}, len(cl.entries))
	for _, e := range cl.entries {
		cl.codes[e.Code] = struct{}{}
	}
}

// Len returns the number of entries.
func (cl *ChoiceList) Len() int {
	return len(cl.entries)
}

// Entries returns the entries in file order.
func (cl *ChoiceList) Entries() []ChoiceEntry {
	return cl.entries
}

// HasCode reports whether v exactly equals one of the list's codes.
func (cl *ChoiceList) HasCode(v string) bool {
	_, ok := cl.codes[v]
	return ok
}

// Code returns the code for a label.
func (cl *ChoiceList) Code(label string) (string, bool) {
	code, ok := cl.byLabel[label]
	return code, ok
}

// ReverseLookup scans entries in file order comparing v against each
// entry's trimmed code side and returns the label side of the first
// match. This supports mapping files written code→label.
func (cl *ChoiceList) ReverseLookup(v string) (string, bool) {
	for _, e := range cl.entries {
		if strings.TrimSpace(e.Code) == v {
			return e.Label, true
		}
	}

	return "", false
}

// Spec is the loaded mapping model. It is built once per conversion
// session and read-only afterward; conversions share it freely.
type Spec struct {
	// Fields in file declaration order. Population follows this order.
	Fields []Field

	choices   map[string]*ChoiceList
	paths     map[string]string
	groupOnly map[string]struct{}
}

// NewSpec builds a Spec from ordered fields and optional per-field choice
// lists, validating paths and deriving the group-only classification.
func NewSpec(fields []Field, choices map[string]*ChoiceList) (*Spec, error) {
	if choices == nil {
		choices = make(map[string]*ChoiceList)
	}

	s := &Spec{
		Fields:    fields,
		choices:   choices,
		paths:     make(map[string]string, len(fields)),
		groupOnly: make(map[string]struct{}),
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("invalid mapping: empty field name for path %q", f.Path)
		}

		if err := ValidatePath(f.Path); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		if _, dup := s.paths[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}

		s.paths[f.Name] = f.Path
	}

	s.classify()

	return s, nil
}

// Len returns the number of mapped fields.
func (s *Spec) Len() int {
	return len(s.Fields)
}

// Path returns the mapped path for a field name.
func (s *Spec) Path(name string) (string, bool) {
	p, ok := s.paths[name]
	return p, ok
}

// PathOr returns the mapped path for name, or fallback when unmapped.
func (s *Spec) PathOr(name, fallback string) string {
	if p, ok := s.paths[name]; ok {
		return p
	}

	return fallback
}

// IsGroupOnly reports whether the field is a structural marker.
func (s *Spec) IsGroupOnly(name string) bool {
	_, ok := s.groupOnly[name]
	return ok
}

// Choices returns the choice list for a field, if it has one.
func (s *Spec) Choices(name string) (*ChoiceList, bool) {
	cl, ok := s.choices[name]
	return cl, ok
}

// ChoiceFields returns the names of fields carrying choice lists, in no
// particular order.
func (s *Spec) ChoiceFields() []string {
	names := make([]string, 0, len(s.choices))
	for name := range s.choices {
		names = append(names, name)
	}

	return names
}

// classify derives the group-only set: a field whose name equals the last
// segment of its own path while another field's path extends that path
// marks a container, not a leaf.
func (s *Spec) classify() {
	for _, f := range s.Fields {
		if f.Name != LastSegment(f.Path) {
			continue
		}

		prefix := f.Path + "/"
		for _, other := range s.Fields {
			if strings.HasPrefix(other.Path, prefix) {
				s.groupOnly[f.Name] = struct{}{}
				break
			}
		}
	}
}
