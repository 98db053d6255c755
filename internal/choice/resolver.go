// Package choice rewrites human-readable choice labels as the codes a
// form server expects, using the per-field lists of the loaded mapping.
//
// Source files are often exported with labels ("Yes", "Port of Spain")
// where the server wants codes ("yes", "pos"). Resolution tries, in
// order: the value already being a code, a direct label lookup, and a
// reverse lookup for lists written code→label. Values containing a
// separator are treated as multi-selects, resolved token by token and
// rejoined with single spaces. Values matching nothing are handled per
// the configured Mode.
package choice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tablecast/internal/mapping"
	"tablecast/internal/tableset"
)

// ErrUnresolved reports a value found in no form of its field's choice
// list while running in reject mode.
var ErrUnresolved = errors.New("choice value not in list")

// multiSeparators are tried in order; the first one present anywhere in
// the value decides how a multi-select cell is split.
var multiSeparators = []string{";", "|", " "}

// Resolver converts cell values for choice fields. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	spec    *mapping.Spec
	enabled bool
	mode    Mode
	log     zerolog.Logger
}

// New returns a Resolver over spec's choice lists. With enabled false
// every value passes through unchanged.
func New(spec *mapping.Spec, enabled bool, mode Mode, log zerolog.Logger) *Resolver {
	return &Resolver{spec: spec, enabled: enabled, mode: mode, log: log}
}

// Resolve returns the document text for one cell of the named field.
// Fields without a choice list, absent cells, and disabled resolution
// all pass the cell through in its rendered form. Matching trims the
// cell before comparing, but an unchanged value keeps its original
// rendering, surrounding whitespace included.
func (r *Resolver) Resolve(field string, v tableset.Value) (string, error) {
	if !r.enabled || v.IsAbsent() {
		return v.Render(), nil
	}

	list, ok := r.spec.Choices(field)
	if !ok {
		return v.Render(), nil
	}

	value := strings.TrimSpace(v.Raw())

	// Already a code: keep the cell as it came in.
	if list.HasCode(value) {
		return v.Render(), nil
	}

	if code, ok := list.Code(value); ok {
		return code, nil
	}

	if label, ok := list.ReverseLookup(value); ok {
		return label, nil
	}

	for _, sep := range multiSeparators {
		if strings.Contains(value, sep) {
			return r.resolveMulti(field, list, value, sep)
		}
	}

	if err := r.unresolved(field, value); err != nil {
		return "", err
	}

	return v.Render(), nil
}

// resolveMulti splits a multi-select value on sep, resolves each token
// independently, and rejoins the results with the single-space internal
// separator of submitted documents.
func (r *Resolver) resolveMulti(field string, list *mapping.ChoiceList, value, sep string) (string, error) {
	var tokens []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}

	converted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if list.HasCode(token) {
			converted = append(converted, token)
			continue
		}

		if code, ok := list.Code(token); ok {
			converted = append(converted, code)
			continue
		}

		if label, ok := list.ReverseLookup(token); ok {
			converted = append(converted, label)
			continue
		}

		if err := r.unresolved(field, token); err != nil {
			return "", err
		}

		converted = append(converted, token)
	}

	return strings.Join(converted, " "), nil
}

func (r *Resolver) unresolved(field, value string) error {
	switch r.mode {
	case ModeReject:
		return fmt.Errorf("field %s: %w: %q", field, ErrUnresolved, value)
	case ModeWarn:
		r.log.Warn().Str("field", field).Str("value", value).Msg("choice value not in list")
	}

	return nil
}
