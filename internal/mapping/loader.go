package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// LoadFile loads and parses a JSON mapping file from the given path.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses JSON mapping data into a Spec. Two shapes are accepted:
// a flat {field: path} object, or {"fields": {...}, "choices": {...}}.
// Field order in the file is preserved; it decides population order.
func Parse(data []byte) (*Spec, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse mapping JSON: %w", err)
	}

	fieldsRaw, structured := top["fields"]
	if !structured {
		fieldsRaw = data
	}

	pairs, err := parsePairs(fieldsRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse field mappings: %w", err)
	}

	fields := make([]Field, 0, len(pairs))
	seen := make(map[string]int, len(pairs))

	for _, p := range pairs {
		// Duplicate keys keep their first position, last value wins.
		if i, ok := seen[p.key]; ok {
			fields[i].Path = p.value
			continue
		}

		seen[p.key] = len(fields)
		fields = append(fields, Field{Name: p.key, Path: p.value})
	}

	var choices map[string]*ChoiceList
	if structured {
		if choicesRaw, ok := top["choices"]; ok {
			choices, err = parseChoiceLists(choicesRaw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse choice mappings: %w", err)
			}
		}
	}

	return NewSpec(fields, choices)
}

type pair struct {
	key   string
	value string
}

// parsePairs reads a JSON object of scalar values, preserving key order.
// Numeric values keep their literal form.
func parsePairs(data []byte) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var out []pair

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading value for %q: %w", key, err)
		}

		switch v := valTok.(type) {
		case string:
			out = append(out, pair{key: key, value: v})
		case json.Number:
			out = append(out, pair{key: key, value: v.String()})
		default:
			return nil, fmt.Errorf("value for %q must be a string", key)
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return out, nil
}

// parseChoiceLists reads {"field": {"Label": "code", ...}, ...}. Entry
// order inside each list is preserved for deterministic reverse lookups.
func parseChoiceLists(data []byte) (map[string]*ChoiceList, error) {
	var byField map[string]json.RawMessage
	if err := json.Unmarshal(data, &byField); err != nil {
		return nil, err
	}

	choices := make(map[string]*ChoiceList, len(byField))

	for field, raw := range byField {
		pairs, err := parsePairs(raw)
		if err != nil {
			return nil, fmt.Errorf("choices for field %q: %w", field, err)
		}

		cl := NewChoiceList()
		for _, p := range pairs {
			cl.Add(p.key, p.value)
		}

		choices[field] = cl
	}

	return choices, nil
}
